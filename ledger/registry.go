package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-marketplace-backend/model"
)

type CreateEventInput struct {
	Name                   string
	StartTime              time.Time
	Location               string
	Organizer              string
	OrganizerFeePercentage int
	AreaNames              []string
	AreaPrices             []uint64
	AreaQuotas             []uint64
}

func (in CreateEventInput) validate() error {
	n := len(in.AreaNames)
	if n == 0 || n != len(in.AreaPrices) || n != len(in.AreaQuotas) {
		return fmt.Errorf("area arrays must have the same non-zero length: names=%d prices=%d quotas=%d: %w",
			len(in.AreaNames), len(in.AreaPrices), len(in.AreaQuotas), ErrInvalidInput)
	}
	if in.OrganizerFeePercentage < 0 || in.OrganizerFeePercentage > 100 {
		return fmt.Errorf("organizer fee percentage %d out of range: %w", in.OrganizerFeePercentage, ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("event name is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Organizer) == "" {
		return fmt.Errorf("organizer is required: %w", ErrInvalidInput)
	}
	if in.StartTime.IsZero() {
		return fmt.Errorf("start time is required: %w", ErrInvalidInput)
	}
	for i, name := range in.AreaNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("area %d: name is required: %w", i+1, ErrInvalidInput)
		}
		if in.AreaQuotas[i] == 0 {
			return fmt.Errorf("area %d: quota must be positive: %w", i+1, ErrInvalidInput)
		}
	}
	return nil
}

// EventRegistry owns Event and Area records.
type EventRegistry struct {
	store EventStore
}

func NewEventRegistry(store EventStore) *EventRegistry {
	return &EventRegistry{store: store}
}

// Create stores the event and all its areas. It must run inside one unit so
// no reader observes an event without its areas.
func (r *EventRegistry) Create(ctx context.Context, in CreateEventInput) (model.Event, []model.Area, error) {
	if err := in.validate(); err != nil {
		return model.Event{}, nil, fmt.Errorf("createEvent: %w", err)
	}

	e := model.Event{
		Name:                   strings.TrimSpace(in.Name),
		Location:               strings.TrimSpace(in.Location),
		StartTime:              in.StartTime.UTC(),
		Organizer:              strings.TrimSpace(in.Organizer),
		OrganizerFeePercentage: uint8(in.OrganizerFeePercentage),
		TotalAreas:             uint64(len(in.AreaNames)),
	}

	areas := make([]model.Area, 0, len(in.AreaNames))
	for i := range in.AreaNames {
		areas = append(areas, model.Area{
			AreaID: uint64(i + 1),
			Name:   strings.TrimSpace(in.AreaNames[i]),
			Price:  in.AreaPrices[i],
			Quota:  in.AreaQuotas[i],
		})
	}

	id, err := r.store.CreateEvent(ctx, e, areas)
	if err != nil {
		return model.Event{}, nil, fmt.Errorf("createEvent: error storing event: %w", err)
	}

	e.EventID = id
	for i := range areas {
		areas[i].EventID = id
	}
	return e, areas, nil
}

func (r *EventRegistry) Event(ctx context.Context, eventID uint64) (model.Event, error) {
	e, err := r.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, fmt.Errorf("getEvent: %w", err)
	}
	return e, nil
}

func (r *EventRegistry) Area(ctx context.Context, eventID, areaID uint64) (model.Area, error) {
	a, err := r.store.GetArea(ctx, eventID, areaID)
	if err != nil {
		return model.Area{}, fmt.Errorf("getArea: %w", err)
	}
	return a, nil
}

func (r *EventRegistry) Areas(ctx context.Context, eventID uint64) ([]model.Area, error) {
	if _, err := r.Event(ctx, eventID); err != nil {
		return nil, err
	}
	areas, err := r.store.Areas(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("areas: %w", err)
	}
	return areas, nil
}

// List returns every event from id 1 up to the next unallocated id, skipping
// ids left unused by aborted units.
func (r *EventRegistry) List(ctx context.Context) ([]model.Event, error) {
	next, err := r.store.NextEventID(ctx)
	if err != nil {
		return nil, fmt.Errorf("listEvents: %w", err)
	}

	events := make([]model.Event, 0, next)
	for id := uint64(1); id < next; id++ {
		e, err := r.store.GetEvent(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("listEvents: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

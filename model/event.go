package model

import (
	"time"
)

// Event is immutable after creation except for the Cancelled and Completed flags.
type Event struct {
	EventID                uint64    `json:"event_id"`
	Name                   string    `json:"name"`
	Location               string    `json:"location"`
	StartTime              time.Time `json:"start_time"`
	Organizer              string    `json:"organizer"`
	OrganizerFeePercentage uint8     `json:"organizer_fee_percentage"`
	Cancelled              bool      `json:"cancelled"`
	Completed              bool      `json:"completed"`
	TotalAreas             uint64    `json:"total_areas"`
}

// Area is a priced, quota-bounded ticket category of one event. AreaID starts at 1.
type Area struct {
	EventID     uint64 `json:"event_id"`
	AreaID      uint64 `json:"area_id"`
	Name        string `json:"name"`
	Price       uint64 `json:"price"`
	Quota       uint64 `json:"quota"`
	SoldTickets uint64 `json:"sold_tickets"`
}

// Remaining is the number of tickets still available in the area.
func (a Area) Remaining() uint64 {
	if a.SoldTickets >= a.Quota {
		return 0
	}
	return a.Quota - a.SoldTickets
}

type EventWithAreas struct {
	Event Event  `json:"event"`
	Areas []Area `json:"areas"`
}

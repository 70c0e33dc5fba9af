package ledger

import (
	"context"
	"fmt"
	"math/bits"
	"strings"

	"ticket-marketplace-backend/clock"
	"ticket-marketplace-backend/logger"
	"ticket-marketplace-backend/model"
)

// Config fixes the platform ledger at deployment.
type Config struct {
	Name          string
	Symbol        string
	FeePercentage int
	Recipient     string
	// Marketplace is the operator principal approved on offered tickets.
	Marketplace string
	// Admins may create events in addition to Recipient.
	Admins []string
	// AmountFactor is the number of base units in one whole currency unit.
	// It is reported to clients only; amounts are always base units.
	AmountFactor uint64
	// MaxTicketsPerPurchase bounds one primary sale, which runs under the
	// store's write lock. Zero means DefaultMaxTicketsPerPurchase.
	MaxTicketsPerPurchase uint64
}

const (
	DefaultMaxTicketsPerPurchase = 100
	// MaxTicketsPerPurchaseLimit is the highest bound a deployment may configure.
	MaxTicketsPerPurchaseLimit = 1000
)

type Option func(*Marketplace)

func WithClock(c clock.Clock) Option {
	return func(m *Marketplace) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithAccountCheck installs the check every payout recipient must pass.
func WithAccountCheck(check AccountCheck) Option {
	return func(m *Marketplace) {
		if check != nil {
			m.check = check
		}
	}
}

// Marketplace runs every externally triggered operation as one unit of the
// store. It is the only entry point callers outside this package should use.
type Marketplace struct {
	store    Store
	clock    clock.Clock
	check    AccountCheck
	platform model.Platform
	admins   map[string]bool
	maxBuy   uint64

	registry *EventRegistry
	tickets  *TicketLedger
	splitter *PaymentSplitter
	resale   *ResaleMarket
}

func New(store Store, cfg Config, opts ...Option) (*Marketplace, error) {
	if store == nil {
		return nil, fmt.Errorf("new: store is required")
	}
	if cfg.FeePercentage < 0 || cfg.FeePercentage > 100 {
		return nil, fmt.Errorf("new: platform fee percentage %d out of range: %w", cfg.FeePercentage, ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.Recipient) == "" {
		return nil, fmt.Errorf("new: platform recipient is required: %w", ErrInvalidInput)
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = "marketplace"
	}
	if cfg.MaxTicketsPerPurchase == 0 {
		cfg.MaxTicketsPerPurchase = DefaultMaxTicketsPerPurchase
	}
	if cfg.MaxTicketsPerPurchase > MaxTicketsPerPurchaseLimit {
		return nil, fmt.Errorf("new: max tickets per purchase %d above %d: %w", cfg.MaxTicketsPerPurchase, MaxTicketsPerPurchaseLimit, ErrInvalidInput)
	}

	m := &Marketplace{
		store: store,
		clock: clock.NewSystem(),
		check: nonEmptyPrincipal,
		platform: model.Platform{
			Name:          cfg.Name,
			Symbol:        cfg.Symbol,
			FeePercentage: uint8(cfg.FeePercentage),
			Recipient:     cfg.Recipient,
			Marketplace:   cfg.Marketplace,
			AmountFactor:  cfg.AmountFactor,
		},
		admins: map[string]bool{cfg.Recipient: true},
		maxBuy: cfg.MaxTicketsPerPurchase,
	}
	for _, a := range cfg.Admins {
		if a = strings.TrimSpace(a); a != "" {
			m.admins[a] = true
		}
	}
	for _, opt := range opts {
		opt(m)
	}

	m.registry = NewEventRegistry(store)
	m.tickets = NewTicketLedger(store)
	m.splitter = NewPaymentSplitter(store, m.check)
	m.resale = &ResaleMarket{
		registry:          m.registry,
		tickets:           m.tickets,
		splitter:          m.splitter,
		log:               store,
		clock:             m.clock,
		platformFee:       m.platform.FeePercentage,
		platformRecipient: m.platform.Recipient,
		operator:          m.platform.Marketplace,
	}
	return m, nil
}

func (m *Marketplace) Platform(ctx context.Context) (model.Platform, error) {
	next, err := m.store.NextEventID(ctx)
	if err != nil {
		return model.Platform{}, fmt.Errorf("platform: %w", err)
	}
	p := m.platform
	p.NextEventID = next
	return p, nil
}

// CreateEvent registers an event with its areas. Only the platform owner and
// configured admins may create events.
func (m *Marketplace) CreateEvent(ctx context.Context, caller string, in CreateEventInput) (model.EventWithAreas, error) {
	if !m.admins[caller] {
		return model.EventWithAreas{}, fmt.Errorf("createEvent: %q may not create events: %w", caller, ErrUnauthorized)
	}

	var out model.EventWithAreas
	err := m.store.WithTx(ctx, func(ctx context.Context) error {
		e, areas, err := m.registry.Create(ctx, in)
		if err != nil {
			return err
		}
		out = model.EventWithAreas{Event: e, Areas: areas}
		return nil
	})
	if err != nil {
		return model.EventWithAreas{}, err
	}

	logger.Infof(ctx, "createEvent: event %d %q created by %s with %d area(s)", out.Event.EventID, out.Event.Name, caller, len(out.Areas))
	return out, nil
}

func (m *Marketplace) GetEvent(ctx context.Context, eventID uint64) (model.EventWithAreas, error) {
	var out model.EventWithAreas
	err := m.store.WithTx(ctx, func(ctx context.Context) error {
		e, err := m.registry.Event(ctx, eventID)
		if err != nil {
			return err
		}
		areas, err := m.registry.Areas(ctx, eventID)
		if err != nil {
			return err
		}
		out = model.EventWithAreas{Event: e, Areas: areas}
		return nil
	})
	return out, err
}

func (m *Marketplace) GetArea(ctx context.Context, eventID, areaID uint64) (model.Area, error) {
	return m.registry.Area(ctx, eventID, areaID)
}

func (m *Marketplace) ListEvents(ctx context.Context) ([]model.Event, error) {
	return m.registry.List(ctx)
}

// ValidatePurchase judges caller-supplied facts against the organizer stored
// for eventID. Like the pure predicate it never fails for ineligible facts,
// only for an unknown event.
func (m *Marketplace) ValidatePurchase(ctx context.Context, eventID uint64, facts PurchaseFacts) (bool, error) {
	e, err := m.registry.Event(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("validatePurchase: %w", err)
	}
	return ValidatePurchase(facts, e.Organizer, m.clock.Now()), nil
}

type BuyTicketInput struct {
	// Valid is the caller's earlier ValidatePurchase result. It can only
	// veto: every fact is checked again against live state.
	Valid     bool
	Amount    uint64
	EventID   uint64
	AreaID    uint64
	Organizer string
	Price     uint64
	URI       string
	Payment   uint64
}

// BuyTicketFromOrganizer is the primary sale: it mints Amount tickets to the
// caller, pays the platform fee and the organizer, and bumps the area count.
func (m *Marketplace) BuyTicketFromOrganizer(ctx context.Context, caller string, in BuyTicketInput) (model.Receipt, error) {
	if caller == "" {
		return model.Receipt{}, fmt.Errorf("buyTicketFromOrganizer: buyer is required: %w", ErrUnauthorized)
	}
	if in.Amount < 1 {
		return model.Receipt{}, fmt.Errorf("buyTicketFromOrganizer: amount must be at least 1: %w", ErrInvalidInput)
	}
	if in.Amount > m.maxBuy {
		return model.Receipt{}, fmt.Errorf("buyTicketFromOrganizer: amount %d above the limit of %d per purchase: %w", in.Amount, m.maxBuy, ErrInvalidInput)
	}

	var receipt model.Receipt
	err := m.store.WithTx(ctx, func(ctx context.Context) error {
		e, err := m.registry.Event(ctx, in.EventID)
		if err != nil {
			return fmt.Errorf("buyTicketFromOrganizer: %w", err)
		}
		a, err := m.registry.Area(ctx, in.EventID, in.AreaID)
		if err != nil {
			return fmt.Errorf("buyTicketFromOrganizer: %w", err)
		}

		live := PurchaseFacts{
			Amount:      in.Amount,
			Organizer:   in.Organizer,
			Quota:       a.Quota,
			StartTime:   e.StartTime,
			SoldTickets: a.SoldTickets,
			Cancelled:   e.Cancelled,
			Completed:   e.Completed,
		}
		if err := checkPurchase(live, e.Organizer, m.clock.Now()); err != nil {
			return fmt.Errorf("buyTicketFromOrganizer: event %d area %d: %w", e.EventID, a.AreaID, err)
		}
		if !in.Valid {
			return fmt.Errorf("buyTicketFromOrganizer: purchase was reported invalid: %w", ErrEventIneligible)
		}
		if in.Price != a.Price {
			return fmt.Errorf("buyTicketFromOrganizer: price %d does not match area price %d: %w", in.Price, a.Price, ErrWrongAmount)
		}
		hi, total := bits.Mul64(a.Price, in.Amount)
		if hi != 0 || in.Payment != total {
			return fmt.Errorf("buyTicketFromOrganizer: payment %d does not equal %d x %d: %w", in.Payment, in.Amount, a.Price, ErrWrongAmount)
		}

		shares, err := Split(a.Price, m.platform.FeePercentage, 0)
		if err != nil {
			return fmt.Errorf("buyTicketFromOrganizer: %w", err)
		}

		if err := m.store.AddSoldTickets(ctx, e.EventID, a.AreaID, in.Amount); err != nil {
			return fmt.Errorf("buyTicketFromOrganizer: %w", err)
		}

		now := m.clock.Now()
		for i := uint64(0); i < in.Amount; i++ {
			t, err := m.tickets.Mint(ctx, e.EventID, a.AreaID, caller, a.Price, in.URI)
			if err != nil {
				return fmt.Errorf("buyTicketFromOrganizer: %w", err)
			}
			payouts, err := m.splitter.Disburse(ctx, t.TicketID, primaryLegs(shares, m.platform.Recipient, e.Organizer))
			if err != nil {
				return fmt.Errorf("buyTicketFromOrganizer: %w", err)
			}
			_, err = m.store.AppendNotification(ctx, model.Notification{
				Kind:      model.NotificationBought,
				TicketID:  t.TicketID,
				EventID:   t.EventID,
				AreaID:    t.AreaID,
				Principal: caller,
				Price:     t.Price,
				TimesSold: t.TimesSold,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("buyTicketFromOrganizer: error appending notification: %w", err)
			}
			receipt.Tickets = append(receipt.Tickets, t)
			receipt.Payouts = append(receipt.Payouts, payouts...)
		}
		return nil
	})
	if err != nil {
		return model.Receipt{}, err
	}

	logger.Infof(ctx, "buyTicketFromOrganizer: %s bought %d ticket(s) of event %d area %d", caller, in.Amount, in.EventID, in.AreaID)
	return receipt, nil
}

func (m *Marketplace) OfferTicket(ctx context.Context, caller string, ticketID, askPrice uint64) (model.Ticket, error) {
	var t model.Ticket
	err := m.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = m.resale.Offer(ctx, caller, ticketID, askPrice)
		return err
	})
	if err != nil {
		return model.Ticket{}, err
	}

	logger.Infof(ctx, "offerTicket: ticket %d offered by %s for %d", ticketID, caller, askPrice)
	return t, nil
}

func (m *Marketplace) PurchaseTicket(ctx context.Context, caller string, in PurchaseTicketInput) (model.Receipt, error) {
	var receipt model.Receipt
	err := m.store.WithTx(ctx, func(ctx context.Context) error {
		t, payouts, err := m.resale.Purchase(ctx, caller, in)
		if err != nil {
			return err
		}
		receipt = model.Receipt{Tickets: []model.Ticket{t}, Payouts: payouts}
		return nil
	})
	if err != nil {
		return model.Receipt{}, err
	}

	t := receipt.Tickets[0]
	logger.Infof(ctx, "purchaseTicket: ticket %d bought by %s for %d, times sold %d", t.TicketID, caller, t.Price, t.TimesSold)
	return receipt, nil
}

func (m *Marketplace) GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	return m.tickets.Ticket(ctx, ticketID)
}

func (m *Marketplace) OwnerOf(ctx context.Context, ticketID uint64) (string, error) {
	return m.tickets.OwnerOf(ctx, ticketID)
}

// GetApproved returns the operator allowed to transfer the ticket, empty when
// the ticket is not offered.
func (m *Marketplace) GetApproved(ctx context.Context, ticketID uint64) (string, error) {
	t, err := m.tickets.Ticket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return t.Approved, nil
}

func (m *Marketplace) TokenURI(ctx context.Context, ticketID uint64) (string, error) {
	t, err := m.tickets.Ticket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return t.URI, nil
}

func (m *Marketplace) BalanceOf(ctx context.Context, principal string) (model.Balance, error) {
	amount, err := m.store.Balance(ctx, principal)
	if err != nil {
		return model.Balance{}, fmt.Errorf("balanceOf: %w", err)
	}
	return model.Balance{Principal: principal, Amount: amount}, nil
}

func (m *Marketplace) Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("notifications: limit must be positive: %w", ErrInvalidInput)
	}
	ns, err := m.store.Notifications(ctx, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	return ns, nil
}

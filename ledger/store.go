package ledger

import (
	"context"

	"ticket-marketplace-backend/model"
)

// EventStore persists events and their areas.
type EventStore interface {
	CreateEvent(ctx context.Context, e model.Event, areas []model.Area) (uint64, error)
	NextEventID(ctx context.Context) (uint64, error)
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	GetArea(ctx context.Context, eventID, areaID uint64) (model.Area, error)
	Areas(ctx context.Context, eventID uint64) ([]model.Area, error)
	// AddSoldTickets must fail with ErrQuotaExceeded instead of letting
	// sold tickets pass the area quota.
	AddSoldTickets(ctx context.Context, eventID, areaID, n uint64) error
}

// TicketStore persists tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, t model.Ticket) (uint64, error)
	GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error)
	UpdateTicket(ctx context.Context, t model.Ticket) error
}

// PayoutStore records the credited legs of every sale.
type PayoutStore interface {
	CreditPayout(ctx context.Context, p model.Payout) (uint64, error)
	Balance(ctx context.Context, principal string) (uint64, error)
}

// NotificationLog is the append-only log external indexers replay.
type NotificationLog interface {
	AppendNotification(ctx context.Context, n model.Notification) (uint64, error)
	Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error)
}

// Store is the whole ledger state. Reads made with a context returned by
// WithTx observe and lock live state for the rest of the unit; if fn returns
// an error nothing it did is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	EventStore
	TicketStore
	PayoutStore
	NotificationLog
}

package ledger

import (
	"context"
	"fmt"

	"ticket-marketplace-backend/model"
)

// TicketLedger owns tickets and their ownership. Transfer is the only way an
// owner changes.
type TicketLedger struct {
	store TicketStore
}

func NewTicketLedger(store TicketStore) *TicketLedger {
	return &TicketLedger{store: store}
}

// Mint issues a new ticket to owner. Only a primary sale calls it.
func (l *TicketLedger) Mint(ctx context.Context, eventID, areaID uint64, owner string, price uint64, uri string) (model.Ticket, error) {
	t := model.Ticket{
		EventID:   eventID,
		AreaID:    areaID,
		Owner:     owner,
		Price:     price,
		TimesSold: 1,
		URI:       uri,
	}

	id, err := l.store.CreateTicket(ctx, t)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("mint: error storing ticket: %w", err)
	}
	t.TicketID = id
	return t, nil
}

// Transfer moves an offered ticket from its current owner to the buyer.
func (l *TicketLedger) Transfer(ctx context.Context, ticketID uint64, from, to string) (model.Ticket, error) {
	t, err := l.Ticket(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.Owner != from {
		return model.Ticket{}, fmt.Errorf("transfer: %q is not the owner of ticket %d: %w", from, ticketID, ErrUnauthorized)
	}
	if !t.Offered {
		return model.Ticket{}, fmt.Errorf("transfer: ticket %d: %w", ticketID, ErrNotOffered)
	}

	t.Owner = to
	t.TimesSold++
	t.Offered = false
	t.Approved = ""

	if err := l.store.UpdateTicket(ctx, t); err != nil {
		return model.Ticket{}, fmt.Errorf("transfer: error updating ticket %d: %w", ticketID, err)
	}
	return t, nil
}

func (l *TicketLedger) Ticket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	t, err := l.store.GetTicket(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("getTicket: %w", err)
	}
	return t, nil
}

func (l *TicketLedger) OwnerOf(ctx context.Context, ticketID uint64) (string, error) {
	t, err := l.Ticket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return t.Owner, nil
}

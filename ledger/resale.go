package ledger

import (
	"context"
	"fmt"

	"ticket-marketplace-backend/clock"
	"ticket-marketplace-backend/model"
)

type PurchaseTicketInput struct {
	TicketID               uint64
	URI                    string
	OrganizerFeePercentage int
	Organizer              string
	Payment                uint64
}

// ResaleMarket lists tickets for resale and settles purchases from holders.
type ResaleMarket struct {
	registry *EventRegistry
	tickets  *TicketLedger
	splitter *PaymentSplitter
	log      NotificationLog
	clock    clock.Clock

	platformFee       uint8
	platformRecipient string
	operator          string
}

// Offer lists an owned ticket at askPrice and approves the marketplace as its operator.
func (m *ResaleMarket) Offer(ctx context.Context, caller string, ticketID, askPrice uint64) (model.Ticket, error) {
	t, err := m.tickets.Ticket(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("offerTicket: %w", err)
	}
	if caller == "" || t.Owner != caller {
		return model.Ticket{}, fmt.Errorf("offerTicket: %q is not the owner of ticket %d: %w", caller, ticketID, ErrUnauthorized)
	}
	if t.Offered {
		return model.Ticket{}, fmt.Errorf("offerTicket: ticket %d: %w", ticketID, ErrAlreadyOffered)
	}

	t.Price = askPrice
	t.Offered = true
	t.Approved = m.operator
	if err := m.tickets.store.UpdateTicket(ctx, t); err != nil {
		return model.Ticket{}, fmt.Errorf("offerTicket: error updating ticket %d: %w", ticketID, err)
	}

	_, err = m.log.AppendNotification(ctx, model.Notification{
		Kind:      model.NotificationOffered,
		TicketID:  t.TicketID,
		EventID:   t.EventID,
		AreaID:    t.AreaID,
		Principal: caller,
		Price:     askPrice,
		TimesSold: t.TimesSold,
		CreatedAt: m.clock.Now(),
	})
	if err != nil {
		return model.Ticket{}, fmt.Errorf("offerTicket: error appending notification: %w", err)
	}
	return t, nil
}

// Purchase buys an offered ticket from its holder for exactly the listed price.
func (m *ResaleMarket) Purchase(ctx context.Context, buyer string, in PurchaseTicketInput) (model.Ticket, []model.Payout, error) {
	if buyer == "" {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: buyer is required: %w", ErrUnauthorized)
	}
	if in.OrganizerFeePercentage < 0 || in.OrganizerFeePercentage > 100 {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: organizer fee percentage %d out of range: %w", in.OrganizerFeePercentage, ErrInvalidInput)
	}

	t, err := m.tickets.Ticket(ctx, in.TicketID)
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %w", err)
	}
	if !t.Offered {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: ticket %d: %w", in.TicketID, ErrNotOffered)
	}
	if in.Payment != t.Price {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: payment %d does not equal price %d: %w", in.Payment, t.Price, ErrWrongAmount)
	}

	e, err := m.registry.Event(ctx, t.EventID)
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %w", err)
	}
	if in.Organizer != e.Organizer {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %q is not the organizer of event %d: %w", in.Organizer, e.EventID, ErrUnauthorized)
	}
	if uint8(in.OrganizerFeePercentage) != e.OrganizerFeePercentage {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: organizer fee %d%% differs from event fee %d%%: %w",
			in.OrganizerFeePercentage, e.OrganizerFeePercentage, ErrInvalidInput)
	}

	shares, err := Split(t.Price, m.platformFee, uint8(in.OrganizerFeePercentage))
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %w", err)
	}

	seller := t.Owner
	t, err = m.tickets.Transfer(ctx, t.TicketID, seller, buyer)
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %w", err)
	}
	if in.URI != "" && in.URI != t.URI {
		t.URI = in.URI
		if err := m.tickets.store.UpdateTicket(ctx, t); err != nil {
			return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: error updating uri of ticket %d: %w", t.TicketID, err)
		}
	}

	payouts, err := m.splitter.Disburse(ctx, t.TicketID, resaleLegs(shares, m.platformRecipient, e.Organizer, seller))
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: %w", err)
	}

	_, err = m.log.AppendNotification(ctx, model.Notification{
		Kind:      model.NotificationBought,
		TicketID:  t.TicketID,
		EventID:   t.EventID,
		AreaID:    t.AreaID,
		Principal: buyer,
		Price:     t.Price,
		TimesSold: t.TimesSold,
		CreatedAt: m.clock.Now(),
	})
	if err != nil {
		return model.Ticket{}, nil, fmt.Errorf("purchaseTicket: error appending notification: %w", err)
	}
	return t, payouts, nil
}

package ledger

import (
	"context"
	"fmt"
	"math/bits"

	"ticket-marketplace-backend/model"
)

// Shares is the three-way division of a sale price.
type Shares struct {
	Platform  uint64
	Organizer uint64
	Seller    uint64
}

// Total is always the price the shares were computed from.
func (s Shares) Total() uint64 {
	return s.Platform + s.Organizer + s.Seller
}

// Split divides price between platform, organizer and seller. Both fees are
// truncated toward zero and the seller receives the remainder.
func Split(price uint64, platformPct, organizerPct uint8) (Shares, error) {
	if uint(platformPct)+uint(organizerPct) > 100 {
		return Shares{}, fmt.Errorf("split: fees %d%% + %d%% exceed 100%%: %w", platformPct, organizerPct, ErrInvalidInput)
	}

	platform := percentOf(price, platformPct)
	organizer := percentOf(price, organizerPct)
	return Shares{
		Platform:  platform,
		Organizer: organizer,
		Seller:    price - platform - organizer,
	}, nil
}

// percentOf returns price*pct/100 using a 128-bit product.
func percentOf(price uint64, pct uint8) uint64 {
	hi, lo := bits.Mul64(price, uint64(pct))
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

// AccountCheck reports whether a principal can receive funds.
type AccountCheck func(principal string) error

func nonEmptyPrincipal(principal string) error {
	if principal == "" {
		return fmt.Errorf("empty principal")
	}
	return nil
}

// PaymentSplitter credits the legs of a sale. It must run inside the unit
// that mutates ownership so a failed leg aborts the whole sale.
type PaymentSplitter struct {
	store PayoutStore
	check AccountCheck
}

func NewPaymentSplitter(store PayoutStore, check AccountCheck) *PaymentSplitter {
	if check == nil {
		check = nonEmptyPrincipal
	}
	return &PaymentSplitter{store: store, check: check}
}

// Disburse credits every non-zero leg. Legs are checked before any credit.
func (s *PaymentSplitter) Disburse(ctx context.Context, ticketID uint64, legs []model.Payout) ([]model.Payout, error) {
	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		if err := s.check(leg.Recipient); err != nil {
			return nil, fmt.Errorf("disburse: ticket %d: %s recipient %q is unpayable: %v: %w",
				ticketID, leg.Kind, leg.Recipient, err, ErrTransferFailed)
		}
	}

	credited := make([]model.Payout, 0, len(legs))
	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		leg.TicketID = ticketID
		id, err := s.store.CreditPayout(ctx, leg)
		if err != nil {
			return nil, fmt.Errorf("disburse: ticket %d: crediting %s: %v: %w", ticketID, leg.Kind, err, ErrTransferFailed)
		}
		leg.PayoutID = id
		credited = append(credited, leg)
	}
	return credited, nil
}

// primaryLegs pays the organizer everything but the platform fee.
func primaryLegs(s Shares, platform, organizer string) []model.Payout {
	return []model.Payout{
		{Recipient: platform, Amount: s.Platform, Kind: model.PayoutPlatform},
		{Recipient: organizer, Amount: s.Organizer + s.Seller, Kind: model.PayoutOrganizer},
	}
}

func resaleLegs(s Shares, platform, organizer, seller string) []model.Payout {
	return []model.Payout{
		{Recipient: platform, Amount: s.Platform, Kind: model.PayoutPlatform},
		{Recipient: organizer, Amount: s.Organizer, Kind: model.PayoutOrganizer},
		{Recipient: seller, Amount: s.Seller, Kind: model.PayoutSeller},
	}
}

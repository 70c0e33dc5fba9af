package model

import (
	"time"
)

type PayoutKind string

const (
	PayoutPlatform  PayoutKind = "PLATFORM"
	PayoutOrganizer PayoutKind = "ORGANIZER"
	PayoutSeller    PayoutKind = "SELLER"
)

// Payout is one leg of a disbursed sale credited to a principal.
// SettlementTxID stays empty until the relay settles it externally.
type Payout struct {
	PayoutID       uint64     `json:"payout_id"`
	TicketID       uint64     `json:"ticket_id"`
	Recipient      string     `json:"recipient"`
	Amount         uint64     `json:"amount"`
	Kind           PayoutKind `json:"kind"`
	SettlementTxID string     `json:"settlement_tx_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// PendingTxID is a payment already sent for the payout whose outcome is
	// not known yet. It can confirm up to round PendingUntil.
	PendingTxID  string `json:"-"`
	PendingUntil uint64 `json:"-"`
}

// SignedPayment is a payout payment ready to broadcast.
type SignedPayment struct {
	PayoutID  uint64
	TxID      string
	LastValid uint64
	Raw       []byte
}

// PaymentState is what became of a sent payment.
type PaymentState int

const (
	// PaymentPending may still confirm.
	PaymentPending PaymentState = iota
	PaymentConfirmed
	// PaymentDropped can no longer confirm; paying again is safe.
	PaymentDropped
)

type NotificationKind string

const (
	NotificationBought  NotificationKind = "BOUGHT"
	NotificationOffered NotificationKind = "OFFERED"
)

// Notification is an entry of the append-only log. Principal is the buyer for
// BOUGHT and the seller for OFFERED.
type Notification struct {
	Seq       uint64           `json:"seq"`
	Kind      NotificationKind `json:"kind"`
	TicketID  uint64           `json:"ticket_id"`
	EventID   uint64           `json:"event_id"`
	AreaID    uint64           `json:"area_id"`
	Principal string           `json:"principal"`
	Price     uint64           `json:"price"`
	TimesSold uint64           `json:"times_sold"`
	Published bool             `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
}

// Platform describes the marketplace operator, fixed at deployment.
type Platform struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	FeePercentage uint8  `json:"fee_percentage"`
	Recipient     string `json:"recipient"`
	Marketplace   string `json:"marketplace"`
	NextEventID   uint64 `json:"next_event_id"`
	AmountFactor  uint64 `json:"amount_factor,omitempty"`
}

type Balance struct {
	Principal string `json:"principal"`
	Amount    uint64 `json:"amount"`
}

// Receipt is what a committed sale produced.
type Receipt struct {
	Tickets []Ticket `json:"tickets"`
	Payouts []Payout `json:"payouts"`
}

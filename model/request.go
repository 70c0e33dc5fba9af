package model

import (
	"time"
)

type CreateEvent struct {
	Name                   string    `json:"name" validate:"required"`
	StartTime              time.Time `json:"start_time" validate:"required"`
	Location               string    `json:"location"`
	Organizer              string    `json:"organizer" validate:"required"`
	OrganizerFeePercentage int       `json:"organizer_fee_percentage" validate:"gte=0,lte=100"`
	AreaNames              []string  `json:"area_names" validate:"required,min=1"`
	AreaPrices             []uint64  `json:"area_prices" validate:"required,min=1"`
	AreaQuotas             []uint64  `json:"area_quotas" validate:"required,min=1"`
}

type CreateEventRequest struct {
	Data struct {
		Event *CreateEvent `json:"event,omitempty" validate:"required"`
	} `json:"data"`
}

// PurchaseCheck carries the facts a buyer wants judged before a primary sale.
type PurchaseCheck struct {
	Amount      uint64    `json:"amount"`
	Organizer   string    `json:"organizer"`
	Quota       uint64    `json:"quota"`
	StartTime   time.Time `json:"start_time"`
	SoldTickets uint64    `json:"sold_tickets"`
	Cancelled   bool      `json:"cancelled"`
	Completed   bool      `json:"completed"`
}

type ValidatePurchaseRequest struct {
	Data struct {
		Purchase *PurchaseCheck `json:"purchase,omitempty" validate:"required"`
	} `json:"data"`
}

type BuyTicket struct {
	Valid     bool   `json:"valid"`
	Amount    uint64 `json:"amount" validate:"gte=1,lte=1000"`
	Organizer string `json:"organizer" validate:"required"`
	Price     uint64 `json:"price"`
	URI       string `json:"uri"`
	Payment   uint64 `json:"payment"`
}

type BuyTicketRequest struct {
	Data struct {
		Purchase *BuyTicket `json:"purchase,omitempty" validate:"required"`
	} `json:"data"`
}

type OfferTicket struct {
	AskPrice uint64 `json:"ask_price"`
}

type OfferTicketRequest struct {
	Data struct {
		Offer *OfferTicket `json:"offer,omitempty" validate:"required"`
	} `json:"data"`
}

type PurchaseTicket struct {
	URI                    string `json:"uri"`
	OrganizerFeePercentage int    `json:"organizer_fee_percentage" validate:"gte=0,lte=100"`
	Organizer              string `json:"organizer" validate:"required"`
	Payment                uint64 `json:"payment"`
}

type PurchaseTicketRequest struct {
	Data struct {
		Purchase *PurchaseTicket `json:"purchase,omitempty" validate:"required"`
	} `json:"data"`
}

// TicketView is a ticket with its metadata reference and approved operator.
type TicketView struct {
	Ticket   Ticket `json:"ticket"`
	TokenURI string `json:"token_uri"`
	Approved string `json:"approved"`
}

type Owner struct {
	TicketID uint64 `json:"ticket_id"`
	Owner    string `json:"owner"`
}

type Eligibility struct {
	EventID uint64 `json:"event_id"`
	Valid   bool   `json:"valid"`
}

// Sources of an Availability.
const (
	SourceCache  = "cache"
	SourceLedger = "ledger"
)

type Availability struct {
	EventID     uint64 `json:"event_id"`
	AreaID      uint64 `json:"area_id"`
	Quota       uint64 `json:"quota"`
	SoldTickets uint64 `json:"sold_tickets"`
	Remaining   uint64 `json:"remaining"`
	Source      string `json:"source"`
}

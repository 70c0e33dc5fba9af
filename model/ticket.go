package model

// Ticket is minted once per unit of a primary sale and never destroyed.
// Owner only changes through a completed sale.
type Ticket struct {
	TicketID  uint64 `json:"ticket_id"`
	EventID   uint64 `json:"event_id"`
	AreaID    uint64 `json:"area_id"`
	Owner     string `json:"owner"`
	Price     uint64 `json:"price"`
	TimesSold uint64 `json:"times_sold"`
	Used      bool   `json:"used"`
	Offered   bool   `json:"offered"`
	URI       string `json:"uri"`
	// Approved is the operator allowed to transfer the ticket; set while offered.
	Approved string `json:"approved,omitempty"`
}

package ledger

import (
	"fmt"
	"time"
)

// PurchaseFacts are the event and area facts a primary purchase is judged on.
type PurchaseFacts struct {
	Amount      uint64
	Organizer   string
	Quota       uint64
	StartTime   time.Time
	SoldTickets uint64
	Cancelled   bool
	Completed   bool
}

// ValidatePurchase reports whether a primary purchase described by facts is
// allowed at now. recordedOrganizer is the organizer stored for the event the
// facts claim to describe. It never mutates anything; a false result must
// stop the caller before any state change.
func ValidatePurchase(facts PurchaseFacts, recordedOrganizer string, now time.Time) bool {
	return checkPurchase(facts, recordedOrganizer, now) == nil
}

// checkPurchase is ValidatePurchase with the reason for ineligibility.
func checkPurchase(facts PurchaseFacts, recordedOrganizer string, now time.Time) error {
	if facts.Amount < 1 {
		return fmt.Errorf("amount must be at least 1: %w", ErrInvalidInput)
	}
	if facts.Organizer == "" || facts.Organizer != recordedOrganizer {
		return fmt.Errorf("organizer %q does not match event organizer: %w", facts.Organizer, ErrUnauthorized)
	}
	if facts.Cancelled {
		return fmt.Errorf("event is cancelled: %w", ErrEventIneligible)
	}
	if facts.Completed {
		return fmt.Errorf("event is completed: %w", ErrEventIneligible)
	}
	if !now.Before(facts.StartTime) {
		return fmt.Errorf("event started at %s: %w", facts.StartTime.Format(time.RFC3339), ErrEventIneligible)
	}
	if facts.SoldTickets > facts.Quota || facts.Amount > facts.Quota-facts.SoldTickets {
		return fmt.Errorf("%d requested, %d of %d sold: %w", facts.Amount, facts.SoldTickets, facts.Quota, ErrQuotaExceeded)
	}
	return nil
}

package ledger

import "errors"

// Error kinds surfaced by every ledger operation. Callers match them with
// errors.Is; the ledger wraps them with the operation name and detail.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrEventIneligible = errors.New("event ineligible")
	ErrAlreadyOffered  = errors.New("ticket already offered")
	ErrNotOffered      = errors.New("ticket not offered")
	ErrWrongAmount     = errors.New("wrong amount")
	ErrTransferFailed  = errors.New("transfer failed")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

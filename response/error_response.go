package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/logger"
)

type ErrorResponse struct {
	StatusCode  int    `json:"-"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

func (r ErrorResponse) Error() string {
	return fmt.Sprintf("StatusCode: %d, Success: %t, Message: %s, Status: %s, Description: %s", r.StatusCode, r.Success, r.Message, r.Status, r.Description)
}

func (r ErrorResponse) Send(ctx context.Context, w http.ResponseWriter) {
	if r.StatusCode >= http.StatusInternalServerError {
		logger.Errorf(ctx, r.Error())
	} else {
		logger.Warnf(ctx, r.Error())
	}
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}

// FromError maps a ledger error kind to the response sent for it.
// Errors that already are an ErrorResponse pass through unchanged.
func FromError(err error) ErrorResponse {
	var res ErrorResponse
	if errors.As(err, &res) {
		return res
	}

	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return InvalidData(err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return ResourceNotFound("Requested resource not found", err.Error())
	case errors.Is(err, ledger.ErrUnauthorized):
		return Forbidden(err.Error())
	case errors.Is(err, ledger.ErrQuotaExceeded):
		return Conflict("QUOTA_EXCEEDED", "Not enough tickets left in this area", err.Error())
	case errors.Is(err, ledger.ErrEventIneligible):
		return Conflict("EVENT_INELIGIBLE", "Tickets of this event can not be bought", err.Error())
	case errors.Is(err, ledger.ErrAlreadyOffered):
		return Conflict("ALREADY_OFFERED", "Ticket is already offered", err.Error())
	case errors.Is(err, ledger.ErrNotOffered):
		return Conflict("NOT_OFFERED", "Ticket is not offered", err.Error())
	case errors.Is(err, ledger.ErrWrongAmount):
		return PaymentMismatch(err.Error())
	case errors.Is(err, ledger.ErrTransferFailed):
		return TransferFailed(err.Error())
	}
	return SomethingWrong()
}

func BadRequest(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     message,
		Status:      "BAD REQUEST",
		Description: description,
	}
}

func ResourceNotFound(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusNotFound,
		Success:     false,
		Message:     message,
		Status:      "NOT FOUND",
		Description: description,
	}
}

func MethodNotAllowed(method, path string) ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusMethodNotAllowed,
		Success:    false,
		Message:    fmt.Sprintf("Method %s is not allowed on %s", method, path),
		Status:     "METHOD_NOT_ALLOWED",
	}
}

func Unauthorized() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Success:    false,
		Message:    "No valid Auth Token",
		Status:     "UNAUTHORISED",
	}
}

func Forbidden(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusForbidden,
		Success:     false,
		Message:     "Caller is not allowed to do this",
		Status:      "FORBIDDEN",
		Description: description,
	}
}

func Conflict(status, message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusConflict,
		Success:     false,
		Message:     message,
		Status:      status,
		Description: description,
	}
}

func PaymentMismatch(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusPaymentRequired,
		Success:     false,
		Message:     "Payment does not match the price",
		Status:      "WRONG_AMOUNT",
		Description: description,
	}
}

func TransferFailed(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadGateway,
		Success:     false,
		Message:     "Payment could not be delivered",
		Status:      "TRANSFER_FAILED",
		Description: description,
	}
}

func SomethingWrong() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Success:    false,
		Message:    "Sorry, Something went wrong",
		Status:     "SOMETHING_WRONG",
	}
}

func InvalidData(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     "Invalid data passed",
		Status:      "INVALID_DATA",
		Description: description,
	}
}

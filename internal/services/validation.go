package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/gigboard/backend/internal/ledger"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// StatusForLedgerError maps ledger error kinds to HTTP status codes.
func StatusForLedgerError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidGigID), errors.Is(err, ledger.ErrNoGigs):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrNotGigOwner):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrTransferFailed), errors.Is(err, ledger.ErrWithdrawalFailed):
		return http.StatusBadGateway
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidID),
		errors.Is(err, ledger.ErrWorkerNotSelected), errors.Is(err, ledger.ErrAlreadyPaid),
		errors.Is(err, ledger.ErrNoBounty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

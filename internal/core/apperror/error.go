// Package apperror provides structured error handling for the inventory core.
// All business failures are surfaced as typed AppError values; nothing is
// silently downgraded to a no-op.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidQuantity = "INVALID_QUANTITY"

	// Business rule violations (422)
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeEmptyRequisition        = "EMPTY_REQUISITION"
	CodeMissingOrderReference   = "MISSING_ORDER_REFERENCE"
	CodeInvalidRequisitionState = "INVALID_REQUISITION_STATE"
	CodeRequisitionCancelled    = "REQUISITION_CANCELLED"
	CodeInvalidTransferState    = "INVALID_TRANSFER_STATE"
	CodeBalanceOutOfSync        = "BALANCE_OUT_OF_SYNC"
	CodeConcurrentModification  = "CONCURRENT_MODIFICATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for
// transport-layer responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity is returned when a quantity is zero or negative where a
// positive quantity is required.
func NewInvalidQuantity(field string, value any) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "Quantity must be positive",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock is returned when active lots cannot cover a requested
// consumption. No state is mutated when this error is raised.
func NewInsufficientStock(storeItemID string, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"store_item_id": storeItemID,
			"requested":     requested,
			"available":     available,
		},
	}
}

// NewEmptyRequisition is returned when a requisition is created without lines.
func NewEmptyRequisition() *AppError {
	return &AppError{
		Code:       CodeEmptyRequisition,
		Message:    "Requisition must contain at least one line",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingOrderReference is returned when a receipt lacks the supplier-side
// order number. The reference is the sole link between the internal
// requisition and the external purchase, so this is a hard precondition.
func NewMissingOrderReference() *AppError {
	return &AppError{
		Code:       CodeMissingOrderReference,
		Message:    "Order reference is required for receiving",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequisitionState is returned when a lifecycle call is illegal in
// the requisition's current state.
func NewInvalidRequisitionState(current, operation string) *AppError {
	return &AppError{
		Code:       CodeInvalidRequisitionState,
		Message:    fmt.Sprintf("Requisition in state %q does not allow %s", current, operation),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"status": current, "operation": operation},
	}
}

// NewRequisitionCancelled is returned when receiving against a cancelled
// requisition.
func NewRequisitionCancelled(number string) *AppError {
	return &AppError{
		Code:       CodeRequisitionCancelled,
		Message:    "Requisition is cancelled",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"number": number},
	}
}

// NewInvalidTransferState is returned when a transfer lifecycle call is
// illegal in the transfer's current state.
func NewInvalidTransferState(current, operation string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransferState,
		Message:    fmt.Sprintf("Transfer in state %q does not allow %s", current, operation),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"status": current, "operation": operation},
	}
}

// NewBalanceOutOfSync signals a violated ledger invariant: the cached
// store-item quantity diverged from the sum of its active lots. The enclosing
// transaction must abort.
func NewBalanceOutOfSync(storeItemID string, cached, lots string) *AppError {
	return &AppError{
		Code:       CodeBalanceOutOfSync,
		Message:    "Store-item balance out of sync with lots",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"store_item_id": storeItemID,
			"cached":        cached,
			"lots":          lots,
		},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks whether err carries the given application error code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

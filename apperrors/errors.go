package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application error with an HTTP status code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewNotFound builds a 404 for a missing entity.
func NewNotFound(entity string) *Error {
	return New(http.StatusNotFound, entity+" not found", nil)
}

// NewValidation builds a 400 for malformed or missing input.
func NewValidation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

var (
	ErrEmptyCart         = New(http.StatusBadRequest, "Cart is empty", nil)
	ErrInvalidTransition = New(http.StatusBadRequest, "Invalid order status transition", nil)
	ErrInternalServer    = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrUnauthorized      = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden         = New(http.StatusForbidden, "Forbidden", nil)
)

// ErrOrderNumberConflict marks a unique-constraint violation on the order
// number. Checkout retries it internally with a fresh sequence; it only
// reaches the caller after the retry budget is exhausted.
var ErrOrderNumberConflict = errors.New("order number already exists")

// InsufficientStockError names the exact line that cannot be fulfilled so the
// UI can explain which item is short.
type InsufficientStockError struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	ShadeID     *uint  `json:"shade_id,omitempty"`
	ShadeName   string `json:"shade_name,omitempty"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	if e.ShadeID != nil {
		return fmt.Sprintf("insufficient stock for %q shade %q: available %d, requested %d",
			e.ProductName, e.ShadeName, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// StatusCode returns the HTTP status for err: the embedded code for *Error,
// 400 for stock shortages, 500 otherwise.
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

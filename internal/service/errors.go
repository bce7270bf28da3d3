package service

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found for this event")
	ErrOrderNotFound      = errors.New("order not found")
	ErrSalesClosed        = errors.New("ticket sales are not open")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInsufficientStock  = errors.New("not enough tickets available")
	ErrCurrencyMismatch   = errors.New("order items must share one currency")
	ErrPhoneRequired      = errors.New("buyer phone is required for mobile money")

	// ErrInventoryConflict is the one failure that must never be silent: the
	// provider confirmed the payment but the guarded inventory commit was
	// rejected. The order is flagged for a manual refund.
	ErrInventoryConflict = errors.New("inventory exhausted after payment confirmation")
)

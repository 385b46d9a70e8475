package service

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrItemNotFound        = errors.New("item not found")
	ErrStockNotFound       = errors.New("stock line not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrAlreadyExists    = errors.New("already exists")
	ErrSKUAlreadyExists = errors.New("sku already exists")

	ErrReservationEmpty    = errors.New("reservation items empty")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrDuplicateItem       = errors.New("duplicate item in reservation")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrIdempotencyConflict = errors.New("reservation id reused with different items")
	ErrInvalidState        = errors.New("reservation is not pending")

	// ErrContention — исчерпан лимит CAS-повторов; операция безопасна для
	// полного повтора вызывающей стороной.
	ErrContention = errors.New("too much contention, retry")

	ErrHeldStock = errors.New("cannot delete item with reserved stock")

	ErrAuditWrite = errors.New("audit write failed")
)

package stock

import "errors"

// Typed failures returned by the movement ledger. Conflict is retryable with
// fresh reads; the rest indicate caller error or current-data business rules.
var (
	ErrInvalidType       = errors.New("invalid movement type")
	ErrInvalidQuantity   = errors.New("movement quantity must not be zero")
	ErrPartNotFound      = errors.New("part not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("part quantity changed concurrently")
	ErrNotPending        = errors.New("movement is not pending approval")
)

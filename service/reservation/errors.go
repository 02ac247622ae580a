package reservation

import "errors"

var (
	ErrBudgetNotFound        = errors.New("budget not found")
	ErrBudgetNotApproved     = errors.New("budget is not approved")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrAlreadyTerminal       = errors.New("reservation is in a terminal state")
	ErrInvalidQuantity       = errors.New("invalid reservation quantity")
	ErrInsufficientSeparated = errors.New("separated quantity is insufficient")
)

package count

import "errors"

var (
	ErrCountNotFound    = errors.New("inventory count not found")
	ErrInvalidCountType = errors.New("invalid inventory count type")
	ErrEmptySnapshot    = errors.New("no parts match the count filters")
	ErrNotDraft         = errors.New("inventory count is not a draft")
	ErrNotInProgress    = errors.New("inventory count is not in progress")
	ErrAlreadyProcessed = errors.New("inventory count was already processed")
	ErrInvalidCounted   = errors.New("counted quantity must not be negative")
)

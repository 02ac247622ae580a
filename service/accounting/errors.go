package accounting

import "errors"

var (
	ErrEntryNotFound   = errors.New("accounting entry not found")
	ErrNotDraft        = errors.New("accounting entry is not a draft")
	ErrNotPosted       = errors.New("accounting entry is not posted")
	ErrAlreadyReversed = errors.New("accounting entry was already reversed")
)

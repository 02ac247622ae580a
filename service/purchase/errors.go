package purchase

import "errors"

var (
	ErrNeedNotFound      = errors.New("purchase need not found")
	ErrInvalidStatus     = errors.New("unknown purchase need status")
	ErrInvalidTransition = errors.New("purchase need status can only move forward")
)

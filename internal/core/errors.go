package core

import "errors"

var (
	ErrNotFound           = errors.New("event not found")
	ErrEndBeforeStart     = errors.New("event ends before it starts")
	ErrInvalidDraft       = errors.New("invalid event draft")
	ErrInvalidRepeat      = errors.New("invalid repeat rule")
	ErrReadOnlyOccurrence = errors.New("only the first occurrence of a repeating event can be edited")
)

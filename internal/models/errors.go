package models

import "errors"

// Custom errors
var (
	ErrUnresolvedLabel  = errors.New("event label could not be resolved")
	ErrUnsortedSequence = errors.New("events are not strictly ordered by index")
	ErrNotFound         = errors.New("record not found")
)

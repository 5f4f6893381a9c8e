package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var eventValidator = validator.New()

// ValidateSequence checks the preconditions every windowed computation relies on: each event
// has a resolved label and indices are strictly increasing.
func ValidateSequence(events []Event) error {
	for i := range events {
		if err := eventValidator.Struct(events[i]); err != nil {
			if !events[i].Label.Valid() {
				return fmt.Errorf("event %d: %w", events[i].Index, ErrUnresolvedLabel)
			}
			return fmt.Errorf("event %d: %w", events[i].Index, err)
		}
		if i > 0 && events[i].Index <= events[i-1].Index {
			return fmt.Errorf("%w: index %d follows %d", ErrUnsortedSequence, events[i].Index, events[i-1].Index)
		}
	}
	return nil
}

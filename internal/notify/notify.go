// Package notify delivers the failure message of a round to the outside
// world. Every sink satisfies supervisor.Notifier.
package notify

import (
	"errors"
	"fmt"
)

// ErrInvalidRecipient is returned when a sink is configured with an address
// it cannot deliver to.
var ErrInvalidRecipient = errors.New("notify: invalid recipient")

// Sink delivers a single message.
type Sink interface {
	Notify(message string) error
}

// Multi fans a message out to every sink and joins their errors.
type Multi []Sink

// Notify calls every sink, even after one fails.
func (m Multi) Notify(message string) error {
	var errs []error
	for i, s := range m {
		if err := s.Notify(message); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

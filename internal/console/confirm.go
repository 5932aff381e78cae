package console

import (
	"context"
	"errors"
)

// ErrConfirmationUsed is returned when a confirmation is answered twice.
var ErrConfirmationUsed = errors.New("console: confirmation already answered")

// Confirmation is a pending yes/no question. Nothing is sent until Confirm
// is called.
type Confirmation struct {
	Title   string
	Message string

	action   func(context.Context) error
	answered bool
}

// Confirm runs the confirmed action once.
func (c *Confirmation) Confirm(ctx context.Context) error {
	if c.answered {
		return ErrConfirmationUsed
	}
	c.answered = true
	return c.action(ctx)
}

// Cancel dismisses the confirmation.
func (c *Confirmation) Cancel() {
	c.answered = true
}

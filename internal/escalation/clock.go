// Package escalation implements the deadline clock of a single tracked task.
//
// Creating a Clock performs the first transition: it starts in InitialWait
// with a window as long as its budget. Each time the window expires the clock
// escalates one stage and opens a new, shorter window that starts at the
// moment of escalation rather than at the previous deadline.
// After the quarter extension the clock fails and keeps no window.
//
// Clocks are not safe for concurrent use. They are meant to be owned by a
// single goroutine for the lifetime of one round.
package escalation

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBudget is returned by New for a budget that is not positive.
var ErrInvalidBudget = errors.New("escalation: budget must be positive")

// Window is the interval during which the current stage stays valid.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Len returns the window length.
func (w Window) Len() time.Duration {
	return w.To.Sub(w.From)
}

// Clock tracks the stage and active window of one task.
type Clock struct {
	stage  Stage
	budget time.Duration
	window *Window
	now    func() time.Time
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the wall clock used for windows and expiry checks.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// New creates a clock and advances it out of Initiated, leaving it in
// InitialWait with a window of the full budget starting now.
func New(budget time.Duration, opts ...Option) (*Clock, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBudget, budget)
	}
	c := &Clock{
		stage:  Initiated,
		budget: budget,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Advance()
	return c, nil
}

// Stage returns the current stage without checking for expiry.
func (c *Clock) Stage() Stage {
	return c.stage
}

// Budget returns the total budget the clock was created with.
func (c *Clock) Budget() time.Duration {
	return c.budget
}

// Window returns the active window. ok is false once the clock has failed.
func (c *Clock) Window() (w Window, ok bool) {
	if c.window == nil {
		return Window{}, false
	}
	return *c.window, true
}

// Deadline returns the end of the active window. ok is false once the clock
// has failed.
func (c *Clock) Deadline() (deadline time.Time, ok bool) {
	if c.window == nil {
		return time.Time{}, false
	}
	return c.window.To, true
}

// HasExpired reports whether the active window has passed. A failed clock is
// always expired.
func (c *Clock) HasExpired() bool {
	if c.window == nil {
		return true
	}
	return c.now().After(c.window.To)
}

// Advance moves the clock exactly one stage forward. Every stage but Failed
// gets a new window of budget/divisor starting now. Advancing a failed clock
// does nothing.
func (c *Clock) Advance() {
	if c.stage.Terminal() {
		return
	}
	next, divisor, opensWindow := Escalate(c.stage)
	if opensWindow {
		c.open(divisor)
	} else {
		c.window = nil
	}
	c.stage = next
}

// Poll advances the clock once if its window has expired and returns the
// resulting stage. At most one transition happens per call no matter how
// much time has passed.
func (c *Clock) Poll() Stage {
	if c.HasExpired() {
		c.Advance()
	}
	return c.stage
}

func (c *Clock) open(divisor int64) {
	from := c.now()
	c.window = &Window{
		From: from,
		To:   from.Add(c.budget / time.Duration(divisor)),
	}
}

// Package supervisor runs escalation rounds: it polls one escalation clock
// per round at a fixed cadence, consumes acknowledgments, reports every stage
// change to its observers and fires the notifier when a round fails.
package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/escalation"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
)

// ErrInvalidConfig is returned by New for unusable round settings.
var ErrInvalidConfig = errors.New("supervisor: invalid config")

// Config holds the round settings.
type Config struct {
	Rounds       int
	Budget       time.Duration
	PollInterval time.Duration
}

// DefaultConfig returns 19 rounds of 25 minutes polled every 500ms.
func DefaultConfig() Config {
	return Config{
		Rounds:       19,
		Budget:       25 * time.Minute,
		PollInterval: 500 * time.Millisecond,
	}
}

// Validate checks that every round can open a window and that polling is
// finer than the shortest window, budget/4.
func (c Config) Validate() error {
	switch {
	case c.Rounds <= 0:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, c.Rounds)
	case c.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive, got %v", ErrInvalidConfig, c.Budget)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive, got %v", ErrInvalidConfig, c.PollInterval)
	case c.PollInterval >= c.Budget/4:
		return fmt.Errorf("%w: poll interval %v must be shorter than budget/4 (%v)", ErrInvalidConfig, c.PollInterval, c.Budget/4)
	}
	return nil
}

// Notifier receives one message per failed round.
type Notifier interface {
	Notify(message string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string) error

// Notify calls f.
func (f NotifierFunc) Notify(message string) error {
	return f(message)
}

// Observer receives every event synchronously on the supervisor goroutine.
// Implementations must return promptly; slow work belongs on their own
// goroutine.
type Observer interface {
	Observe(models.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(models.Event)

// Observe calls f.
func (f ObserverFunc) Observe(e models.Event) {
	f(e)
}

// Summary counts how the rounds of a Run ended.
type Summary struct {
	Acknowledged int
	Failed       int
}

// Supervisor owns the clock of the current round. Only the acknowledgment
// flag is shared with other goroutines.
type Supervisor struct {
	cfg       Config
	flag      *ack.Flag
	notifier  Notifier
	logger    *logging.Logger
	observers []Observer
	now       func() time.Time
	sleep     func(time.Duration)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithObserver adds an observer. Observers are called in the order added.
func WithObserver(o Observer) Option {
	return func(s *Supervisor) {
		s.observers = append(s.observers, o)
	}
}

// WithClock replaces the wall clock and the sleep between polls.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Supervisor) {
		s.now = now
		s.sleep = sleep
	}
}

// New constructs a Supervisor. notifier may be nil, in which case failed
// rounds are only reported to observers.
func New(cfg Config, flag *ack.Flag, notifier Notifier, logger *logging.Logger, opts ...Option) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, fmt.Errorf("%w: acknowledgment flag is required", ErrInvalidConfig)
	}
	s := &Supervisor{
		cfg:      cfg,
		flag:     flag,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the round settings.
func (s *Supervisor) Config() Config {
	return s.cfg
}

// Run plays every configured round back to back and returns once the last
// one has ended. Rounds cannot be cancelled.
func (s *Supervisor) Run() (Summary, error) {
	var sum Summary
	for n := 1; n <= s.cfg.Rounds; n++ {
		round, err := s.RunRound(n)
		if err != nil {
			return sum, err
		}
		switch round.Outcome {
		case models.OutcomeAcknowledged:
			sum.Acknowledged++
		case models.OutcomeFailed:
			sum.Failed++
		}
	}
	s.logger.Infof("All %d rounds finished: %d acknowledged, %d failed", s.cfg.Rounds, sum.Acknowledged, sum.Failed)
	return sum, nil
}

// RunRound creates a fresh clock and polls it until the round is
// acknowledged or the clock fails.
func (s *Supervisor) RunRound(n int) (models.Round, error) {
	clock, err := escalation.New(s.cfg.Budget, escalation.WithNow(s.now))
	if err != nil {
		return models.Round{}, fmt.Errorf("start round %d: %w", n, err)
	}

	round := models.Round{
		ID:         uuid.New(),
		Number:     n,
		Budget:     s.cfg.Budget,
		StartedAt:  s.now(),
		Outcome:    models.OutcomeRunning,
		FinalStage: clock.Stage(),
	}
	s.emit(round, models.EventRoundStarted, clock)

	previous := clock.Stage()
	for {
		s.sleep(s.cfg.PollInterval)

		if s.flag.Consume() {
			return s.finish(round, models.OutcomeAcknowledged, clock), nil
		}

		stage := clock.Poll()
		if stage != previous {
			if stage == escalation.Failed {
				round = s.finish(round, models.OutcomeFailed, clock)
				s.notify(round)
				return round, nil
			}
			s.emit(round, models.EventStageChanged, clock)
		}
		previous = stage
	}
}

func (s *Supervisor) finish(round models.Round, outcome models.Outcome, clock *escalation.Clock) models.Round {
	ended := s.now()
	round.EndedAt = &ended
	round.Outcome = outcome
	round.FinalStage = clock.Stage()

	kind := models.EventRoundAcknowledged
	if outcome == models.OutcomeFailed {
		kind = models.EventRoundFailed
	}
	s.emit(round, kind, clock)
	return round
}

// notify is best effort: a failing sink is logged and the next round starts
// anyway.
func (s *Supervisor) notify(round models.Round) {
	if s.notifier == nil {
		return
	}
	msg := FailureMessage(round, s.cfg.Rounds)
	if err := s.notifier.Notify(msg); err != nil {
		s.logger.WithField("round_id", round.ID.String()).Errorf("Notification for round %d failed: %v", round.Number, err)
	}
}

// FailureMessage describes a failed round for the notifier.
func FailureMessage(round models.Round, rounds int) string {
	return fmt.Sprintf("Round %d/%d failed: no acknowledgment within %v and all extensions (round %s)",
		round.Number, rounds, round.Budget, round.ID)
}

func (s *Supervisor) emit(round models.Round, kind models.EventKind, clock *escalation.Clock) {
	e := models.Event{
		ID:      uuid.New(),
		RoundID: round.ID,
		Round:   round.Number,
		Rounds:  s.cfg.Rounds,
		Kind:    kind,
		Stage:   clock.Stage(),
		At:      s.now(),
	}
	if !kind.Terminal() {
		if deadline, ok := clock.Deadline(); ok {
			e.Deadline = &deadline
		}
	}
	for _, o := range s.observers {
		o.Observe(e)
	}
}

package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rest-tracker/internal/escalation"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
)

// Store is the slice of DB the Recorder writes to.
type Store interface {
	CreateRound(ctx context.Context, r models.Round) error
	FinishRound(ctx context.Context, id uuid.UUID, endedAt time.Time, outcome models.Outcome, stage escalation.Stage) error
	CreateEvent(ctx context.Context, e models.Event) error
}

// queueSize bounds the events waiting for the database.
const queueSize = 256

// Recorder appends supervisor events to the round history. Observe only
// queues the event; a single worker writes the queue in order. Write
// failures are logged and never reach the supervisor.
type Recorder struct {
	store   Store
	budget  time.Duration
	timeout time.Duration
	logger  *logging.Logger

	mu     sync.Mutex
	closed bool
	queue  chan models.Event
	done   chan struct{}
}

// NewRecorder constructs a Recorder for rounds of the given budget and
// starts its worker. Call Close to flush the queue.
func NewRecorder(store Store, budget time.Duration, logger *logging.Logger) *Recorder {
	r := &Recorder{
		store:   store,
		budget:  budget,
		timeout: 5 * time.Second,
		logger:  logger,
		queue:   make(chan models.Event, queueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Observe queues e without waiting. Events arriving while the queue is full,
// or after Close, are dropped.
func (r *Recorder) Observe(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.logger.Warnf("Round history queue full, dropping %s event of round %d", e.Kind, e.Round)
	}
}

// Close stops accepting events and waits until the queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		r.record(e)
	}
}

// record writes e, creating the round row on start and closing it on the
// round's terminal event.
func (r *Recorder) record(e models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if e.Kind == models.EventRoundStarted {
		round := models.Round{
			ID:         e.RoundID,
			Number:     e.Round,
			Budget:     r.budget,
			StartedAt:  e.At,
			Outcome:    models.OutcomeRunning,
			FinalStage: e.Stage,
		}
		if err := r.store.CreateRound(ctx, round); err != nil {
			r.logger.Errorf("Record round %d failed: %v", e.Round, err)
			return
		}
	}

	if err := r.store.CreateEvent(ctx, e); err != nil {
		r.logger.Errorf("Record event %s of round %d failed: %v", e.Kind, e.Round, err)
	}

	if e.Kind.Terminal() {
		outcome := models.OutcomeAcknowledged
		if e.Kind == models.EventRoundFailed {
			outcome = models.OutcomeFailed
		}
		if err := r.store.FinishRound(ctx, e.RoundID, e.At, outcome, e.Stage); err != nil {
			r.logger.Errorf("Finish round %d failed: %v", e.Round, err)
		}
	}
}

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/escalation"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
	"rest-tracker/internal/supervisor"
)

type finished struct {
	id      uuid.UUID
	outcome models.Outcome
	stage   escalation.Stage
}

type fakeStore struct {
	rounds   []models.Round
	events   []models.Event
	finished []finished
	roundErr error
	block    chan struct{}
}

func (s *fakeStore) CreateRound(_ context.Context, r models.Round) error {
	if s.block != nil {
		<-s.block
	}
	if s.roundErr != nil {
		return s.roundErr
	}
	s.rounds = append(s.rounds, r)
	return nil
}

func (s *fakeStore) FinishRound(_ context.Context, id uuid.UUID, _ time.Time, outcome models.Outcome, stage escalation.Stage) error {
	s.finished = append(s.finished, finished{id, outcome, stage})
	return nil
}

func (s *fakeStore) CreateEvent(_ context.Context, e models.Event) error {
	s.events = append(s.events, e)
	return nil
}

func event(roundID uuid.UUID, kind models.EventKind, stage escalation.Stage) models.Event {
	return models.Event{ID: uuid.New(), RoundID: roundID, Round: 2, Rounds: 19, Kind: kind, Stage: stage, At: time.Now()}
}

func TestRecorderFailedRound(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, 4*time.Second, logging.NewNop())
	id := uuid.New()

	rec.Observe(event(id, models.EventRoundStarted, escalation.InitialWait))
	rec.Observe(event(id, models.EventStageChanged, escalation.InitialWait))
	rec.Observe(event(id, models.EventRoundFailed, escalation.Failed))
	rec.Close()

	require.Len(t, store.rounds, 1)
	assert.Equal(t, id, store.rounds[0].ID)
	assert.Equal(t, 2, store.rounds[0].Number)
	assert.Equal(t, 4*time.Second, store.rounds[0].Budget)
	assert.Equal(t, models.OutcomeRunning, store.rounds[0].Outcome)
	assert.Len(t, store.events, 3)
	assert.Equal(t, []finished{{id, models.OutcomeFailed, escalation.Failed}}, store.finished)
}

func TestRecorderAcknowledgedRound(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, time.Minute, logging.NewNop())
	id := uuid.New()

	rec.Observe(event(id, models.EventRoundStarted, escalation.InitialWait))
	rec.Observe(event(id, models.EventRoundAcknowledged, escalation.InitialWait))
	rec.Close()

	assert.Equal(t, []finished{{id, models.OutcomeAcknowledged, escalation.InitialWait}}, store.finished)
}

func TestRecorderSkipsEventWhenRoundInsertFails(t *testing.T) {
	store := &fakeStore{roundErr: errors.New("connection refused")}
	rec := NewRecorder(store, time.Minute, logging.NewNop())

	rec.Observe(event(uuid.New(), models.EventRoundStarted, escalation.InitialWait))
	rec.Close()

	assert.Empty(t, store.events)
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	rec := NewRecorder(store, time.Minute, logging.NewNop())
	id := uuid.New()

	// One event is held by the worker, queueSize wait in the queue.
	for i := 0; i < queueSize+10; i++ {
		rec.Observe(event(id, models.EventRoundStarted, escalation.InitialWait))
	}
	close(store.block)
	rec.Close()

	assert.LessOrEqual(t, len(store.rounds), queueSize+1)
	assert.GreaterOrEqual(t, len(store.rounds), queueSize)
}

func TestRecorderIgnoresEventsAfterClose(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, time.Minute, logging.NewNop())
	rec.Close()
	rec.Close()

	rec.Observe(event(uuid.New(), models.EventRoundStarted, escalation.InitialWait))

	assert.Empty(t, store.rounds)
}

func TestStalledHistoryDoesNotDelayRounds(t *testing.T) {
	release := make(chan struct{})
	store := &fakeStore{block: release}
	rec := NewRecorder(store, 4*time.Second, logging.NewNop())

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := supervisor.Config{Rounds: 2, Budget: 4 * time.Second, PollInterval: 500 * time.Millisecond}
	s, err := supervisor.New(cfg, &ack.Flag{}, nil, logging.NewNop(),
		supervisor.WithClock(func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }),
		supervisor.WithObserver(rec))
	require.NoError(t, err)

	done := make(chan supervisor.Summary, 1)
	go func() {
		sum, _ := s.Run()
		done <- sum
	}()
	select {
	case sum := <-done:
		assert.Equal(t, supervisor.Summary{Failed: 2}, sum)
	case <-time.After(2 * time.Second):
		t.Fatal("rounds waited on the round history")
	}

	close(release)
	rec.Close()
	assert.Len(t, store.rounds, 2)
	assert.Len(t, store.events, 8)
	assert.Len(t, store.finished, 2)
}

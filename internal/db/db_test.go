package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-tracker/internal/escalation"
	"rest-tracker/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	d, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	require.NoError(t, d.Migrate(ctx))
	return d
}

func TestRoundHistoryRoundTrip(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	r := models.Round{
		ID:         uuid.New(),
		Number:     1,
		Budget:     4 * time.Second,
		StartedAt:  started,
		Outcome:    models.OutcomeRunning,
		FinalStage: escalation.InitialWait,
	}
	require.NoError(t, d.CreateRound(ctx, r))

	deadline := started.Add(4 * time.Second)
	require.NoError(t, d.CreateEvent(ctx, models.Event{
		ID: uuid.New(), RoundID: r.ID, Round: 1, Kind: models.EventRoundStarted,
		Stage: escalation.InitialWait, Deadline: &deadline, At: started,
	}))
	require.NoError(t, d.FinishRound(ctx, r.ID, started.Add(13*time.Second), models.OutcomeFailed, escalation.Failed))

	rounds, err := d.ListRounds(ctx, 50)
	require.NoError(t, err)

	var got *models.Round
	for i := range rounds {
		if rounds[i].ID == r.ID {
			got = &rounds[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, models.OutcomeFailed, got.Outcome)
	assert.Equal(t, escalation.Failed, got.FinalStage)
	assert.Equal(t, 4*time.Second, got.Budget)
	require.NotNil(t, got.EndedAt)
	assert.WithinDuration(t, started.Add(13*time.Second), *got.EndedAt, time.Millisecond)
}

func TestFinishUnknownRound(t *testing.T) {
	d := openTestDB(t)

	err := d.FinishRound(context.Background(), uuid.New(), time.Now(), models.OutcomeFailed, escalation.Failed)
	assert.Error(t, err)
}

package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/escalation"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
	"rest-tracker/internal/supervisor"
)

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, nil)
}

func testEvent(kind models.EventKind, stage escalation.Stage) models.Event {
	deadline := time.Date(2024, 3, 1, 9, 0, 4, 0, time.UTC)
	return models.Event{
		ID:       uuid.New(),
		RoundID:  uuid.New(),
		Round:    1,
		Rounds:   19,
		Kind:     kind,
		Stage:    stage,
		Deadline: &deadline,
		At:       deadline.Add(-4 * time.Second),
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(10, logging.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	sent := testEvent(models.EventStageChanged, escalation.HalfExtension)
	hub.Observe(sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "stage_changed", got["kind"])
	assert.Equal(t, "half_extension", got["stage"])
	assert.Equal(t, sent.RoundID.String(), got["round_id"])
}

func TestHubLast(t *testing.T) {
	hub := NewHub(10, logging.NewNop())

	_, ok := hub.Last()
	assert.False(t, ok)

	hub.Observe(testEvent(models.EventRoundStarted, escalation.InitialWait))
	hub.Observe(testEvent(models.EventStageChanged, escalation.HalfExtension))

	last, ok := hub.Last()
	require.True(t, ok)
	assert.Equal(t, escalation.HalfExtension, last.Stage)
}

func TestHubRejectsOverCapacity(t *testing.T) {
	hub := NewHub(1, logging.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first, _, err := dial(t, srv)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	_, resp, err := dial(t, srv)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(10, logging.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsStalledClient(t *testing.T) {
	hub := NewHub(10, logging.NewNop())
	// No writer drains this queue.
	stalled := &client{send: make(chan []byte, sendBuffer)}
	require.True(t, hub.add(stalled))

	for i := 0; i <= sendBuffer; i++ {
		hub.Observe(testEvent(models.EventStageChanged, escalation.HalfExtension))
	}

	assert.Equal(t, 0, hub.Clients())
	queued := 0
	for range stalled.send {
		queued++
	}
	assert.Equal(t, sendBuffer, queued, "queue closed after the buffered events")
	_, ok := hub.Last()
	assert.True(t, ok)
}

func TestHubAddRechecksCapacity(t *testing.T) {
	hub := NewHub(1, logging.NewNop())

	assert.True(t, hub.add(&client{send: make(chan []byte, 1)}))
	assert.False(t, hub.add(&client{send: make(chan []byte, 1)}))
	assert.Equal(t, 1, hub.Clients())
}

func TestStalledClientDoesNotDelayRounds(t *testing.T) {
	hub := NewHub(10, logging.NewNop())
	require.True(t, hub.add(&client{send: make(chan []byte, sendBuffer)}))

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := supervisor.Config{Rounds: 5, Budget: 4 * time.Second, PollInterval: 500 * time.Millisecond}
	s, err := supervisor.New(cfg, &ack.Flag{}, nil, logging.NewNop(),
		supervisor.WithClock(func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }),
		supervisor.WithObserver(hub))
	require.NoError(t, err)

	done := make(chan supervisor.Summary, 1)
	go func() {
		sum, _ := s.Run()
		done <- sum
	}()
	select {
	case sum := <-done:
		assert.Equal(t, supervisor.Summary{Failed: 5}, sum)
	case <-time.After(2 * time.Second):
		t.Fatal("rounds waited on a stalled WebSocket client")
	}
	assert.Equal(t, 0, hub.Clients())
}

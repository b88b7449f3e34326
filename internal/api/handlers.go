package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
	"rest-tracker/internal/stream"
)

// ErrHistoryDisabled is reported when no round history is configured.
var ErrHistoryDisabled = errors.New("round history is disabled")

const (
	defaultRoundsLimit = 20
	maxRoundsLimit     = 500
)

// RoundLister serves the round history.
type RoundLister interface {
	ListRounds(ctx context.Context, limit int) ([]models.Round, error)
}

type Handler struct {
	flag    *ack.Flag
	hub     *stream.Hub
	history RoundLister
	logger  *logging.Logger
}

// NewHandler constructs a Handler. history may be nil.
func NewHandler(flag *ack.Flag, hub *stream.Hub, history RoundLister, logger *logging.Logger) *Handler {
	return &Handler{flag: flag, hub: hub, history: history, logger: logger}
}

func (h *Handler) Acknowledge(c *gin.Context) {
	h.flag.Set()
	h.logger.Infof("Acknowledgment received from %s", c.ClientIP())
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) GetStatus(c *gin.Context) {
	e, ok := h.hub.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No round has started yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":       e,
		"ack_pending": h.flag.Pending(),
	})
}

func (h *Handler) GetRounds(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrHistoryDisabled.Error()})
		return
	}

	limit := defaultRoundsLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxRoundsLimit {
			h.logger.Warnf("Invalid rounds limit %q", s)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	rounds, err := h.history.ListRounds(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("Failed to list rounds: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rounds"})
		return
	}
	if rounds == nil {
		rounds = []models.Round{}
	}
	c.JSON(http.StatusOK, rounds)
}

func (h *Handler) Stream(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}

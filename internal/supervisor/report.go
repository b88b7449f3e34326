package supervisor

import (
	"time"

	"github.com/sirupsen/logrus"

	"rest-tracker/internal/escalation"
	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
)

// LogObserver writes one human-readable line per event.
type LogObserver struct {
	logger *logging.Logger
}

// NewLogObserver constructs a LogObserver.
func NewLogObserver(logger *logging.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe logs e.
func (o *LogObserver) Observe(e models.Event) {
	entry := o.logger.WithFields(logrus.Fields{
		"round":    e.Round,
		"round_id": e.RoundID.String(),
		"stage":    e.Stage.String(),
	})

	switch e.Kind {
	case models.EventRoundStarted:
		entry.Infof("Round %d/%d started, till: %s", e.Round, e.Rounds, clockTime(e.Deadline))
		entry.Infof("Time started! till: %s", clockTime(e.Deadline))
	case models.EventStageChanged:
		switch e.Stage {
		case escalation.HalfExtension:
			entry.Warnf("Time elapsed! extending half! till: %s", clockTime(e.Deadline))
		case escalation.QuarterExtension:
			entry.Warnf("Time elapsed! extending quarter! till: %s", clockTime(e.Deadline))
		}
	case models.EventRoundAcknowledged:
		entry.Infof("Round %d/%d done!", e.Round, e.Rounds)
	case models.EventRoundFailed:
		entry.Errorf("Round %d/%d failed!", e.Round, e.Rounds)
	}
}

func clockTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled log lines to stdout and a rotating file.
type Logger struct {
	*logrus.Logger
	file io.Closer
}

// New creates the log folder if needed and returns a Logger writing to both
// the console and dir/rest-tracker.log.
func New(dir, level string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs folder failed: %w", err)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "rest-tracker.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}
	l := newLogrus(io.MultiWriter(os.Stdout, file), lvl)
	return &Logger{Logger: l, file: file}, nil
}

// NewWriter returns a Logger writing only to w, with no file behind it.
func NewWriter(w io.Writer, level logrus.Level) *Logger {
	return &Logger{Logger: newLogrus(w, level)}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return NewWriter(io.Discard, logrus.PanicLevel)
}

func newLogrus(out io.Writer, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	return l
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file failed: %w", err)
	}
	return nil
}

package ack

import (
	"bufio"
	"fmt"
	"io"

	"rest-tracker/internal/logging"
)

// Console raises a Flag for every line read from an input stream.
type Console struct {
	in     io.Reader
	flag   *Flag
	logger *logging.Logger
}

// NewConsole constructs a Console reading from in.
func NewConsole(in io.Reader, flag *Flag, logger *logging.Logger) *Console {
	return &Console{in: in, flag: flag, logger: logger}
}

// Run blocks reading lines until the input is exhausted. Line content is
// ignored.
func (c *Console) Run() error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.flag.Set()
		c.logger.Debugf("Acknowledgment received from console")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read console input: %w", err)
	}
	c.logger.Infof("Console input closed, no further acknowledgments from console")
	return nil
}

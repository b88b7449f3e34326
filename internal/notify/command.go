package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// Command runs a shell command with the message appended as its last
// argument, e.g. "notify 'Round 3/19 failed: ...'".
type Command struct {
	command string
}

// NewCommand constructs a Command sink.
func NewCommand(command string) *Command {
	return &Command{command: command}
}

// Notify runs the command and waits for it to exit.
func (c *Command) Notify(message string) error {
	cmd := exec.Command("sh", "-c", c.command+" "+shellQuote(message))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %q: %w: %s", c.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

package escalation

import "fmt"

// Stage is the escalation severity of a task. Stages only move forward.
type Stage int

const (
	Initiated Stage = iota
	InitialWait
	HalfExtension
	QuarterExtension
	Failed
)

var stageNames = [...]string{
	Initiated:        "initiated",
	InitialWait:      "initial_wait",
	HalfExtension:    "half_extension",
	QuarterExtension: "quarter_extension",
	Failed:           "failed",
}

// transition is one row of the escalation policy. A zero divisor means the
// next stage has no window.
type transition struct {
	next    Stage
	divisor int64
}

var policy = [...]transition{
	Initiated:        {next: InitialWait, divisor: 1},
	InitialWait:      {next: HalfExtension, divisor: 2},
	HalfExtension:    {next: QuarterExtension, divisor: 4},
	QuarterExtension: {next: Failed},
	Failed:           {next: Failed},
}

// Escalate looks up the stage that follows s and the budget divisor of the
// window opened on entering it. opensWindow is false when the next stage is
// Failed.
func Escalate(s Stage) (next Stage, divisor int64, opensWindow bool) {
	if !s.valid() {
		return Failed, 0, false
	}
	t := policy[s]
	return t.next, t.divisor, t.divisor > 0
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == Failed
}

func (s Stage) valid() bool {
	return s >= Initiated && s <= Failed
}

func (s Stage) String() string {
	if !s.valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText decodes a stage name produced by MarshalText.
func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage returns the stage with the given name.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

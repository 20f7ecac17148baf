package selectmap

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a configuration attempt.
type State uint8

const (
	StateIdle State = iota
	StateConfiguring
	StateDone
)

var stateNames = map[State]string{
	StateIdle:        "Idle",
	StateConfiguring: "Configuring",
	StateDone:        "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", s)
}

// Result is the outcome of FinishConfig.
type Result uint8

const (
	// ResultTimedOut means DONE stayed low for the whole dummy clock budget.
	ResultTimedOut Result = iota
	// ResultDone means DONE went high and the device is configured.
	ResultDone
)

func (r Result) String() string {
	switch r {
	case ResultDone:
		return "Done"
	case ResultTimedOut:
		return "TimedOut"
	}
	return fmt.Sprintf("Result(%d)", r)
}

const (
	DefaultResetPulse   = 10 * time.Millisecond
	DefaultPollInterval = 1 * time.Millisecond
	DefaultDoneClocks   = 1024
)

// Timing controls the delays and bounds of the configuration sequence.
type Timing struct {
	ResetPulse   time.Duration // PROGRAM_B low time
	PollInterval time.Duration // sleep between INIT_B samples
	ReadyTimeout time.Duration // bound on the INIT_B wait, 0 waits forever
	DoneClocks   int           // dummy bytes clocked while waiting for DONE
}

// DefaultTiming returns the timing used by the reference sequence: a 10 ms
// reset pulse, 1 ms INIT_B polling with no bound and 1024 dummy clocks.
func DefaultTiming() Timing {
	return Timing{
		ResetPulse:   DefaultResetPulse,
		PollInterval: DefaultPollInterval,
		ReadyTimeout: 0,
		DoneClocks:   DefaultDoneClocks,
	}
}

// Validate replaces out of range values with their defaults.
func (t *Timing) Validate() {
	if t.ResetPulse <= 0 {
		t.ResetPulse = DefaultResetPulse
	}
	if t.PollInterval <= 0 {
		t.PollInterval = DefaultPollInterval
	}
	if t.ReadyTimeout < 0 {
		t.ReadyTimeout = 0
	}
	if t.DoneClocks < 1 {
		t.DoneClocks = DefaultDoneClocks
	}
}

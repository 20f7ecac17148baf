package board

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/selectmap"
)

var (
	ErrBoardNotFound = errors.New("board: not found")
	ErrAmbiguous     = errors.New("board: several boards defined, name required")
)

// Adapter names the bus backend a board is wired to.
type Adapter struct {
	Kind   string
	Params map[string]string
}

// Param returns the named parameter or def when it is not set.
func (a Adapter) Param(key, def string) string {
	if v, ok := a.Params[key]; ok {
		return v
	}
	return def
}

// Uint parses the named parameter as a decimal or 0x-prefixed integer.
func (a Adapter) Uint(key string, def uint64) (uint64, error) {
	v, ok := a.Params[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("board: adapter parameter %s: %w", key, err)
	}
	return n, nil
}

// Config is a resolved board: everything needed to build a selectmap.Device.
type Config struct {
	Name    string
	Pins    selectmap.Pins
	Timing  selectmap.Timing
	Adapter Adapter
}

// Load parses filename and resolves the board called name. An empty name
// selects the only board in the file.
func Load(filename, name string) (*Config, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return f.Config(name)
}

// Names lists the boards defined in the file, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Boards))
	for _, b := range f.Boards {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Config resolves the board called name. An empty name selects the only
// board in the file.
func (f *File) Config(name string) (*Config, error) {
	if name == "" {
		switch len(f.Boards) {
		case 0:
			return nil, ErrBoardNotFound
		case 1:
			return f.Boards[0].Config()
		default:
			return nil, fmt.Errorf("%w: %v", ErrAmbiguous, f.Names())
		}
	}
	for _, b := range f.Boards {
		if b.Name == name {
			return b.Config()
		}
	}
	return nil, fmt.Errorf("%w: %q (have %v)", ErrBoardNotFound, name, f.Names())
}

// Config checks the statements of a board and resolves them.
func (b *Board) Config() (*Config, error) {
	cfg := &Config{
		Name:   b.Name,
		Timing: selectmap.DefaultTiming(),
	}
	seen := make(map[string]bool)

	once := func(st *Statement, what string) error {
		if seen[what] {
			return b.errorf(st, "duplicate %s", what)
		}
		seen[what] = true
		return nil
	}

	for _, st := range b.Statements {
		switch {
		case st.Data != nil:
			if err := once(st, "data"); err != nil {
				return nil, err
			}
			port, err := parseUint(st.Data.Port, 32)
			if err != nil {
				return nil, b.errorf(st, "data port: %v", err)
			}
			offset, err := parseUint(st.Data.Offset, 8)
			if err != nil {
				return nil, b.errorf(st, "data offset: %v", err)
			}
			if offset > selectmap.MaxDataOffset {
				return nil, b.errorf(st, "data offset %d leaves no room for 8 bits", offset)
			}
			cfg.Pins.DataPort = gpio.Port(port)
			cfg.Pins.DataOffset = uint(offset)

		case st.Signal != nil:
			if err := once(st, st.Signal.Signal); err != nil {
				return nil, err
			}
			n, err := parseUint(st.Signal.Pin, 32)
			if err != nil {
				return nil, b.errorf(st, "%s pin: %v", st.Signal.Signal, err)
			}
			pin := gpio.Pin(n)
			switch st.Signal.Signal {
			case "init":
				cfg.Pins.Init = pin
			case "program":
				cfg.Pins.Program = pin
			case "clock":
				cfg.Pins.Clock = pin
			case "done":
				cfg.Pins.Done = pin
			}

		case st.Swap != nil:
			if err := once(st, "swap_bits"); err != nil {
				return nil, err
			}
			cfg.Pins.SwapBits = st.Swap.Value == "true"

		case st.Timing != nil:
			if err := once(st, st.Timing.Name); err != nil {
				return nil, err
			}
			d, err := time.ParseDuration(st.Timing.Value)
			if err != nil {
				return nil, b.errorf(st, "%s: %v", st.Timing.Name, err)
			}
			switch st.Timing.Name {
			case "reset_pulse":
				cfg.Timing.ResetPulse = d
			case "poll_interval":
				cfg.Timing.PollInterval = d
			case "ready_timeout":
				cfg.Timing.ReadyTimeout = d
			}

		case st.Clocks != nil:
			if err := once(st, "done_clocks"); err != nil {
				return nil, err
			}
			n, err := parseUint(st.Clocks.Count, 31)
			if err != nil || n == 0 {
				return nil, b.errorf(st, "done_clocks must be a positive integer")
			}
			cfg.Timing.DoneClocks = int(n)

		case st.Adapter != nil:
			if err := once(st, "adapter"); err != nil {
				return nil, err
			}
			cfg.Adapter.Kind = st.Adapter.Kind
			cfg.Adapter.Params = make(map[string]string, len(st.Adapter.Params))
			for _, p := range st.Adapter.Params {
				if _, dup := cfg.Adapter.Params[p.Key]; dup {
					return nil, fmt.Errorf("board %q: %s: duplicate adapter parameter %s", b.Name, p.Pos, p.Key)
				}
				cfg.Adapter.Params[p.Key] = p.Value
			}
		}
	}

	for _, required := range []string{"data", "init", "program", "clock", "done"} {
		if !seen[required] {
			return nil, fmt.Errorf("board %q: missing %s binding", b.Name, required)
		}
	}

	control := map[gpio.Pin]string{}
	for _, sig := range []struct {
		name string
		pin  gpio.Pin
	}{
		{"init", cfg.Pins.Init},
		{"program", cfg.Pins.Program},
		{"clock", cfg.Pins.Clock},
		{"done", cfg.Pins.Done},
	} {
		if other, ok := control[sig.pin]; ok {
			return nil, fmt.Errorf("board %q: %s and %s share pin %d", b.Name, other, sig.name, sig.pin)
		}
		control[sig.pin] = sig.name
	}

	return cfg, nil
}

func (b *Board) errorf(st *Statement, format string, args ...any) error {
	return fmt.Errorf("board %q: %s: %s", b.Name, st.Pos, fmt.Sprintf(format, args...))
}

func parseUint(s string, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, 0, bitSize)
}

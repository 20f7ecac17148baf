package fpgasim

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

// Phase is the simulated configuration phase of the target.
type Phase uint8

const (
	PhasePowerUp Phase = iota // never reset
	PhaseReset                // PROGRAM_B held low
	PhaseClearing             // PROGRAM_B released, INIT_B still low
	PhaseReady                // INIT_B high, waiting for data
	PhaseLoading              // receiving bitstream bytes
	PhaseStartup              // bitstream complete, running startup clocks
	PhaseDone                 // DONE high
	PhaseError                // CRC error, INIT_B pulled low
)

var phaseNames = map[Phase]string{
	PhasePowerUp:  "PowerUp",
	PhaseReset:    "Reset",
	PhaseClearing: "Clearing",
	PhaseReady:    "Ready",
	PhaseLoading:  "Loading",
	PhaseStartup:  "Startup",
	PhaseDone:     "Done",
	PhaseError:    "Error",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// Wiring tells the simulator which bus lines the target is attached to.
type Wiring struct {
	DataPort   gpio.Port
	DataOffset uint
	Init       gpio.Pin
	Program    gpio.Pin
	Clock      gpio.Pin
	Done       gpio.Pin
}

// Config describes the behavior of the simulated device.
type Config struct {
	Wiring Wiring

	// InitPolls is how many INIT_B reads return low after PROGRAM_B is
	// released.
	InitPolls int
	// BitstreamLength is the number of bytes the device expects. Zero means
	// every clocked byte counts toward startup.
	BitstreamLength int
	// StartupClocks is how many clocks after the last bitstream byte it
	// takes DONE to rise.
	StartupClocks int
	// FailCRC makes the device reject the bitstream once it is complete.
	FailCRC bool
}

// Spartan6 models the SelectMAP side of a Spartan-6 on top of a SimBus. It
// reacts to PROGRAM_B and CCLK writes, latches the data port on every CCLK
// rising edge and drives INIT_B and DONE.
type Spartan6 struct {
	cfg Config
	bus *gpio.SimBus

	phase     Phase
	clock     gpio.Level
	initReads int
	resets    int
	startup   int
	received  []byte
}

// NewSpartan6 creates a simulated device and the bus it sits on. The bus
// access log is disabled; enable it with Bus().Record when needed.
func NewSpartan6(cfg Config) *Spartan6 {
	if cfg.InitPolls < 0 {
		cfg.InitPolls = 0
	}
	if cfg.StartupClocks < 0 {
		cfg.StartupClocks = 0
	}

	sim := &Spartan6{cfg: cfg}
	sim.bus = gpio.NewSimBus(gpio.BusInfo{
		Name:   "Spartan-6 SelectMAP Simulator",
		Vendor: "OpenTraceLab",
		Model:  "Sim-S6",
		Pins:   gpio.PortWidth,
		Notes:  "behavioral model, no timing checks",
	})
	sim.bus.Record = false
	sim.bus.OnWritePin = sim.handleWritePin
	sim.bus.OnReadPin = sim.handleReadPin
	return sim
}

// Bus returns the bus to hand to the configuration driver.
func (s *Spartan6) Bus() *gpio.SimBus {
	return s.bus
}

// Phase reports the current simulated phase.
func (s *Spartan6) Phase() Phase {
	return s.phase
}

// Received returns a copy of the bitstream bytes latched since the last
// reset, excluding startup clocks.
func (s *Spartan6) Received() []byte {
	return append([]byte(nil), s.received...)
}

// Resets reports how many PROGRAM_B pulses the device has seen.
func (s *Spartan6) Resets() int {
	return s.resets
}

// StartupClocks reports how many clocks arrived after the bitstream was
// complete, including any clocked after DONE rose.
func (s *Spartan6) StartupClocks() int {
	return s.startup
}

func (s *Spartan6) handleWritePin(pin gpio.Pin, level gpio.Level) {
	w := s.cfg.Wiring
	switch pin {
	case w.Program:
		if level == gpio.Low {
			s.phase = PhaseReset
			s.received = s.received[:0]
			s.startup = 0
			s.initReads = 0
			return
		}
		if s.phase == PhaseReset {
			s.resets++
			s.phase = PhaseClearing
		}

	case w.Clock:
		rising := s.clock == gpio.Low && level == gpio.High
		s.clock = level
		if rising {
			s.onRisingEdge()
		}
	}
}

func (s *Spartan6) onRisingEdge() {
	switch s.phase {
	case PhaseReady, PhaseLoading:
		if s.cfg.BitstreamLength == 0 {
			s.phase = PhaseStartup
			s.onRisingEdge()
			return
		}
		value := s.bus.PortValue(s.cfg.Wiring.DataPort) >> s.cfg.Wiring.DataOffset
		s.received = append(s.received, byte(value))
		s.phase = PhaseLoading
		if len(s.received) < s.cfg.BitstreamLength {
			return
		}
		if s.cfg.FailCRC {
			s.phase = PhaseError
			return
		}
		s.phase = PhaseStartup
		if s.cfg.StartupClocks == 0 {
			s.phase = PhaseDone
		}

	case PhaseStartup:
		s.startup++
		if s.startup >= s.cfg.StartupClocks {
			s.phase = PhaseDone
		}

	case PhaseDone:
		s.startup++
	}
}

func (s *Spartan6) handleReadPin(pin gpio.Pin) (gpio.Level, bool) {
	w := s.cfg.Wiring
	switch pin {
	case w.Init:
		switch s.phase {
		case PhasePowerUp, PhaseReset, PhaseError:
			return gpio.Low, true
		case PhaseClearing:
			s.initReads++
			if s.initReads <= s.cfg.InitPolls {
				return gpio.Low, true
			}
			s.phase = PhaseReady
		}
		return gpio.High, true

	case w.Done:
		return gpio.Level(s.phase == PhaseDone), true
	}
	return gpio.Low, false
}

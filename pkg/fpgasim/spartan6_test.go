package fpgasim

import (
	"bytes"
	"testing"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

var testWiring = Wiring{
	DataPort:   0,
	DataOffset: 8,
	Init:       4,
	Program:    5,
	Done:       6,
	Clock:      7,
}

// clock drives one byte the same way the SelectMAP driver does.
func clock(bus gpio.Bus, b byte) {
	bus.WritePin(testWiring.Clock, gpio.Low)
	bus.WritePort(testWiring.DataPort, 0xFF<<testWiring.DataOffset, uint32(b)<<testWiring.DataOffset)
	bus.WritePin(testWiring.Clock, gpio.High)
}

func reset(bus gpio.Bus) {
	bus.WritePin(testWiring.Program, gpio.Low)
	bus.WritePin(testWiring.Program, gpio.High)
}

func TestSpartan6InitRelease(t *testing.T) {
	sim := NewSpartan6(Config{Wiring: testWiring, InitPolls: 2, BitstreamLength: 1})
	bus := sim.Bus()

	if l, _ := bus.ReadPin(testWiring.Init); l != gpio.Low {
		t.Fatalf("INIT_B high before reset")
	}

	reset(bus)
	if sim.Phase() != PhaseClearing {
		t.Fatalf("phase = %s, want Clearing", sim.Phase())
	}

	var levels []gpio.Level
	for i := 0; i < 3; i++ {
		l, _ := bus.ReadPin(testWiring.Init)
		levels = append(levels, l)
	}
	if levels[0] != gpio.Low || levels[1] != gpio.Low || levels[2] != gpio.High {
		t.Fatalf("INIT_B sequence = %v, want low low high", levels)
	}
	if sim.Phase() != PhaseReady {
		t.Fatalf("phase = %s, want Ready", sim.Phase())
	}
	if sim.Resets() != 1 {
		t.Fatalf("Resets = %d, want 1", sim.Resets())
	}
}

func TestSpartan6LatchesOnRisingEdge(t *testing.T) {
	data := []byte{0xAA, 0x99, 0x55, 0x66, 0x01}
	sim := NewSpartan6(Config{Wiring: testWiring, BitstreamLength: len(data), StartupClocks: 3})
	bus := sim.Bus()

	reset(bus)
	bus.ReadPin(testWiring.Init)

	for i, b := range data {
		clock(bus, b)
		if i == 0 {
			// A repeated high write is not an edge.
			bus.WritePin(testWiring.Clock, gpio.High)
		}
	}
	if !bytes.Equal(sim.Received(), data) {
		t.Fatalf("received %X, want %X", sim.Received(), data)
	}
	if sim.Phase() != PhaseStartup {
		t.Fatalf("phase = %s, want Startup", sim.Phase())
	}

	for i := 0; i < 3; i++ {
		if l, _ := bus.ReadPin(testWiring.Done); l != gpio.Low {
			t.Fatalf("DONE high after %d startup clocks", i)
		}
		clock(bus, 0xFF)
	}
	if l, _ := bus.ReadPin(testWiring.Done); l != gpio.High {
		t.Fatalf("DONE low after startup clocks")
	}
	if sim.StartupClocks() != 3 {
		t.Fatalf("StartupClocks = %d, want 3", sim.StartupClocks())
	}
}

func TestSpartan6PreservesOtherPortBits(t *testing.T) {
	sim := NewSpartan6(Config{Wiring: testWiring, BitstreamLength: 1})
	bus := sim.Bus()
	bus.SetPortValue(testWiring.DataPort, 0xFFFF00FF)

	reset(bus)
	bus.ReadPin(testWiring.Init)
	clock(bus, 0x3C)

	if got := sim.Received(); len(got) != 1 || got[0] != 0x3C {
		t.Fatalf("received %X, want 3C", got)
	}
}

func TestSpartan6CRCError(t *testing.T) {
	sim := NewSpartan6(Config{Wiring: testWiring, BitstreamLength: 2, FailCRC: true})
	bus := sim.Bus()

	reset(bus)
	bus.ReadPin(testWiring.Init)
	clock(bus, 0x01)
	clock(bus, 0x02)

	if sim.Phase() != PhaseError {
		t.Fatalf("phase = %s, want Error", sim.Phase())
	}
	if l, _ := bus.ReadPin(testWiring.Init); l != gpio.Low {
		t.Fatalf("INIT_B high after CRC error")
	}
	for i := 0; i < 16; i++ {
		clock(bus, 0xFF)
	}
	if l, _ := bus.ReadPin(testWiring.Done); l != gpio.Low {
		t.Fatalf("DONE high after CRC error")
	}
}

func TestSpartan6ResetClearsState(t *testing.T) {
	sim := NewSpartan6(Config{Wiring: testWiring, BitstreamLength: 1})
	bus := sim.Bus()

	reset(bus)
	bus.ReadPin(testWiring.Init)
	clock(bus, 0x42)
	if sim.Phase() != PhaseDone {
		t.Fatalf("phase = %s, want Done", sim.Phase())
	}

	reset(bus)
	if len(sim.Received()) != 0 {
		t.Fatalf("received bytes survived reset")
	}
	if l, _ := bus.ReadPin(testWiring.Done); l != gpio.Low {
		t.Fatalf("DONE still high after reset")
	}
	if sim.Resets() != 2 {
		t.Fatalf("Resets = %d, want 2", sim.Resets())
	}
}

func TestSpartan6ZeroLength(t *testing.T) {
	sim := NewSpartan6(Config{Wiring: testWiring, StartupClocks: 2})
	bus := sim.Bus()

	reset(bus)
	bus.ReadPin(testWiring.Init)
	clock(bus, 0x00)
	if sim.Phase() != PhaseStartup {
		t.Fatalf("phase = %s, want Startup", sim.Phase())
	}
	clock(bus, 0x00)
	if sim.Phase() != PhaseDone {
		t.Fatalf("phase = %s, want Done", sim.Phase())
	}
}

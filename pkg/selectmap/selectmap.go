package selectmap

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

// MaxDataOffset is the highest D0 position that still fits the byte in a
// 32-bit port.
const MaxDataOffset = gpio.PortWidth - 8

// dummyByte is clocked while waiting for DONE.
const dummyByte = 0xFF

var (
	// ErrNotReady is returned by StartConfig when INIT_B stays low past
	// Timing.ReadyTimeout.
	ErrNotReady = errors.New("selectmap: device not ready (INIT_B low)")
	// ErrInvalidOffset is returned by Init when DataOffset leaves no room for
	// the data byte.
	ErrInvalidOffset = errors.New("selectmap: data offset out of range")
)

// Pins binds the SelectMAP signals to bus lines. Directions are configured
// by whoever built the bus.
type Pins struct {
	DataPort   gpio.Port // port carrying D0-D7
	DataOffset uint      // bit position of D0 within DataPort
	Init       gpio.Pin  // INIT_B, input
	Program    gpio.Pin  // PROGRAM_B, output, active low
	Clock      gpio.Pin  // CCLK, output
	Done       gpio.Pin  // DONE, input

	// SwapBits reverses every byte before it is placed on the bus, for
	// bitstreams that have not been bit swapped for x8 SelectMAP already.
	SwapBits bool
}

// Mask returns the port bits occupied by the data byte.
func (p Pins) Mask() uint32 {
	return uint32(0xFF) << p.DataOffset
}

// Device is the configuration state of one Spartan-6 attached to a bus. Its
// methods are not safe for concurrent use.
//
// The Init and Program methods shadow the promoted Pins fields of the same
// name; use d.Pins.Init and d.Pins.Program for the pins.
type Device struct {
	Pins
	Timing Timing

	// Sleep blocks for the given duration. It defaults to time.Sleep and can
	// be replaced to run the sequence without real delays.
	Sleep func(time.Duration)

	bus   gpio.Bus
	state State
}

// New creates a device descriptor on bus with the default timing. Call Init
// before any other method.
func New(bus gpio.Bus, pins Pins) *Device {
	return &Device{
		Pins:   pins,
		Timing: DefaultTiming(),
		Sleep:  time.Sleep,
		bus:    bus,
	}
}

// State reports the current lifecycle state.
func (d *Device) State() State {
	return d.state
}

// Bus returns the bus the device is attached to.
func (d *Device) Bus() gpio.Bus {
	return d.bus
}

// Init resets the descriptor to Idle. It performs no I/O and may be called
// any number of times.
func (d *Device) Init() error {
	if d.DataOffset > MaxDataOffset {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidOffset, d.DataOffset, MaxDataOffset)
	}
	d.Timing.Validate()
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	d.state = StateIdle
	return nil
}

// StartConfig pulses PROGRAM_B and waits for the device to release INIT_B.
// With Timing.ReadyTimeout at zero it waits forever, as the device is
// expected to always come out of reset.
func (d *Device) StartConfig() error {
	glog.V(1).Infof("selectmap: pulsing PROGRAM_B for %s", d.Timing.ResetPulse)

	if err := d.bus.WritePin(d.Clock, gpio.Low); err != nil {
		return fmt.Errorf("selectmap: drive CCLK low: %w", err)
	}
	if err := d.bus.WritePin(d.Pins.Program, gpio.Low); err != nil {
		return fmt.Errorf("selectmap: assert PROGRAM_B: %w", err)
	}

	d.Sleep(d.Timing.ResetPulse)

	if err := d.bus.WritePin(d.Pins.Program, gpio.High); err != nil {
		return fmt.Errorf("selectmap: release PROGRAM_B: %w", err)
	}

	var waited time.Duration
	for {
		level, err := d.bus.ReadPin(d.Pins.Init)
		if err != nil {
			return fmt.Errorf("selectmap: read INIT_B: %w", err)
		}
		if level == gpio.High {
			break
		}
		if d.Timing.ReadyTimeout > 0 && waited >= d.Timing.ReadyTimeout {
			return fmt.Errorf("%w after %s", ErrNotReady, waited)
		}
		d.Sleep(d.Timing.PollInterval)
		waited += d.Timing.PollInterval
	}

	glog.V(1).Infof("selectmap: INIT_B high after %s, configuring", waited)
	d.state = StateConfiguring
	return nil
}

// SendConfig clocks data onto the bus, one byte per CCLK rising edge, in
// order. It can be called repeatedly with successive chunks of a bitstream.
func (d *Device) SendConfig(data []byte) error {
	mask := d.Mask()
	for i, b := range data {
		if err := d.clockByte(mask, b); err != nil {
			return fmt.Errorf("selectmap: byte %d: %w", i, err)
		}
	}
	glog.V(2).Infof("selectmap: clocked %d bytes", len(data))
	return nil
}

// FinishConfig clocks dummy bytes until DONE goes high or the
// Timing.DoneClocks budget runs out. The state becomes Done only when DONE
// reads high afterwards; on timeout it stays Configuring.
func (d *Device) FinishConfig() (Result, error) {
	mask := d.Mask()
	remaining := d.Timing.DoneClocks

	for {
		level, err := d.bus.ReadPin(d.Done)
		if err != nil {
			return ResultTimedOut, fmt.Errorf("selectmap: read DONE: %w", err)
		}
		if level == gpio.High {
			break
		}
		if err := d.clockByte(mask, dummyByte); err != nil {
			return ResultTimedOut, fmt.Errorf("selectmap: dummy clock: %w", err)
		}
		remaining--
		if remaining <= 0 {
			break
		}
	}

	level, err := d.bus.ReadPin(d.Done)
	if err != nil {
		return ResultTimedOut, fmt.Errorf("selectmap: read DONE: %w", err)
	}
	if level == gpio.High {
		d.state = StateDone
		glog.V(1).Infof("selectmap: DONE high after %d dummy clocks", d.Timing.DoneClocks-remaining)
		return ResultDone, nil
	}

	glog.V(1).Infof("selectmap: DONE still low after %d dummy clocks", d.Timing.DoneClocks)
	return ResultTimedOut, nil
}

// clockByte performs one CCLK low, data write, CCLK high sequence.
func (d *Device) clockByte(mask uint32, b byte) error {
	if d.SwapBits {
		b = bits.Reverse8(b)
	}
	if err := d.bus.WritePin(d.Clock, gpio.Low); err != nil {
		return err
	}
	if err := d.bus.WritePort(d.DataPort, mask, uint32(b)<<d.DataOffset); err != nil {
		return err
	}
	return d.bus.WritePin(d.Clock, gpio.High)
}

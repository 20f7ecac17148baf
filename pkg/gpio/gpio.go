package gpio

import (
	"errors"
	"fmt"
)

// Level is the logic level of a single digital pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Pin identifies one individually addressable digital line on a bus.
type Pin uint32

// Port identifies a group of up to 32 lines that can be written together.
type Port uint32

// PortWidth is the number of lines addressable through a single Port.
const PortWidth = 32

// BusInfo describes the adapter behind a Bus.
type BusInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Pins         int // number of usable lines
	Notes        string
}

// Bus abstracts the digital I/O a configuration driver needs from the host
// platform. Pin directions are set up when the adapter is constructed; Bus
// methods only drive and sample levels.
type Bus interface {
	WritePin(pin Pin, level Level) error
	ReadPin(pin Pin) (Level, error)
	// WritePort writes value into the bits of port selected by mask. Bits
	// outside mask keep their current level.
	WritePort(port Port, mask, value uint32) error
}

// Informer is implemented by buses that can describe themselves.
type Informer interface {
	Info() (BusInfo, error)
}

// ErrNotImplemented lets backends signal that a requested capability is not
// available on this adapter.
var ErrNotImplemented = errors.New("gpio: not implemented")

// ValidatePin reports an error when pin does not fit in an adapter with the
// given number of lines.
func ValidatePin(pin Pin, lines int) error {
	if int(pin) >= lines {
		return fmt.Errorf("gpio: pin %d out of range (adapter has %d lines)", pin, lines)
	}
	return nil
}

// Merge returns current with the bits selected by mask replaced from value.
func Merge(current, mask, value uint32) uint32 {
	return current&^mask | value&mask
}

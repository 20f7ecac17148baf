//go:build linux

// Package gpiomem drives the BCM283x GPIO block of a Raspberry Pi through the
// /dev/gpiomem mapping. Port 0 is GPIO0-31: masked port writes are a single
// GPSET0 store followed by a single GPCLR0 store, so unmasked lines are never
// touched.
package gpiomem

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

const (
	DefaultDevice = "/dev/gpiomem"

	// Lines reachable through the first bank.
	Lines = 32

	mapSize = 4096
)

// Register word offsets within the GPIO block.
const (
	regFSEL0 = 0x00 / 4
	regSET0  = 0x1C / 4
	regCLR0  = 0x28 / 4
	regLEV0  = 0x34 / 4
)

// Function select values.
const (
	FuncInput  = 0
	FuncOutput = 1
)

// Bus is a gpio.Bus backed by the memory mapped GPIO registers.
type Bus struct {
	mu   sync.Mutex
	mem  []byte
	regs []uint32
	path string
}

// Open maps the GPIO block from device (DefaultDevice when empty).
func Open(device string) (*Bus, error) {
	if device == "" {
		device = DefaultDevice
	}
	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("gpiomem: open %s: %w", device, err)
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), 0, mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("gpiomem: mmap %s: %w", device, err)
	}

	b := newBus(mem)
	b.path = device
	return b, nil
}

func newBus(mem []byte) *Bus {
	return &Bus{
		mem:  mem,
		regs: unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4),
	}
}

// Close unmaps the registers.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mem == nil || b.path == "" {
		b.mem, b.regs = nil, nil
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem, b.regs = nil, nil
	if err != nil {
		return fmt.Errorf("gpiomem: munmap: %w", err)
	}
	return nil
}

func (b *Bus) Info() (gpio.BusInfo, error) {
	return gpio.BusInfo{
		Name:   "BCM283x GPIO",
		Vendor: "Broadcom",
		Model:  "gpiomem",
		Pins:   Lines,
		Notes:  b.path,
	}, nil
}

// SetFunction selects the function of one line. The driver expects lines to
// be configured before configuration starts.
func (b *Bus) SetFunction(pin gpio.Pin, fn uint32) error {
	if err := gpio.ValidatePin(pin, Lines); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	reg := regFSEL0 + int(pin)/10
	shift := (uint(pin) % 10) * 3
	b.regs[reg] = b.regs[reg]&^(7<<shift) | (fn&7)<<shift
	return nil
}

// SetOutput configures each pin as an output.
func (b *Bus) SetOutput(pins ...gpio.Pin) error {
	for _, p := range pins {
		if err := b.SetFunction(p, FuncOutput); err != nil {
			return err
		}
	}
	return nil
}

// SetInput configures each pin as an input.
func (b *Bus) SetInput(pins ...gpio.Pin) error {
	for _, p := range pins {
		if err := b.SetFunction(p, FuncInput); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) WritePin(pin gpio.Pin, level gpio.Level) error {
	if err := gpio.ValidatePin(pin, Lines); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if level {
		b.regs[regSET0] = 1 << pin
	} else {
		b.regs[regCLR0] = 1 << pin
	}
	return nil
}

func (b *Bus) ReadPin(pin gpio.Pin) (gpio.Level, error) {
	if err := gpio.ValidatePin(pin, Lines); err != nil {
		return gpio.Low, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return gpio.Level(b.regs[regLEV0]&(1<<pin) != 0), nil
}

func (b *Bus) WritePort(port gpio.Port, mask, value uint32) error {
	if port != 0 {
		return fmt.Errorf("gpiomem: port %d: %w", port, gpio.ErrNotImplemented)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if set := value & mask; set != 0 {
		b.regs[regSET0] = set
	}
	if clr := ^value & mask; clr != 0 {
		b.regs[regCLR0] = clr
	}
	return nil
}

package ftdi

import (
	"fmt"
	"io"
	"sync"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

// Lines is the number of GPIO lines in MPSSE mode: ADBUS0-7 then ACBUS0-7.
const Lines = 16

// Transport carries raw MPSSE bytes. USBTransport is the real one.
type Transport interface {
	io.ReadWriter
	Close() error
}

// Config selects the chip and the line directions.
type Config struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
	// Outputs has a bit set for every line driven by the host.
	Outputs uint16
	// Initial is the level of the output lines after opening.
	Initial uint16
}

// Bus is a gpio.Bus over the MPSSE GPIO commands of an FTDI chip. Port 0
// spans all 16 lines.
type Bus struct {
	transport Transport
	protocol  MPSSEProtocol
	info      gpio.BusInfo

	mu     sync.Mutex
	dir    uint16
	shadow uint16
}

// Open connects to the chip described by cfg and applies its directions.
func Open(cfg Config) (*Bus, error) {
	if cfg.VendorID == 0 {
		cfg.VendorID = VendorIDFTDI
	}
	if cfg.ProductID == 0 {
		cfg.ProductID = ProductIDFT232H
	}

	transport, err := NewUSBTransport(cfg.VendorID, cfg.ProductID, cfg.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}

	b, err := NewBus(transport, cfg.Outputs, cfg.Initial)
	if err != nil {
		transport.Close()
		return nil, err
	}
	b.info.SerialNumber = cfg.Serial
	b.info.Model = modelName(cfg.ProductID)
	return b, nil
}

// NewBus builds a bus on an already opened transport and drives the initial
// levels and directions.
func NewBus(t Transport, outputs, initial uint16) (*Bus, error) {
	b := &Bus{
		transport: t,
		dir:       outputs,
		shadow:    initial & outputs,
		info: gpio.BusInfo{
			Name:   "FTDI MPSSE GPIO",
			Vendor: "FTDI",
			Pins:   Lines,
		},
	}
	if err := b.flush(0xFFFF); err != nil {
		return nil, fmt.Errorf("ftdi: set directions: %w", err)
	}
	return b, nil
}

// Close releases the transport.
func (b *Bus) Close() error {
	return b.transport.Close()
}

func (b *Bus) Info() (gpio.BusInfo, error) {
	return b.info, nil
}

func (b *Bus) WritePin(pin gpio.Pin, level gpio.Level) error {
	if err := gpio.ValidatePin(pin, Lines); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	bit := uint16(1) << pin
	if level {
		b.shadow |= bit
	} else {
		b.shadow &^= bit
	}
	return b.flush(bit)
}

func (b *Bus) ReadPin(pin gpio.Pin) (gpio.Level, error) {
	if err := gpio.ValidatePin(pin, Lines); err != nil {
		return gpio.Low, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.transport.Write(b.protocol.EncodeGet(uint(pin))); err != nil {
		return gpio.Low, err
	}
	resp := make([]byte, 1)
	if _, err := io.ReadFull(b.transport, resp); err != nil {
		return gpio.Low, fmt.Errorf("ftdi: read pin %d: %w", pin, err)
	}
	high, err := b.protocol.DecodeGet(resp, uint(pin))
	if err != nil {
		return gpio.Low, err
	}
	return gpio.Level(high), nil
}

func (b *Bus) WritePort(port gpio.Port, mask, value uint32) error {
	if port != 0 {
		return fmt.Errorf("ftdi: port %d: %w", port, gpio.ErrNotImplemented)
	}
	if mask>>Lines != 0 {
		return fmt.Errorf("ftdi: mask %08X exceeds %d lines", mask, Lines)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.shadow = uint16(gpio.Merge(uint32(b.shadow), mask, value))
	return b.flush(uint16(mask))
}

// flush sends the shadow levels for the bytes touched by mask.
func (b *Bus) flush(mask uint16) error {
	cmd := b.protocol.EncodeSet(b.shadow, b.dir, mask)
	if len(cmd) == 0 {
		return nil
	}
	_, err := b.transport.Write(cmd)
	return err
}

func modelName(pid uint16) string {
	switch pid {
	case ProductIDFT232H:
		return "FT232H"
	case ProductIDFT2232H:
		return "FT2232H"
	case ProductIDFT4232H:
		return "FT4232H"
	}
	return fmt.Sprintf("%04X", pid)
}

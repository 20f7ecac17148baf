package ftdi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

const (
	VendorIDFTDI     = 0x0403
	ProductIDFT2232H = 0x6010
	ProductIDFT4232H = 0x6011
	ProductIDFT232H  = 0x6014

	DefaultPacketSize = 512
	DefaultTimeout    = 2 * time.Second

	// Interface A of the chip, the only one with MPSSE on every model.
	interfaceA = 1
)

// USBTransport handles USB communication with an FTDI MPSSE engine.
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	packetSize int
	timeout    time.Duration
}

// NewUSBTransport opens the first FTDI chip matching vid/pid (and serial when
// non-empty) and puts interface A into MPSSE mode.
func NewUSBTransport(vid, pid uint16, serial string) (*USBTransport, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vid && uint16(desc.Product) == pid
	})
	var dev *gousb.Device
	for _, d := range devs {
		if dev == nil && serialMatches(d, serial) {
			dev = d
			continue
		}
		d.Close()
	}
	if dev == nil {
		ctx.Close()
		if err != nil {
			return nil, fmt.Errorf("USB error: %w", err)
		}
		return nil, fmt.Errorf("device not found (VID:0x%04X PID:0x%04X)", vid, pid)
	}

	// Not fatal on all platforms
	_ = dev.SetAutoDetach(true)

	t := &USBTransport{
		ctx:        ctx,
		dev:        dev,
		packetSize: DefaultPacketSize,
		timeout:    DefaultTimeout,
	}

	if err := t.claimInterface(); err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	if err := t.enterMPSSE(); err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

func serialMatches(d *gousb.Device, serial string) bool {
	if serial == "" {
		return true
	}
	s, err := d.SerialNumber()
	return err == nil && s == serial
}

// claimInterface claims interface A and finds its bulk endpoints
func (t *USBTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface 0: %w", err)
	}
	t.intf = intf

	var outAddr, inAddr int
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionOut && outAddr == 0 {
			outAddr = ep.Number
		}
		if ep.Direction == gousb.EndpointDirectionIn && inAddr == 0 {
			inAddr = ep.Number
			t.packetSize = ep.MaxPacketSize
		}
	}
	if outAddr == 0 || inAddr == 0 {
		intf.Close()
		return fmt.Errorf("bulk endpoints not found")
	}

	if t.epOut, err = intf.OutEndpoint(outAddr); err != nil {
		intf.Close()
		return fmt.Errorf("failed to open OUT endpoint: %w", err)
	}
	if t.epIn, err = intf.InEndpoint(inAddr); err != nil {
		intf.Close()
		return fmt.Errorf("failed to open IN endpoint: %w", err)
	}
	return nil
}

func (t *USBTransport) control(request uint8, value uint16) error {
	rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	if _, err := t.dev.Control(rType, request, value, interfaceA, nil); err != nil {
		return fmt.Errorf("control request 0x%02X: %w", request, err)
	}
	return nil
}

// enterMPSSE resets the chip, shortens the latency timer and selects MPSSE
// mode with every line an input until the bus sets directions.
func (t *USBTransport) enterMPSSE() error {
	if err := t.control(ReqReset, 0); err != nil {
		return err
	}
	if err := t.control(ReqSetLatencyTimer, 1); err != nil {
		return err
	}
	if err := t.control(ReqSetBitMode, BitModeReset<<8); err != nil {
		return err
	}
	if err := t.control(ReqSetBitMode, BitModeMPSSE<<8); err != nil {
		return err
	}
	_, err := t.Write([]byte{CmdLoopbackOff})
	return err
}

// Write sends raw MPSSE commands
func (t *USBTransport) Write(data []byte) (int, error) {
	n, err := t.epOut.Write(data)
	if err != nil {
		return 0, fmt.Errorf("USB write failed: %w", err)
	}
	return n, nil
}

// Read fills data with MPSSE response bytes, dropping packet status bytes and
// waiting up to the transport timeout for all of them.
func (t *USBTransport) Read(data []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	buf := make([]byte, t.packetSize)
	got := 0
	for got < len(data) {
		n, err := t.epIn.ReadContext(ctx, buf)
		if err != nil {
			return got, fmt.Errorf("USB read failed: %w", err)
		}
		got += copy(data[got:], StripStatus(buf[:n], t.packetSize))
	}
	return got, nil
}

// GetPacketSize returns the IN endpoint packet size
func (t *USBTransport) GetPacketSize() int {
	return t.packetSize
}

// SetTimeout sets the read timeout
func (t *USBTransport) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

// Close leaves MPSSE mode and releases USB resources
func (t *USBTransport) Close() error {
	if t.dev != nil && t.intf != nil {
		_ = t.control(ReqSetBitMode, BitModeReset<<8)
	}
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.dev != nil {
		t.dev.Close()
		t.dev = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}

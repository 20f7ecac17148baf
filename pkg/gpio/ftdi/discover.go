package ftdi

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// DeviceInfo represents a discovered FTDI chip
type DeviceInfo struct {
	VID          uint16
	PID          uint16
	Model        string
	SerialNumber string
	Description  string
}

// Label returns a user-friendly description for the device.
func (d DeviceInfo) Label() string {
	if d.Description != "" {
		return d.Description
	}
	return fmt.Sprintf("%s (%04X:%04X)", d.Model, d.VID, d.PID)
}

// IsMPSSE reports whether pid names a chip with an MPSSE engine.
func IsMPSSE(pid uint16) bool {
	switch pid {
	case ProductIDFT232H, ProductIDFT2232H, ProductIDFT4232H:
		return true
	}
	return false
}

// Enumerate lists connected FTDI chips that have an MPSSE engine.
func Enumerate(ctx context.Context) ([]DeviceInfo, error) {
	usb := gousb.NewContext()
	defer usb.Close()

	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return uint16(desc.Vendor) == VendorIDFTDI && IsMPSSE(uint16(desc.Product))
	})
	if err != nil && err != gousb.ErrorAccess && len(devs) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, dev := range devs {
		serial, _ := dev.SerialNumber()
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		info := DeviceInfo{
			VID:          uint16(dev.Desc.Vendor),
			PID:          uint16(dev.Desc.Product),
			Model:        modelName(uint16(dev.Desc.Product)),
			SerialNumber: serial,
		}
		if manufacturer != "" || product != "" {
			info.Description = fmt.Sprintf("%s %s", manufacturer, product)
		}
		infos = append(infos, info)
		dev.Close()
	}
	return infos, nil
}

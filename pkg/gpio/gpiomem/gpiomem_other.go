//go:build !linux

package gpiomem

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
)

const (
	DefaultDevice = "/dev/gpiomem"
	Lines         = 32
)

// Bus is unavailable outside Linux.
type Bus struct{}

func Open(device string) (*Bus, error) {
	return nil, fmt.Errorf("gpiomem: %w on this platform", gpio.ErrNotImplemented)
}

func (b *Bus) Close() error { return nil }
func (b *Bus) Info() (gpio.BusInfo, error) { return gpio.BusInfo{}, gpio.ErrNotImplemented }
func (b *Bus) SetOutput(pins ...gpio.Pin) error { return gpio.ErrNotImplemented }
func (b *Bus) SetInput(pins ...gpio.Pin) error { return gpio.ErrNotImplemented }
func (b *Bus) WritePin(gpio.Pin, gpio.Level) error { return gpio.ErrNotImplemented }
func (b *Bus) ReadPin(gpio.Pin) (gpio.Level, error) {
	return gpio.Low, gpio.ErrNotImplemented
}
func (b *Bus) WritePort(gpio.Port, uint32, uint32) error { return gpio.ErrNotImplemented }

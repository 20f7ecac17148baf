package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/board"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/fpgasim"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio/ftdi"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio/gpiomem"
)

// simOptions configures the simulator adapter.
type simOptions struct {
	InitPolls       int
	StartupClocks   int
	FailCRC         bool
	BitstreamLength int
}

// openedBus is a bus plus whatever must be released afterwards.
type openedBus struct {
	Bus   gpio.Bus
	Sim   *fpgasim.Spartan6
	close func() error
}

func (o *openedBus) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// createBus opens the adapter named by kind for the board in cfg and sets the
// pin directions the SelectMAP driver expects.
func createBus(kind string, cfg *board.Config, sim simOptions) (*openedBus, error) {
	pins := cfg.Pins
	switch kind {
	case "simulator", "sim":
		if verbose {
			fmt.Println("Using simulator adapter")
		}
		s := fpgasim.NewSpartan6(fpgasim.Config{
			Wiring: fpgasim.Wiring{
				DataPort:   pins.DataPort,
				DataOffset: pins.DataOffset,
				Init:       pins.Init,
				Program:    pins.Program,
				Clock:      pins.Clock,
				Done:       pins.Done,
			},
			InitPolls:       sim.InitPolls,
			BitstreamLength: sim.BitstreamLength,
			StartupClocks:   sim.StartupClocks,
			FailCRC:         sim.FailCRC,
		})
		return &openedBus{Bus: s.Bus(), Sim: s}, nil

	case "gpiomem", "rpi":
		if pins.DataPort != 0 {
			return nil, fmt.Errorf("gpiomem: only port 0 is supported, board uses port %d", pins.DataPort)
		}
		b, err := gpiomem.Open(cfg.Adapter.Param("device", gpiomem.DefaultDevice))
		if err != nil {
			return nil, err
		}
		outputs := []gpio.Pin{pins.Program, pins.Clock}
		for i := uint(0); i < 8; i++ {
			outputs = append(outputs, gpio.Pin(pins.DataOffset+i))
		}
		if err := b.SetOutput(outputs...); err != nil {
			b.Close()
			return nil, err
		}
		if err := b.SetInput(pins.Init, pins.Done); err != nil {
			b.Close()
			return nil, err
		}
		// Keep the device out of reset until the sequence starts.
		if err := b.WritePin(pins.Program, gpio.High); err != nil {
			b.Close()
			return nil, err
		}
		return &openedBus{Bus: b, close: b.Close}, nil

	case "ftdi", "mpsse":
		if pins.DataPort != 0 || pins.DataOffset+8 > ftdi.Lines {
			return nil, fmt.Errorf("ftdi: data lines must fit in port 0 lines 0-%d", ftdi.Lines-1)
		}
		for _, p := range []gpio.Pin{pins.Init, pins.Program, pins.Clock, pins.Done} {
			if err := gpio.ValidatePin(p, ftdi.Lines); err != nil {
				return nil, err
			}
		}
		vid, err := cfg.Adapter.Uint("vid", ftdi.VendorIDFTDI)
		if err != nil {
			return nil, err
		}
		pid, err := cfg.Adapter.Uint("pid", ftdi.ProductIDFT232H)
		if err != nil {
			return nil, err
		}
		serial := cfg.Adapter.Param("serial", adapterSerial)

		outputs := uint16(1)<<pins.Program | uint16(1)<<pins.Clock | uint16(0xFF)<<pins.DataOffset
		b, err := ftdi.Open(ftdi.Config{
			VendorID:  uint16(vid),
			ProductID: uint16(pid),
			Serial:    serial,
			Outputs:   outputs,
			Initial:   uint16(1) << pins.Program,
		})
		if err != nil {
			return nil, err
		}
		return &openedBus{Bus: b, close: b.Close}, nil
	}

	return nil, fmt.Errorf("unknown adapter type %q (simulator, gpiomem, ftdi)", kind)
}

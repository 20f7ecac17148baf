package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/board"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/selectmap"
)

var (
	adapterType   string
	adapterSerial string
	boardFile     string
	boardName     string
	chunkSize     int
	readyTimeout  time.Duration
	doneClocks    int
	swapBits      bool

	dataPort   uint32
	dataOffset uint
	initPin    uint32
	programPin uint32
	clockPin   uint32
	donePin    uint32

	simInitPolls     int
	simStartupClocks int
	simFailCRC       bool
)

var programCmd = &cobra.Command{
	Use:   "program <bitstream.bin>",
	Short: "Configure the FPGA with a raw bitstream",
	Long: `Run the SelectMAP configuration sequence: pulse PROGRAM_B, wait for INIT_B,
clock the bitstream onto the data bus one byte per CCLK rising edge, then clock
dummy bytes until DONE goes high.

The bitstream is sent as-is; use a .bin file (no header). Pins come from a board
description (--board/--name) or from the pin flags.

Examples:
  # Dry run against the simulator
  smap program design.bin

  # Raspberry Pi wired like the FiC board
  smap program --adapter gpiomem --board boards.conf --name fic-rpi design.bin

  # FT232H with explicit pins
  smap program -a ftdi --clock 0 --program 1 --init 2 --done 3 --offset 8 design.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)

	programCmd.Flags().StringVarP(&adapterType, "adapter", "a", "",
		"bus adapter (simulator, gpiomem, ftdi); defaults to the board's adapter or simulator")
	programCmd.Flags().StringVarP(&adapterSerial, "serial", "s", "",
		"adapter serial number (if multiple adapters)")
	programCmd.Flags().StringVarP(&boardFile, "board", "b", "",
		"board description file")
	programCmd.Flags().StringVarP(&boardName, "name", "n", "",
		"board name within the description file")
	programCmd.Flags().IntVar(&chunkSize, "chunk", selectmap.DefaultChunkSize,
		"bytes read and clocked per chunk")
	programCmd.Flags().DurationVar(&readyTimeout, "ready-timeout", 0,
		"give up waiting for INIT_B after this long (0 waits forever)")
	programCmd.Flags().IntVar(&doneClocks, "done-clocks", 0,
		"dummy clocks allowed while waiting for DONE (default 1024)")
	programCmd.Flags().BoolVar(&swapBits, "swap-bits", false,
		"bit swap every byte before it goes on the bus")

	programCmd.Flags().Uint32Var(&dataPort, "port", 0, "data port")
	programCmd.Flags().UintVar(&dataOffset, "offset", 8, "bit position of D0 in the data port")
	programCmd.Flags().Uint32Var(&initPin, "init", 4, "INIT_B pin")
	programCmd.Flags().Uint32Var(&programPin, "program", 5, "PROGRAM_B pin")
	programCmd.Flags().Uint32Var(&donePin, "done", 6, "DONE pin")
	programCmd.Flags().Uint32Var(&clockPin, "clock", 7, "CCLK pin")

	programCmd.Flags().IntVar(&simInitPolls, "sim-init-polls", 3,
		"simulator: INIT_B polls before the device is ready")
	programCmd.Flags().IntVar(&simStartupClocks, "sim-startup-clocks", 8,
		"simulator: clocks after the bitstream before DONE rises")
	programCmd.Flags().BoolVar(&simFailCRC, "sim-fail-crc", false,
		"simulator: reject the bitstream")
}

// resolveBoard merges the board file (if any) with explicitly set flags.
func resolveBoard(cmd *cobra.Command) (*board.Config, error) {
	var cfg *board.Config
	if boardFile != "" {
		var err error
		cfg, err = board.Load(boardFile, boardName)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &board.Config{
			Name: "command line",
			Pins: selectmap.Pins{
				DataPort:   gpio.Port(dataPort),
				DataOffset: dataOffset,
				Init:       gpio.Pin(initPin),
				Program:    gpio.Pin(programPin),
				Clock:      gpio.Pin(clockPin),
				Done:       gpio.Pin(donePin),
			},
			Timing: selectmap.DefaultTiming(),
		}
	}

	flags := cmd.Flags()
	if flags.Changed("ready-timeout") {
		cfg.Timing.ReadyTimeout = readyTimeout
	}
	if flags.Changed("done-clocks") {
		cfg.Timing.DoneClocks = doneClocks
	}
	if flags.Changed("swap-bits") {
		cfg.Pins.SwapBits = swapBits
	}
	return cfg, nil
}

func runProgram(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open bitstream: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat bitstream: %w", err)
	}
	size := st.Size()

	cfg, err := resolveBoard(cmd)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	kind := adapterType
	if kind == "" {
		kind = cfg.Adapter.Kind
	}
	if kind == "" {
		kind = "simulator"
	}

	if verbose {
		fmt.Printf("Board: %s\n", cfg.Name)
		fmt.Printf("  Data: port %d offset %d (mask 0x%08X)\n", cfg.Pins.DataPort, cfg.Pins.DataOffset, cfg.Pins.Mask())
		fmt.Printf("  INIT_B %d, PROGRAM_B %d, CCLK %d, DONE %d\n",
			cfg.Pins.Init, cfg.Pins.Program, cfg.Pins.Clock, cfg.Pins.Done)
		fmt.Printf("Creating %s adapter...\n", kind)
	}

	bus, err := createBus(kind, cfg, simOptions{
		InitPolls:       simInitPolls,
		StartupClocks:   simStartupClocks,
		FailCRC:         simFailCRC,
		BitstreamLength: int(size),
	})
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}
	defer bus.Close()

	if verbose {
		if inf, ok := bus.Bus.(gpio.Informer); ok {
			if info, err := inf.Info(); err == nil {
				fmt.Printf("\nAdapter Information:\n")
				fmt.Printf("  Name: %s\n", info.Name)
				fmt.Printf("  Vendor: %s\n", info.Vendor)
				if info.Model != "" {
					fmt.Printf("  Model: %s\n", info.Model)
				}
				if info.SerialNumber != "" {
					fmt.Printf("  Serial: %s\n", info.SerialNumber)
				}
				fmt.Println()
			}
		}
	}

	dev := selectmap.New(bus.Bus, cfg.Pins)
	dev.Timing = cfg.Timing
	if bus.Sim != nil {
		// The simulator has no timing requirements.
		dev.Sleep = func(time.Duration) {}
	}

	fmt.Printf("Programming %s (%d bytes)...\n", path, size)

	start := time.Now()
	lastDecile := -1
	sent, err := dev.Program(f, chunkSize, func(n int64) {
		if !verbose || size == 0 {
			return
		}
		percent := int(n * 100 / size)
		if percent/10 != lastDecile {
			fmt.Printf("  %3d%% (%d / %d bytes)\n", percent, n, size)
			lastDecile = percent / 10
		}
	})

	switch {
	case errors.Is(err, selectmap.ErrTimedOut):
		fmt.Printf("Sent %d bytes, DONE did not go high within %d dummy clocks\n", sent, dev.Timing.DoneClocks)
		return fmt.Errorf("configuration failed: %w", err)
	case err != nil:
		return fmt.Errorf("configuration failed after %d bytes: %w", sent, err)
	}

	fmt.Printf("Configuration complete: state %s, %d bytes in %s\n",
		dev.State(), sent, time.Since(start).Round(time.Millisecond))

	if verbose && bus.Sim != nil {
		fmt.Printf("Simulator: %d reset(s), %d startup clock(s), phase %s\n",
			bus.Sim.Resets(), bus.Sim.StartupClocks(), bus.Sim.Phase())
	}
	return nil
}

package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "smap",
	Short: "Spartan-6 SelectMAP configuration tool",
	Long: `Load a bitstream into a Xilinx Spartan-6 FPGA over the byte-wide SelectMAP
bus, driven from GPIO lines of a Raspberry Pi, an FTDI MPSSE adapter or the
built-in simulator.

Examples:
  smap program design.bin                                   # Program the simulator
  smap program -a gpiomem -b boards.conf -n fic-rpi design.bin
  smap board testdata/boards.conf                           # Show board descriptions
  smap interfaces                                           # List usable adapters`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		// Route controller tracing to stderr.
		if err := flag.Set("logtostderr", "true"); err != nil {
			return err
		}
		return flag.Set("v", "2")
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio/ftdi"
	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/gpio/gpiomem"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available bus adapters",
	Long: `Scan the host for adapters that can drive a SelectMAP bus (FTDI MPSSE chips,
the Raspberry Pi GPIO block) and print a summary. The simulator is always listed
so the tool can be exercised without hardware.`,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Println("Detected adapters:")

	devs, err := ftdi.Enumerate(ctx)
	if err != nil {
		// USB access problems should not hide the other adapters.
		fmt.Printf("  (USB scan failed: %v)\n", err)
	}
	for _, d := range devs {
		fmt.Printf("  - %s [ftdi] (VID:PID %04X:%04X)", d.Label(), d.VID, d.PID)
		if d.SerialNumber != "" {
			fmt.Printf(" serial %s", d.SerialNumber)
		}
		fmt.Println()
	}

	if _, err := os.Stat(gpiomem.DefaultDevice); err == nil {
		fmt.Printf("  - BCM283x GPIO [gpiomem] (%s)\n", gpiomem.DefaultDevice)
	}

	fmt.Println("  - Spartan-6 simulator [simulator] (no hardware)")
	return nil
}

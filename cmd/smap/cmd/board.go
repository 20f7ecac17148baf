package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSelectMAP/pkg/board"
)

var boardCmd = &cobra.Command{
	Use:   "board <file>",
	Short: "Parse and display a board description file",
	Long: `Parse a board description file and print the resolved pin bindings, timing
and adapter of every board it defines (or only --name).

Examples:
  smap board testdata/boards.conf
  smap board testdata/boards.conf --name ft232h`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

var showBoardName string

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().StringVarP(&showBoardName, "name", "n", "", "only show this board")
}

func runBoard(cmd *cobra.Command, args []string) error {
	parser, err := board.NewParser()
	if err != nil {
		return err
	}
	f, err := parser.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	names := f.Names()
	if showBoardName != "" {
		names = []string{showBoardName}
	}

	fmt.Printf("Found %d board(s) in %s\n", len(f.Boards), args[0])
	for _, name := range names {
		cfg, err := f.Config(name)
		if err != nil {
			return err
		}
		printBoard(cfg)
	}
	return nil
}

func printBoard(cfg *board.Config) {
	p := cfg.Pins
	fmt.Printf("\nBoard: %s\n", cfg.Name)
	fmt.Printf("  Data:      port %d, D0 at bit %d (mask 0x%08X)\n", p.DataPort, p.DataOffset, p.Mask())
	fmt.Printf("  INIT_B:    pin %d\n", p.Init)
	fmt.Printf("  PROGRAM_B: pin %d\n", p.Program)
	fmt.Printf("  CCLK:      pin %d\n", p.Clock)
	fmt.Printf("  DONE:      pin %d\n", p.Done)
	if p.SwapBits {
		fmt.Printf("  Bit swap:  on\n")
	}

	t := cfg.Timing
	ready := "forever"
	if t.ReadyTimeout > 0 {
		ready = t.ReadyTimeout.String()
	}
	fmt.Printf("  Timing:    reset pulse %s, poll %s, ready timeout %s, done clocks %d\n",
		t.ResetPulse, t.PollInterval, ready, t.DoneClocks)

	if cfg.Adapter.Kind == "" {
		return
	}
	fmt.Printf("  Adapter:   %s\n", cfg.Adapter.Kind)
	keys := make([]string, 0, len(cfg.Adapter.Params))
	for k := range cfg.Adapter.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("    %s = %s\n", k, cfg.Adapter.Params[k])
	}
}

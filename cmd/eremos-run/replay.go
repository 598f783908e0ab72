package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eremos-run/internal/journal"
)

var (
	replayInput string
	replaySpeed float64
	replayJSON  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded journey journal",
	Long:  "replay feeds journal rows from a JSONL export back to the terminal at their original pacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer, cleanup, err := newWriters(replayJSON, "")
		if err != nil {
			return err
		}
		defer cleanup()
		return journal.ReplayFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to a journal JSONL file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Emit raw JSON lines instead of colored output")
	replayCmd.MarkFlagRequired("input")
}

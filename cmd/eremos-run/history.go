package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eremos-run/internal/run"
)

var (
	historyArchive string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent finished runs from the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := run.OpenArchive(historyArchive)
		if err != nil {
			return err
		}
		defer archive.Close()

		rows, err := archive.Recent(historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tTIER\tOUTCOME\tLOOT\tCREDITS\tMOVED\tDETECTION\tENDED")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%d\t%.1f\t%s\n",
				r.RunID, r.Tier, r.Outcome, r.LootCount, r.Credits,
				r.HexesMoved, r.Detection, r.EndedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyArchive, "archive", "runs.db", "Path to the sqlite run archive")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
}

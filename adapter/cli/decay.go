package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run the daily momentum decay",
	Long: `Apply the once-per-day momentum pass for yesterday's missed habits.

Running it again on the same day has no effect. Schedule it from cron or run
it when you start your day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		res, err := app.Store.ApplyDailyDecay(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.Applied {
			fmt.Fprintf(out, "Decay already applied today. Momentum: %.0f\n", res.Score)
			return nil
		}
		fmt.Fprintf(out, "Missed habits: %d\n", res.Missed)
		if n := len(res.ShieldsConsumed); n > 0 {
			fmt.Fprintf(out, "Shields used:  %d\n", n)
		}
		if res.SnapshotTaken {
			fmt.Fprintln(out, "Weekly momentum snapshot taken.")
		}
		fmt.Fprintf(out, "Momentum: %.0f\n", res.Score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decayCmd)
}

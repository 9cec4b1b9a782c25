package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage and sync backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		results := app.Health.Check(cmd.Context())
		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(out, "%-12s %-10s %s\n", r.Name, r.Status, r.Message)
		}
		overall := observability.Overall(results)
		fmt.Fprintf(out, "overall: %s\n", overall)
		if overall == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show momentum, today's habits and sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		snap := app.Store.Snapshot()
		scheduled := app.Analytics.ScheduledHabits("")

		fmt.Fprintf(out, "Momentum: %d (%+.0f this week)\n", snap.Momentum.Rounded(), snap.Momentum.WeekDelta())
		done := 0
		var lines []string
		for _, h := range scheduled {
			p := app.Analytics.HabitProgress(h.ID, "")
			mark := "[ ]"
			if p.Percent >= 100 {
				done++
				mark = "[x]"
			}
			lines = append(lines, fmt.Sprintf("  %s %s %g/%g", mark, h.Name, p.Current, p.Target))
		}
		fmt.Fprintf(out, "Today: %d/%d habits done\n", done, len(scheduled))
		if verbose {
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
		}
		fmt.Fprintf(out, "Best streak: %d\n", app.Analytics.BestStreak())
		fmt.Fprintln(out, strings.Repeat("-", 40))
		printSyncStatus(cmd, app)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
}

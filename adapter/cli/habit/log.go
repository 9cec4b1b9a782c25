package habit

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
)

var logDate string

var logCmd = &cobra.Command{
	Use:   "log [habit-id] [value]",
	Short: "Log a habit completion",
	Long: `Record progress for a habit on a day. The value defaults to the
habit's target. Logging again on the same day replaces the value.

Examples:
  habitat habit log abc123
  habitat habit log abc123 20
  habitat habit log abc123 --date 2024-01-05`,
	Aliases: []string{"done", "complete"},
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		h, err := resolveID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}

		value := h.Target
		if len(args) == 2 {
			value, err = strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
		}

		if err := app.Store.LogHabitCompletion(cmd.Context(), h.ID, value, logDate); err != nil {
			return fmt.Errorf("failed to log completion: %w", err)
		}

		progress := app.Analytics.HabitProgress(h.ID, logDate)
		updated, err := resolveID(cmd.Context(), app, h.ID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Logged %s: %g/%g (%d%%)\n", h.Name, progress.Current, progress.Target, progress.Percent)
		fmt.Fprintf(out, "  Streak: %d\n", updated.Streak)
		fmt.Fprintf(out, "  Momentum: %d\n", app.Store.Snapshot().Momentum.Rounded())
		return nil
	},
}

var unlogCmd = &cobra.Command{
	Use:   "unlog [habit-id]",
	Short: "Remove a logged completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		h, err := resolveID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}
		if err := app.Store.RemoveHabitCompletion(cmd.Context(), h.ID, logDate); err != nil {
			return fmt.Errorf("failed to remove completion: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed log for %s\n", h.Name)
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "day to log (YYYY-MM-DD, default today)")
	unlogCmd.Flags().StringVar(&logDate, "date", "", "day to remove (YYYY-MM-DD, default today)")
}

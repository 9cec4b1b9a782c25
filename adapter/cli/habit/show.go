package habit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
)

var showCmd = &cobra.Command{
	Use:     "show [habit-id]",
	Short:   "Show a habit's details",
	Aliases: []string{"get"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		h, err := resolveID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}
		progress := app.Analytics.HabitProgress(h.ID, "")

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", h.Name)
		fmt.Fprintf(out, "  ID:          %s\n", h.ID)
		fmt.Fprintf(out, "  Type:        %s\n", h.Type)
		fmt.Fprintf(out, "  Target:      %s\n", formatTarget(*h))
		fmt.Fprintf(out, "  Schedule:    %s\n", formatSchedule(h.Schedule))
		fmt.Fprintf(out, "  Category:    %s (%s)\n", h.Category, h.Icon)
		fmt.Fprintf(out, "  Streak:      %d (best %d)\n", h.Streak, h.BestStreak)
		fmt.Fprintf(out, "  Shield:      %s\n", shieldState(h.ShieldAvailable))
		fmt.Fprintf(out, "  Health:      %d%%\n", h.Health)
		fmt.Fprintf(out, "  Today:       %g/%g (%d%%)\n", progress.Current, progress.Target, progress.Percent)
		fmt.Fprintf(out, "  Created:     %s\n", h.CreatedAt.Format("2006-01-02"))
		if h.IsArchived {
			fmt.Fprintln(out, "  Archived")
		}
		return nil
	},
}

func shieldState(available bool) string {
	if available {
		return "available"
	}
	return "engaged"
}

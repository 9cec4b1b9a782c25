package habit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

var (
	updateName     string
	updateType     string
	updateTarget   float64
	updateUnit     string
	updateSchedule string
	updateCategory string
	updateIcon     string
)

var updateCmd = &cobra.Command{
	Use:   "update [habit-id]",
	Short: "Update a habit",
	Long: `Change one or more fields of a habit. Streaks are recomputed when
the type, target or schedule changes.

Examples:
  habitat habit update abc123 --name "Evening run"
  habitat habit update abc123 --target 45 -s Mon,Wed,Fri`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		h, err := resolveID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}

		var u domain.HabitUpdate
		flags := cmd.Flags()
		if flags.Changed("name") {
			u.Name = &updateName
		}
		if flags.Changed("type") {
			t := domain.HabitType(updateType)
			u.Type = &t
		}
		if flags.Changed("target") {
			u.Target = &updateTarget
		}
		if flags.Changed("unit") {
			u.Unit = &updateUnit
		}
		if flags.Changed("schedule") {
			u.Schedule = parseSchedule(updateSchedule)
		}
		if flags.Changed("category") {
			u.Category = &updateCategory
		}
		if flags.Changed("icon") {
			u.Icon = &updateIcon
		}

		if err := app.Store.UpdateHabit(cmd.Context(), h.ID, u); err != nil {
			return fmt.Errorf("failed to update habit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated habit: %s\n", shortID(h.ID))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "new name")
	updateCmd.Flags().StringVar(&updateType, "type", "", "habit type (simple, duration, count)")
	updateCmd.Flags().Float64Var(&updateTarget, "target", 0, "daily target value")
	updateCmd.Flags().StringVar(&updateUnit, "unit", "", "unit of the target")
	updateCmd.Flags().StringVarP(&updateSchedule, "schedule", "s", "", "days the habit is due")
	updateCmd.Flags().StringVarP(&updateCategory, "category", "c", "", "category")
	updateCmd.Flags().StringVar(&updateIcon, "icon", "", "icon name")
}

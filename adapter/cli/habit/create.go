package habit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

var (
	habitType     string
	habitTarget   float64
	habitUnit     string
	habitSchedule string
	habitCategory string
	habitIcon     string
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new habit",
	Long: `Create a new recurring habit to track.

Types:
  simple    - done or not done
  duration  - minutes or similar, with a target
  count     - repeatable increments, with a target

Schedules:
  daily, weekdays, weekends, or a list such as Mon,Wed,Fri

Examples:
  habitat habit create "Meditate"
  habitat habit create "Run" --type duration --target 30 --unit min -s weekdays
  habitat habit create "Water" --type count --target 8 --unit glasses`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		h, err := app.Store.AddHabit(cmd.Context(), domain.HabitDraft{
			Name:     args[0],
			Type:     domain.HabitType(habitType),
			Unit:     habitUnit,
			Target:   habitTarget,
			Schedule: parseSchedule(habitSchedule),
			Category: habitCategory,
			Icon:     habitIcon,
		})
		if err != nil {
			return fmt.Errorf("failed to create habit: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created habit: %s\n", h.Name)
		fmt.Fprintf(out, "  ID: %s\n", h.ID)
		fmt.Fprintf(out, "  Type: %s\n", h.Type)
		if h.Type != domain.HabitTypeSimple {
			fmt.Fprintf(out, "  Target: %g %s\n", h.Target, h.Unit)
		}
		fmt.Fprintf(out, "  Schedule: %s\n", formatSchedule(h.Schedule))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&habitType, "type", string(domain.HabitTypeSimple), "habit type (simple, duration, count)")
	createCmd.Flags().Float64Var(&habitTarget, "target", 1, "daily target value")
	createCmd.Flags().StringVar(&habitUnit, "unit", "", "unit of the target (min, pages, glasses)")
	createCmd.Flags().StringVarP(&habitSchedule, "schedule", "s", "daily", "days the habit is due")
	createCmd.Flags().StringVarP(&habitCategory, "category", "c", "", "category")
	createCmd.Flags().StringVar(&habitIcon, "icon", "", "icon name")
}

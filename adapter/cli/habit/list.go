package habit

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
	"github.com/felixgeelhaar/habitat/internal/habits/application/queries"
)

var (
	showArchived   bool
	onlyArchived   bool
	showDueToday   bool
	filterCategory string
	hasStreak      bool
	brokenStreak   bool
	habitSortBy    string
	habitSortOrder string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long: `List habits with today's progress and streaks.

Filter Options:
  --category      Filter by category
  --has-streak    Show only habits with active streaks
  --broken-streak Show only habits with broken streaks

Sort Options:
  --sort          Sort by field (streak, best_streak, name, created_at)
  --order         Sort order (asc, desc)

Examples:
  habitat habit list                  # All active habits
  habitat habit list --due            # Habits due today
  habitat habit list --sort streak    # Sort by current streak`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		habits, err := app.ListHabitsHandler.Handle(cmd.Context(), queries.ListHabitsQuery{
			IncludeArchived: showArchived,
			OnlyArchived:    onlyArchived,
			OnlyDueToday:    showDueToday,
			Category:        filterCategory,
			HasStreak:       hasStreak,
			BrokenStreak:    brokenStreak,
			SortBy:          habitSortBy,
			SortOrder:       habitSortOrder,
		})
		if err != nil {
			return fmt.Errorf("failed to list habits: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(habits) == 0 {
			switch {
			case showDueToday:
				fmt.Fprintln(out, "No habits due today.")
			case onlyArchived:
				fmt.Fprintln(out, "No archived habits.")
			case hasStreak:
				fmt.Fprintln(out, "No habits with active streaks.")
			case brokenStreak:
				fmt.Fprintln(out, "No habits with broken streaks.")
			default:
				fmt.Fprintln(out, "No habits found. Create one with: habitat habit create \"Habit name\"")
			}
			return nil
		}

		fmt.Fprintf(out, "Habits (%d):\n", len(habits))
		fmt.Fprintln(out, strings.Repeat("-", 70))
		for _, h := range habits {
			status := "[-]"
			if h.CompletedToday {
				status = "[x]"
			} else if h.IsDueToday {
				status = "[ ]"
			}

			streakStr := ""
			if h.Streak > 0 {
				streakStr = fmt.Sprintf(" | streak: %d", h.Streak)
				if h.BestStreak > h.Streak {
					streakStr += fmt.Sprintf(" (best: %d)", h.BestStreak)
				}
			} else if h.BestStreak > 0 {
				streakStr = fmt.Sprintf(" | best: %d (broken)", h.BestStreak)
			}

			archivedStr := ""
			if h.IsArchived {
				archivedStr = " [archived]"
			}

			fmt.Fprintf(out, "%s %s (%s, %s)%s%s\n",
				status, h.Name, formatTarget(h), formatSchedule(h.Schedule), streakStr, archivedStr)
			fmt.Fprintf(out, "    ID: %s | %s | health %d%%\n", shortID(h.ID), h.Category, h.Health)
		}
		return nil
	},
}

func init() {
	// Status filters
	listCmd.Flags().BoolVarP(&showArchived, "all", "a", false, "include archived habits")
	listCmd.Flags().BoolVar(&onlyArchived, "archived", false, "show only archived habits")
	listCmd.Flags().BoolVar(&showDueToday, "due", false, "show only habits due today")

	listCmd.Flags().StringVarP(&filterCategory, "category", "c", "", "filter by category")

	// Streak filters
	listCmd.Flags().BoolVar(&hasStreak, "has-streak", false, "show only habits with active streaks")
	listCmd.Flags().BoolVar(&brokenStreak, "broken-streak", false, "show only habits with broken streaks")

	// Sorting
	listCmd.Flags().StringVar(&habitSortBy, "sort", "", "sort by field (streak, best_streak, name, created_at)")
	listCmd.Flags().StringVar(&habitSortOrder, "order", "", "sort order (asc, desc)")
}

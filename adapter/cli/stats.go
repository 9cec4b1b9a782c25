package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chainDays int

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show habit statistics",
	Aliases: []string{"insights", "analytics"},
	Long: `Display statistics derived from your habit history.

Examples:
  habitat stats            # Overview
  habitat stats week       # Last seven days
  habitat stats chain      # Paper chain of recent days`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		s := app.Analytics.OverallStats()

		fmt.Fprintln(out, "Overview")
		fmt.Fprintln(out, strings.Repeat("=", 40))
		fmt.Fprintf(out, "  Habits:       %d active, %d archived\n", s.ActiveHabits, s.ArchivedHabits)
		fmt.Fprintf(out, "  Logs:         %d (%d complete)\n", s.TotalLogs, s.TotalCompletions)
		fmt.Fprintf(out, "  Streaks:      current %d, best %d\n", s.CurrentStreakMax, s.BestStreak)
		fmt.Fprintf(out, "  Momentum:     %d\n", s.Momentum)
		if s.AverageMood != nil {
			fmt.Fprintf(out, "  Average mood: %.1f\n", *s.AverageMood)
		}
		if insight := app.Analytics.MoodHabitInsight(); insight != nil {
			fmt.Fprintf(out, "\n  %s\n", insight.Message)
		}
		return nil
	},
}

var statsHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the seven-day health of each active habit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		habits := app.Analytics.ActiveHabits()
		if len(habits) == 0 {
			fmt.Fprintln(out, "No active habits.")
			return nil
		}
		for _, h := range habits {
			health := app.Analytics.HabitHealth(h.ID)
			fmt.Fprintf(out, "  %-24s %3d%% %s\n", h.Name, health, bar(health, 20))
		}
		return nil
	},
}

var statsWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Summarize the last seven days",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		w := app.Analytics.WeeklySummary()

		fmt.Fprintf(out, "Week %s to %s\n", w.From, w.To)
		fmt.Fprintf(out, "  Completion rate: %d%%\n", w.CompletionRate)
		fmt.Fprintf(out, "  Completions:     %d\n", w.TotalCompletions)
		fmt.Fprintf(out, "  Momentum:        %+.0f\n", w.MomentumDelta)
		if w.TopHabit != nil {
			fmt.Fprintf(out, "  Top habit:       %s (%d)\n", w.TopHabit.Name, w.TopHabit.Count)
		}
		if w.AverageMood != nil {
			fmt.Fprintf(out, "  Average mood:    %.1f\n", *w.AverageMood)
		}
		return nil
	},
}

var statsChainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show the paper chain of recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, link := range app.Analytics.PaperChainData(chainDays) {
			mark := "."
			switch {
			case link.Complete:
				mark = "#"
			case link.Partial:
				mark = "+"
			}
			fmt.Fprintf(out, "  %s %s %3d%% (%d scheduled)\n", link.Day, mark, link.Rate, link.Scheduled)
		}
		return nil
	},
}

var statsDaysCmd = &cobra.Command{
	Use:   "days",
	Short: "Show completion rate by day of week",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range app.Analytics.DayOfWeekEfficiency() {
			fmt.Fprintf(out, "  %s %3d%% %s\n", d.Day, d.Rate, bar(d.Rate, 20))
		}
		return nil
	},
}

var statsHoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Show when logs are recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, b := range app.Analytics.TimeOfDayPerformance() {
			if b.Count == 0 {
				continue
			}
			fmt.Fprintf(out, "  %02d:00 %4d %s\n", b.Hour, b.Count, strings.Repeat("*", min(b.Count, 40)))
		}
		return nil
	},
}

var statsMoodCmd = &cobra.Command{
	Use:   "mood",
	Short: "Show mood against completion rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		points := app.Analytics.MoodCorrelationData()
		if len(points) == 0 {
			fmt.Fprintln(out, "No mood logged yet.")
			return nil
		}
		for _, p := range points {
			fmt.Fprintf(out, "  %s mood %2d  completion %3d%%\n", p.Day, p.Mood, p.CompletionRate)
		}
		if insight := app.Analytics.MoodHabitInsight(); insight != nil {
			fmt.Fprintf(out, "\n  %s\n", insight.Message)
		}
		return nil
	},
}

var statsVolumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Show total logged value per habit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, v := range app.Analytics.TotalVolume() {
			archived := ""
			if v.Archived {
				archived = " [archived]"
			}
			fmt.Fprintf(out, "  %-24s %8.1f %-8s (%d logs)%s\n", v.Name, v.Total, v.Unit, v.Logs, archived)
		}
		return nil
	},
}

// bar renders percent as a fixed-width bar.
func bar(percent, width int) string {
	filled := max(0, min(width, percent*width/100))
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

func init() {
	statsChainCmd.Flags().IntVar(&chainDays, "days", 14, "number of days to show")

	statsCmd.AddCommand(statsHealthCmd)
	statsCmd.AddCommand(statsWeekCmd)
	statsCmd.AddCommand(statsChainCmd)
	statsCmd.AddCommand(statsDaysCmd)
	statsCmd.AddCommand(statsHoursCmd)
	statsCmd.AddCommand(statsMoodCmd)
	statsCmd.AddCommand(statsVolumeCmd)
	rootCmd.AddCommand(statsCmd)
}

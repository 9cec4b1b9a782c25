package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var moodDate string

var moodCmd = &cobra.Command{
	Use:   "mood",
	Short: "Track daily mood",
}

var moodLogCmd = &cobra.Command{
	Use:   "log <score>",
	Short: "Log today's mood from 1 to 10",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		score, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[0], err)
		}
		if err := app.Store.LogMood(cmd.Context(), score, moodDate); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mood %d logged.\n", score)
		return nil
	},
}

func init() {
	moodLogCmd.Flags().StringVar(&moodDate, "date", "", "day to log (YYYY-MM-DD, default today)")
	moodCmd.AddCommand(moodLogCmd)
	rootCmd.AddCommand(moodCmd)
}

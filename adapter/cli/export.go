package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/internal/habits/infrastructure/persistence"
	"github.com/felixgeelhaar/habitat/internal/shared/infrastructure/security"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as a JSON snapshot",
	Long: `Export habits, logs, mood entries, profile and momentum as a
versioned JSON document.

Examples:
  habitat export                  # Write to stdout
  habitat export -o backup.json   # Write to a file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		raw, err := persistence.Encode(app.Store.Export())
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if exportOutput == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		}
		if err := security.SafeWriteFile(exportOutput, raw); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data with a JSON snapshot",
	Long: `Import a snapshot written by "habitat export". Older schema
versions are upgraded. Every existing habit, log and mood entry is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		raw, err := security.SafeReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
		snap, err := persistence.Decode(raw, app.Store.MomentumConfig())
		if err != nil {
			return err
		}
		if err := app.Store.Import(cmd.Context(), snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d habits, %d logs, %d mood entries.\n",
			len(snap.Habits), len(snap.HabitLogs), len(snap.MoodLogs))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

package habit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [habit-id...]",
	Short: "Archive habits",
	Long: `Hide habits from active views. Their logs are kept and they can be
restored with "habitat habit unarchive".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ids, err := resolveIDs(cmd.Context(), app, args)
		if err != nil {
			return err
		}
		if err := app.Store.BulkArchive(cmd.Context(), ids); err != nil {
			return fmt.Errorf("failed to archive habits: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived %d habit(s)\n", len(ids))
		return nil
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive [habit-id...]",
	Short: "Restore archived habits",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ids, err := resolveIDs(cmd.Context(), app, args)
		if err != nil {
			return err
		}
		if err := app.Store.BulkUnarchive(cmd.Context(), ids); err != nil {
			return fmt.Errorf("failed to unarchive habits: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d habit(s)\n", len(ids))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete [habit-id...]",
	Short:   "Delete habits and their logs",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ids, err := resolveIDs(cmd.Context(), app, args)
		if err != nil {
			return err
		}
		if err := app.Store.BulkDelete(cmd.Context(), ids); err != nil {
			return fmt.Errorf("failed to delete habits: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d habit(s)\n", len(ids))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset [habit-id]",
	Short: "Clear a habit's logs and streaks",
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
		if err := app.Store.ResetHabitStats(cmd.Context(), h.ID); err != nil {
			return fmt.Errorf("failed to reset habit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", h.Name)
		return nil
	},
}

var shieldCmd = &cobra.Command{
	Use:   "shield [habit-id]",
	Short: "Protect a habit's streak from the next missed day",
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
		out := cmd.OutOrStdout()
		if !h.ShieldAvailable {
			fmt.Fprintf(out, "Shield already engaged for %s\n", h.Name)
			return nil
		}
		if err := app.Store.UseShield(cmd.Context(), h.ID); err != nil {
			return fmt.Errorf("failed to engage shield: %w", err)
		}
		fmt.Fprintf(out, "Shield engaged for %s\n", h.Name)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category [category] [habit-id...]",
	Short: "Move habits to a category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ids, err := resolveIDs(cmd.Context(), app, args[1:])
		if err != nil {
			return err
		}
		if err := app.Store.BulkChangeCategory(cmd.Context(), ids, args[0]); err != nil {
			return fmt.Errorf("failed to change category: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %d habit(s) to %s\n", len(ids), args[0])
		return nil
	},
}

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var errSyncDisabled = errors.New("remote sync is not configured (set DATABASE_URL or REDIS_URL)")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync habits with the remote backend",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local state to the remote backend now",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if !app.Store.SyncStatus().Enabled {
			return errSyncDisabled
		}
		if err := app.Store.SyncNow(cmd.Context()); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Synced.")
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace local state with the remote snapshot",
	Long: `Fetch the remote snapshot and replace local state with it.

Local changes that were never pushed are lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if !app.Store.SyncStatus().Enabled {
			return errSyncDisabled
		}
		loaded, err := app.Store.LoadFromCloud(cmd.Context())
		if err != nil {
			return err
		}
		if !loaded {
			fmt.Fprintln(cmd.OutOrStdout(), "Remote holds no data; local state kept.")
			return nil
		}
		snap := app.Store.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d habits, %d logs, %d mood entries.\n",
			len(snap.Habits), len(snap.HabitLogs), len(snap.MoodLogs))
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		printSyncStatus(cmd, app)
		return nil
	},
}

func printSyncStatus(cmd *cobra.Command, app *App) {
	out := cmd.OutOrStdout()
	status := app.Store.SyncStatus()
	if !status.Enabled {
		fmt.Fprintln(out, "Sync: disabled (local only)")
		return
	}
	last := "never"
	if !status.LastSyncedAt.IsZero() {
		last = status.LastSyncedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(out, "Sync: enabled, last synced %s\n", last)
	if status.IsSyncing {
		fmt.Fprintln(out, "  syncing...")
	}
	if status.Pending {
		fmt.Fprintln(out, "  changes pending")
	}
	if status.SyncError != nil {
		fmt.Fprintf(out, "  last error: %v\n", status.SyncError)
	}
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

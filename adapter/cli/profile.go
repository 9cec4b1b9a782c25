package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

var (
	profileName       string
	profileAvatar     string
	profileOnboarding bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		p := app.Store.Snapshot().Profile
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:       %s\n", p.DisplayName)
		fmt.Fprintf(out, "Avatar:     %s\n", p.AvatarURL)
		fmt.Fprintf(out, "Onboarded:  %t\n", p.OnboardingComplete)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		var u domain.ProfileUpdate
		flags := cmd.Flags()
		if flags.Changed("name") {
			u.DisplayName = &profileName
		}
		if flags.Changed("avatar") {
			u.AvatarURL = &profileAvatar
		}
		if flags.Changed("onboarded") {
			u.OnboardingComplete = &profileOnboarding
		}
		if u == (domain.ProfileUpdate{}) {
			return fmt.Errorf("nothing to update: pass --name, --avatar or --onboarded")
		}
		if err := app.Store.UpdateProfile(cmd.Context(), u); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
		return nil
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileAvatar, "avatar", "", "avatar URL")
	profileSetCmd.Flags().BoolVar(&profileOnboarding, "onboarded", false, "mark onboarding complete")
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/auth"
	"github.com/fitdex/fitdex/pkg/fault"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the local profile",
		Long: `Sign in, sign up, sign out and edit the local profile.

Sign-in is simulated: any non-empty email and password are accepted and
the profile is only stored locally.`,
	}

	cmd.AddCommand(newAuthSignInCommand())
	cmd.AddCommand(newAuthSignUpCommand())
	cmd.AddCommand(newAuthSignOutCommand())
	cmd.AddCommand(newAuthWhoAmICommand())
	cmd.AddCommand(newAuthUpdateCommand())

	return cmd
}

func newAuthSignInCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.auth.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthSignUpCommand() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a profile and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.auth.SignUp(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Welcome, %s!\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthSignOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if !a.auth.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			if err := a.auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
			return nil
		},
	}
}

func newAuthWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			return printUser(cmd.OutOrStdout(), a.auth.User())
		},
	}
}

func newAuthUpdateCommand() *cobra.Command {
	var name, email, avatar string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Update the signed-in profile",
		Example: `  fitdex auth update --name "Jo" --avatar https://example.com/jo.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update auth.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("avatar") {
				update.Avatar = &avatar
			}
			if update.Empty() {
				return fmt.Errorf("nothing to update: pass --name, --email or --avatar")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.auth.UpdateProfile(cmd.Context(), update)
			if errors.Is(err, fault.ErrNotSignedIn) {
				return fmt.Errorf("sign in first: fitdex auth signin")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Profile updated")
			return printUser(cmd.OutOrStdout(), &user)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")

	return cmd
}

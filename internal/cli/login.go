package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/auth"
	"github.com/thruflo/ttsdash/internal/notify"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in with email and password. The access token and user id are saved
to session.yaml in the config directory and reused by later commands.

Example:
  ttsdash login --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	prompter := newPrompter(cmd)

	email := loginEmail
	if email == "" {
		if email, err = prompter.PromptLine("Email: "); err != nil {
			return err
		}
	}
	if err := auth.ValidateEmail(email); err != nil {
		a.sink.Notify(notify.Destructive("Missing Email", "Please enter your email address."))
		return err
	}

	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return auth.ErrEmptyPassword
	}

	if _, err := a.sessions.Login(ctx, email, password); err != nil {
		a.sink.Notify(notify.Destructive("Login failed", api.Message(err, "Invalid email or password.")))
		return fmt.Errorf("login failed: %w", err)
	}

	_, profile, err := a.sessions.Resume(ctx)
	if err != nil {
		return err
	}
	a.sink.Notify(notify.Success("Login successful", fmt.Sprintf("Welcome back, %s!", displayName(profile))))
	return nil
}

func displayName(p *api.Profile) string {
	if p.Firstname != "" {
		return p.Firstname
	}
	return p.Email
}

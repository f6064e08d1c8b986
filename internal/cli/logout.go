package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/notify"
	"github.com/thruflo/ttsdash/internal/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the saved session",
	Long: `Sign out on the backend, then delete the saved session. If the backend
call fails the session is kept so the logout can be retried.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if err := a.sessions.Logout(ctx); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Fprintln(a.out, "Not logged in.")
			return nil
		}
		a.sink.Notify(notify.Destructive("Logout failed", api.Message(err, "Could not reach the server.")))
		return err
	}

	a.sink.Notify(notify.Success("Logged out", "You have been signed out."))
	return nil
}

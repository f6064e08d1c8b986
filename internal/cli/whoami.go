package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/session"
	"github.com/thruflo/ttsdash/internal/tui"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long: `Validate the saved session against the backend and print the account
it belongs to.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sess, profile, err := a.requireLogin(commandContext(cmd))
	if err != nil {
		return err
	}
	printProfile(a, sess, profile)
	return nil
}

func printProfile(a *app, sess *session.Session, p *api.Profile) {
	lines := tui.KeyValues("  ",
		tui.KV("name", strings.TrimSpace(p.Firstname+" "+p.Lastname)),
		tui.KV("email", p.Email),
		tui.KV("user id", p.ID),
		tui.KV("since", sess.CreatedAt.Format("2006-01-02 15:04")),
		tui.KV("server", a.client.BaseURL()),
	)
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
}

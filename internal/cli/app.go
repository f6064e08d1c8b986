package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/auth"
	"github.com/thruflo/ttsdash/internal/config"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/notify"
	"github.com/thruflo/ttsdash/internal/session"
	"github.com/thruflo/ttsdash/internal/tui"
	"github.com/thruflo/ttsdash/internal/wizard"
)

// maxStageAttempts bounds how often an interactive wizard re-prompts for a
// stage that keeps failing.
const maxStageAttempts = 3

// app bundles what every command needs once config is loaded.
type app struct {
	cfg      *config.Config
	dir      string
	client   *api.Client
	sessions *session.Manager
	out      io.Writer
	sink     notify.Sink
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, dir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logging.With("component", "api")),
	)
	out := cmd.OutOrStdout()

	return &app{
		cfg:      cfg,
		dir:      dir,
		client:   client,
		sessions: session.NewManager(session.NewStore(dir), client),
		out:      out,
		sink:     tui.NewToaster(out, tui.DefaultToastLimit),
	}, nil
}

// requireLogin resumes the saved session or explains how to create one.
func (a *app) requireLogin(ctx context.Context) (*session.Session, *api.Profile, error) {
	sess, profile, err := a.sessions.Resume(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return nil, nil, fmt.Errorf("%w: run 'ttsdash login' first", err)
		}
		return nil, nil, err
	}
	return sess, profile, nil
}

// bearerHeader carries the session token on the log stream upgrade.
func bearerHeader(token string) http.Header {
	if token == "" {
		return nil
	}
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newPrompter(cmd *cobra.Command) *auth.Prompter {
	if f, ok := cmd.InOrStdin().(*os.File); ok && f == os.Stdin {
		return auth.NewPrompter()
	}
	return auth.NewPrompterFrom(cmd.InOrStdin(), cmd.OutOrStdout())
}

// runWizard drives w to completion. ask supplies the fields for each stage.
// Validation and request failures are reported to sink and the stage is
// asked again, up to maxStageAttempts times.
func runWizard[S comparable](ctx context.Context, w *wizard.Wizard[S], sink notify.Sink, ask func(S) (wizard.Fields, error)) error {
	attempts := 0
	for !w.Done() {
		stage := w.Stage()
		fields, err := ask(stage)
		if err != nil {
			return err
		}

		next, notice, err := w.SubmitStage(ctx, stage, fields)
		if err == nil {
			sink.Notify(notice)
			attempts = 0
			continue
		}

		var ve *wizard.ValidationError
		var re *wizard.RequestError
		if !errors.As(err, &ve) && !errors.As(err, &re) {
			return err
		}
		sink.Notify(wizard.FailureNotice(err))
		attempts++
		if attempts >= maxStageAttempts {
			return fmt.Errorf("%s: giving up at stage %v: %w", w.Name(), next, err)
		}
	}
	return nil
}

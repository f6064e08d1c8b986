package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/files"
	"github.com/thruflo/ttsdash/internal/inference"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/logstream"
	"github.com/thruflo/ttsdash/internal/training"
	"github.com/thruflo/ttsdash/internal/tui"
	"github.com/thruflo/ttsdash/internal/wizard"
)

var (
	dashboardTab     string
	dashboardDataset string
	dashboardEpochs  int
	dashboardFiles   []string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the terminal dashboard",
	Long: `Open the tabbed dashboard: inference, training, dataset and profile.

Keys: tab/1-4 switch tabs, up/down select or scroll, l load the selected
model, e edit text, enter synthesize, s stop training, q quit.

The dataset and profile tabs are display only: --files lists what would be
uploaded, but preparing a dataset needs 'ttsdash dataset' and changing the
profile needs 'ttsdash profile edit'.

Example:
  ttsdash dashboard --tab training --dataset narrator --epochs 20`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	f := dashboardCmd.Flags()
	f.StringVar(&dashboardTab, "tab", tui.TabInference.String(), "Tab to open: inference, training, dataset, profile")
	f.StringVar(&dashboardDataset, "dataset", "", "Start training on this dataset when the dashboard opens")
	f.IntVar(&dashboardEpochs, "epochs", 0, "Epochs for --dataset (default from config)")
	f.StringSliceVar(&dashboardFiles, "files", nil, "Files to show on the dataset tab")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	tab, err := tui.ParseTab(dashboardTab)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	_, profile, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}

	buf := logstream.NewBuffer()
	dash := tui.NewDashboard(cmd.OutOrStdout(), buf, tui.Options{
		Tab:         tab,
		MaxLogLines: a.cfg.Training.MaxLogLines,
	})
	dash.SetProfile(profile)

	// Operations report into the dashboard from here on.
	a.sink = dash

	streamURL, err := a.cfg.StreamURL(a.cfg.Training.LogsPath)
	if err != nil {
		return err
	}
	ctrl := training.NewController(a.client, buf, training.Options{
		StreamURL: streamURL,
		Header:    bearerHeader(a.client.Token()),
		Sink:      dash,
		Logger:    logging.With("component", "training"),
	})
	defer ctrl.Close()
	svc := inference.NewService(a.client, dash)

	if len(dashboardFiles) > 0 {
		collection := files.NewCollection(a.cfg.Dataset.AllowedExtensions)
		d := wizard.NewDataset(a.client, collection, dash)
		if _, _, err := d.AddFiles(dashboardFiles); err != nil {
			return err
		}
		dash.SetDataset(d.Stage().String(), d.Files(), collection.TotalSize())
	}

	if dashboardDataset != "" {
		epochs := dashboardEpochs
		if epochs == 0 {
			epochs = a.cfg.Training.DefaultEpochs
		}
		req := api.TrainStartRequest{Dataset: dashboardDataset, Epochs: epochs}
		if err := ctrl.Start(context.WithoutCancel(ctx), req); err == nil {
			dash.SetTraining(true, req.Dataset, req.Epochs)
		}
	}

	go handleDashboardActions(ctx, a, dash, ctrl, svc)

	if err := dash.Run(ctx, buf); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// handleDashboardActions carries out what the user asks for in the
// dashboard until ctx ends.
func handleDashboardActions(ctx context.Context, a *app, dash *tui.Dashboard, ctrl *training.Controller, svc *inference.Service) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-dash.Actions():
			switch ev.Action {
			case tui.ActionLoadModel:
				if m, err := svc.Load(ctx, ev.Model); err == nil {
					dash.SetLoadedModel(m.ID)
				}
			case tui.ActionSynthesize:
				line, err := synthesizeAndSave(ctx, svc, ev.Text, a.cfg.Inference.OutputDir)
				if err == nil {
					dash.SetLastSpeech(line)
				}
			case tui.ActionStopTraining:
				if err := ctrl.Stop(); err == nil {
					st := dash.State()
					dash.SetTraining(false, st.TrainingDataset, st.TrainingEpochs)
				}
			case tui.ActionQuit:
				return
			case tui.ActionNone:
			default:
				logging.Warn("unhandled dashboard action", "action", fmt.Sprint(ev.Action))
			}
		}
	}
}

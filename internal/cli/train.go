package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/logstream"
	"github.com/thruflo/ttsdash/internal/training"
)

var (
	trainDataset string
	trainEpochs  int
	trainDetach  bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Start model training and follow its logs",
	Long: `Start training on a prepared dataset and stream the training log.

The log is followed until the server closes it. Press Ctrl-C to stop
following; the log ends with "Training stopped by user.".

Example:
  ttsdash train --dataset narrator --epochs 20`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainDataset, "dataset", "", "Dataset (model name) to train on")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "Number of epochs (default from config)")
	trainCmd.Flags().BoolVar(&trainDetach, "detach", false, "Return once training has started")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if _, _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	epochs := trainEpochs
	if epochs == 0 {
		epochs = a.cfg.Training.DefaultEpochs
	}
	req := api.TrainStartRequest{Dataset: trainDataset, Epochs: epochs}

	ctrl, err := newTrainingController(a)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	stopPrinting := followBuffer(ctrl.Buffer(), a.out)
	defer stopPrinting()

	// The stream outlives ctx so Ctrl-C is handled below as a user stop.
	if err := ctrl.Start(context.WithoutCancel(ctx), req); err != nil {
		return err
	}
	if trainDetach {
		return nil
	}

	select {
	case <-ctrl.Done():
		logging.Info("training log closed", "dataset", req.Dataset)
	case <-ctx.Done():
		if err := ctrl.Stop(); err != nil && !errors.Is(err, training.ErrNotActive) {
			return err
		}
	}
	return nil
}

func newTrainingController(a *app) (*training.Controller, error) {
	streamURL, err := a.cfg.StreamURL(a.cfg.Training.LogsPath)
	if err != nil {
		return nil, err
	}
	return training.NewController(a.client, logstream.NewBuffer(), training.Options{
		StreamURL: streamURL,
		Header:    bearerHeader(a.client.Token()),
		Sink:      a.sink,
		Logger:    logging.With("component", "training"),
	}), nil
}

// followBuffer prints every entry appended to buf until the returned func
// is called.
func followBuffer(buf *logstream.Buffer, out io.Writer) func() {
	var mu sync.Mutex
	printed := 0
	flush := func() {
		mu.Lock()
		defer mu.Unlock()
		if buf.Len() < printed {
			printed = 0
		}
		for _, e := range buf.Since(printed) {
			fmt.Fprintln(out, e.String())
			printed++
		}
	}
	unsubscribe := buf.Subscribe(flush)
	return func() {
		unsubscribe()
		flush()
	}
}

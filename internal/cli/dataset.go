package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/files"
	"github.com/thruflo/ttsdash/internal/tui"
	"github.com/thruflo/ttsdash/internal/wizard"
)

var (
	datasetName   string
	datasetDryRun bool
)

var datasetCmd = &cobra.Command{
	Use:   "dataset <file>...",
	Short: "Upload audio files and prepare a training dataset",
	Long: `Collect audio files, create a model folder and send every accepted file
to the dataset pipeline.

Files whose extension is not in dataset.allowed_extensions (default .zip
.wav .txt .mp3 .flac) are reported and skipped; the rest are processed in
the order given.

Example:
  ttsdash dataset --name narrator clips/*.wav transcripts.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().StringVar(&datasetName, "name", "", "Model name (prompted when empty)")
	datasetCmd.Flags().BoolVar(&datasetDryRun, "dry-run", false, "Only list which files would be uploaded")
	rootCmd.AddCommand(datasetCmd)
}

func runDataset(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	collection := files.NewCollection(a.cfg.Dataset.AllowedExtensions)
	d := wizard.NewDataset(a.client, collection, a.sink)

	if _, _, err := d.AddFiles(args); err != nil {
		return err
	}
	printFiles(a, d.Files(), collection.TotalSize())
	if datasetDryRun {
		return nil
	}

	if _, _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	if err := submitDatasetStage(ctx, a, d, wizard.DatasetUpload, nil); err != nil {
		return err
	}

	name := datasetName
	if name == "" {
		if name, err = newPrompter(cmd).PromptLine("Model name: "); err != nil {
			return err
		}
	}
	if err := submitDatasetStage(ctx, a, d, wizard.DatasetName, wizard.Fields{wizard.FieldModelName: name}); err != nil {
		return err
	}
	if err := submitDatasetStage(ctx, a, d, wizard.DatasetPrepare, nil); err != nil {
		return err
	}

	for _, r := range d.Results() {
		fmt.Fprintf(a.out, "  %s: %d chunk(s), %.1f min\n", r.ModelDir, r.ChunksCount, r.DurationMinutes)
	}
	return nil
}

func submitDatasetStage(ctx context.Context, a *app, d *wizard.Dataset, stage wizard.DatasetStage, fields wizard.Fields) error {
	_, notice, err := d.SubmitStage(ctx, stage, fields)
	if err != nil {
		var ve *wizard.ValidationError
		var re *wizard.RequestError
		if errors.As(err, &ve) || errors.As(err, &re) {
			a.sink.Notify(wizard.FailureNotice(err))
		}
		return err
	}
	a.sink.Notify(notice)
	return nil
}

func printFiles(a *app, fs []files.Descriptor, total string) {
	if len(fs) == 0 {
		fmt.Fprintln(a.out, "No files accepted.")
		return
	}
	rows := make([][]string, 0, len(fs))
	for i, f := range fs {
		rows = append(rows, []string{strconv.Itoa(i + 1), f.Name, f.HumanSize(), f.MimeType})
	}
	for _, l := range tui.Table([]string{"#", "File", "Size", "Type"}, rows) {
		fmt.Fprintln(a.out, l)
	}
	fmt.Fprintf(a.out, "%d file(s), %s total\n", len(fs), total)
}

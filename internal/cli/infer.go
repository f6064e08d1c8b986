package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/inference"
)

var (
	inferModel     string
	inferText      string
	inferOutputDir string
	inferList      bool
)

var inferCmd = &cobra.Command{
	Use:   "infer [text]",
	Short: "Synthesize speech with a catalog model",
	Long: `Load a model and synthesize text. The WAV returned by the server is
saved to the output directory (inference.output_dir, or --out) and its
duration printed.

Example:
  ttsdash infer --model xtts-v2 "Hello from the terminal"
  ttsdash infer --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVar(&inferModel, "model", "", "Model id, see --list")
	inferCmd.Flags().StringVar(&inferText, "text", "", "Text to synthesize (or pass it as the argument)")
	inferCmd.Flags().StringVar(&inferOutputDir, "out", "", "Directory for the WAV file")
	inferCmd.Flags().BoolVar(&inferList, "list", false, "List the available models")
	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	if inferList {
		for _, m := range inference.Catalog {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-14s %s\n", m.ID, m.Name, m.Description)
		}
		return nil
	}

	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if _, _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	text := inferText
	if len(args) == 1 {
		text = args[0]
	}
	dir := inferOutputDir
	if dir == "" {
		dir = a.cfg.Inference.OutputDir
	}

	svc := inference.NewService(a.client, a.sink)
	if _, err := svc.Load(ctx, inferModel); err != nil {
		return err
	}
	line, err := synthesizeAndSave(ctx, svc, text, dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, line)
	return nil
}

// synthesizeAndSave runs one synthesis and describes the saved file.
func synthesizeAndSave(ctx context.Context, svc *inference.Service, text, dir string) (string, error) {
	sp, err := svc.Synthesize(ctx, strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	path, err := svc.Save(sp, dir)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s (%s, %d Hz, %s)",
		path, sp.Info.Duration().Round(10*time.Millisecond), sp.Info.SampleRate, sp.Model.Name), nil
}

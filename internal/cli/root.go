package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/config"
	"github.com/thruflo/ttsdash/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	flagConfigDir string
	flagAPIURL    string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "ttsdash",
	Short: "Operator client for the TTS management API",
	Long: `ttsdash signs in to the TTS management backend and drives its
operations from the terminal: speech synthesis, model training with live
logs, dataset preparation and profile management.

Configuration is read from config.yaml and .env in the config directory
($TTSDASH_CONFIG_DIR, or the user config dir under ttsdash/).`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("ttsdash version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigDir, "config-dir", "", "Config directory (overrides $TTSDASH_CONFIG_DIR)")
	pf.StringVar(&flagAPIURL, "api-url", "", "API base URL (overrides config)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx. Cancelling ctx (for example
// on Ctrl-C) interrupts long-running commands such as train.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logging.SetWriter(cmd.ErrOrStderr())
	if flagLogLevel == "" {
		return nil
	}
	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logging.SetLevel(level)
	return nil
}

// loadConfig resolves the config directory from flags and environment and
// applies the command-line overrides.
func loadConfig() (*config.Config, string, error) {
	var (
		cfg *config.Config
		dir string
		err error
	)
	if flagConfigDir != "" {
		dir = flagConfigDir
		cfg, err = config.LoadDir(dir)
	} else {
		cfg, dir, err = config.Load()
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, "", err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, "", err
	}
	logging.SetLevel(level)
	return cfg, dir, nil
}

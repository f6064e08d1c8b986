// Standalone fake TTS backend for trying ttsdash without the real API.
// Run with: go run ./cmd/ttsdash-mock --email ada@example.com --password test123
// Issued OTPs are printed to stdout since no mail is sent.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/mockapi"
)

var (
	addr          string
	email         string
	password      string
	firstname     string
	lastname      string
	trainSteps    int
	trainInterval time.Duration
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:          "ttsdash-mock",
	Short:        "Run an in-memory TTS management backend",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8000", "Listen address")
	f.StringVar(&email, "email", "ada@example.com", "Seed account email")
	f.StringVar(&password, "password", "test123", "Seed account password")
	f.StringVar(&firstname, "firstname", "Ada", "Seed account first name")
	f.StringVar(&lastname, "lastname", "Lovelace", "Seed account last name")
	f.IntVar(&trainSteps, "train-steps", 100, "Lines sent on /ws/train-logs")
	f.DurationVar(&trainInterval, "train-interval", time.Second, "Pause between training lines")
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func run(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	backend := mockapi.New(
		mockapi.WithTrainSteps(trainSteps, trainInterval),
		mockapi.WithLogger(logging.With("component", "mock")),
		mockapi.WithAttemptLimit(mockapi.DefaultAttemptLimit()),
		mockapi.WithOTPGenerator(func() string {
			otp := fmt.Sprintf("%06d", rand.IntN(1_000_000))
			fmt.Fprintf(cmd.OutOrStdout(), "OTP issued: %s\n", otp)
			return otp
		}),
	)
	userID, err := backend.AddUser(email, password, firstname, lastname)
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := mockapi.NewServer(backend, addr)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock API running on http://%s\n", addr)
	fmt.Fprintf(out, "Account: %s / %s (user id %s)\n", email, password, userID)
	fmt.Fprintln(out, "\nTry:")
	fmt.Fprintf(out, "  ttsdash --api-url http://%s login --email %s\n", addr, email)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	}
	return srv.Stop()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

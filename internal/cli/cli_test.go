package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/apitest"
	"github.com/thruflo/ttsdash/internal/mockapi"
	"github.com/thruflo/ttsdash/internal/session"
	"github.com/thruflo/ttsdash/internal/testutil"
	"github.com/thruflo/ttsdash/internal/training"
	"github.com/thruflo/ttsdash/internal/tui"
)

// syncBuffer is written by the log follower and the command concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// resetFlags restores every flag to its default so one test's flags do not
// leak into the next Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type cliEnv struct {
	ts        *apitest.TestServer
	configDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{ts: apitest.NewTestServer(t), configDir: t.TempDir()}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := testutil.StreamContext(t)
	defer cancel()

	resetFlags(rootCmd)
	out := &syncBuffer{}
	rootCmd.SetArgs(append([]string{"--config-dir", e.configDir, "--api-url", e.ts.URL()}, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	_, err := e.run(t, apitest.TestPassword+"\n", "login", "--email", apitest.TestEmail)
	require.NoError(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, apitest.TestPassword+"\n", "login", "--email", " ADA@example.com ")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful: Welcome back, Ada!")
	assert.FileExists(t, filepath.Join(e.configDir, session.FileName))

	out, err = e.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, apitest.TestEmail)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, e.ts.UserID)

	out, err = e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.NoFileExists(t, filepath.Join(e.configDir, session.FileName))

	_, err = e.run(t, "", "whoami")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestLoginPromptsForEmail(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, apitest.TestEmail+"\n"+apitest.TestPassword+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Login successful")
}

func TestLoginWrongPassword(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "wrong\n", "login", "--email", apitest.TestEmail)
	require.Error(t, err)
	testutil.AssertAPIStatus(t, err, 403)
	assert.Contains(t, out, "Login failed: Invalid credentials")
	assert.NoFileExists(t, filepath.Join(e.configDir, session.FileName))
}

func TestLogoutWithoutSession(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
}

func TestForgotPassword(t *testing.T) {
	e := newCLIEnv(t)

	stdin := strings.Join([]string{apitest.TestEmail, apitest.TestOTP, "new-secret", "new-secret"}, "\n") + "\n"
	out, err := e.run(t, stdin, "forgot-password")
	require.NoError(t, err)

	testutil.AssertLinesInOrder(t, strings.Split(out, "\n"), "OTP Sent", "OTP Verified", "Password Reset Successful")
	assert.True(t, e.ts.CheckPassword(apitest.TestEmail, "new-secret"))
	assert.False(t, e.ts.CheckPassword(apitest.TestEmail, apitest.TestPassword))
}

func TestForgotPasswordRetriesThenGivesUp(t *testing.T) {
	e := newCLIEnv(t)

	stdin := strings.Join([]string{apitest.TestEmail, "111111", "222222", "333333"}, "\n") + "\n"
	out, err := e.run(t, stdin, "forgot-password", "--email", apitest.TestEmail)
	require.Error(t, err)
	assert.Equal(t, 3, strings.Count(out, "OTP Verification Failed: Invalid OTP"))
	assert.Equal(t, 3, e.ts.Calls("POST /api/auth/verify-otp"))
	assert.True(t, e.ts.CheckPassword(apitest.TestEmail, apitest.TestPassword))
}

func TestForgotPasswordMismatchRetriesStage(t *testing.T) {
	e := newCLIEnv(t)

	stdin := strings.Join([]string{apitest.TestEmail, apitest.TestOTP, "one", "two", "fixed", "fixed"}, "\n") + "\n"
	out, err := e.run(t, stdin, "forgot-password", "--email", apitest.TestEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Password mismatch")
	assert.Equal(t, 1, e.ts.Calls("POST /api/auth/reset-password"))
	assert.True(t, e.ts.CheckPassword(apitest.TestEmail, "fixed"))
}

func TestForgotPasswordEmptyPasswordRetriesStage(t *testing.T) {
	e := newCLIEnv(t)

	stdin := strings.Join([]string{apitest.TestEmail, apitest.TestOTP, "", "", "fixed", "fixed"}, "\n") + "\n"
	out, err := e.run(t, stdin, "forgot-password", "--email", apitest.TestEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Missing password")
	assert.Equal(t, 1, e.ts.Calls("POST /api/auth/reset-password"))
	assert.True(t, e.ts.CheckPassword(apitest.TestEmail, "fixed"))
}

func TestProfileEdit(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)

	out, err := e.run(t, apitest.TestOTP+"\n", "profile", "edit", "--firstname", "Augusta")
	require.NoError(t, err)
	assert.Contains(t, out, "OTP Sent")
	assert.Contains(t, out, "Augusta Lovelace")

	p, ok := e.ts.ProfileOf(e.ts.UserID)
	require.True(t, ok)
	assert.Equal(t, "Augusta", p.Firstname)
	assert.Equal(t, apitest.TestEmail, p.Email)
}

func TestProfileEditRequiresChange(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)

	_, err := e.run(t, "", "profile", "edit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
	assert.Equal(t, 0, e.ts.Calls("POST /api/auth/send-otp"))
}

func TestDataset(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)
	bad, good := testutil.WriteDatasetFiles(t, t.TempDir())

	out, err := e.run(t, "", "dataset", "--name", "narrator", bad, good)
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid file type: notes.pdf is not a supported file type.")
	assert.Contains(t, out, "clip.wav")
	assert.Contains(t, out, "Dataset preparation complete")
	assert.Contains(t, out, "voice_models/narrator")
	assert.Equal(t, []string{"clip.wav"}, e.ts.ProcessedFiles("narrator"))
}

func TestDatasetDryRunMakesNoRequest(t *testing.T) {
	e := newCLIEnv(t)
	_, good := testutil.WriteDatasetFiles(t, t.TempDir())

	out, err := e.run(t, "", "dataset", "--dry-run", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s)")
	assert.Equal(t, 0, e.ts.Calls("POST /api/tts/createNewModelDir"))
}

func TestDatasetNoAcceptedFiles(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)
	bad, _ := testutil.WriteDatasetFiles(t, t.TempDir())

	out, err := e.run(t, "", "dataset", "--name", "narrator", bad)
	require.Error(t, err)
	assert.Contains(t, out, "No files accepted.")
	assert.Contains(t, out, "No files to prepare")
	assert.False(t, e.ts.HasModelDir("narrator"))
}

func TestTrainFollowsLogs(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)

	out, err := e.run(t, "", "train", "--dataset", "narrator", "--epochs", "12")
	require.NoError(t, err)

	testutil.AssertLinesInOrder(t, strings.Split(out, "\n"),
		"Training step 0", "Training step 1", "Training step 2")
	assert.Contains(t, out, "Training started")
	assert.Equal(t, []api.TrainStartRequest{{Dataset: "narrator", Epochs: 12}}, e.ts.Trainings())
}

func TestTrainStopsOnCancel(t *testing.T) {
	e := &cliEnv{
		ts:        apitest.NewTestServer(t, mockapi.WithTrainSteps(1000, 20*time.Millisecond)),
		configDir: t.TempDir(),
	}
	e.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resetFlags(rootCmd)
	out := &syncBuffer{}
	rootCmd.SetArgs([]string{"--config-dir", e.configDir, "--api-url", e.ts.URL(), "train", "--dataset", "narrator"})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	errCh := make(chan error, 1)
	go func() { errCh <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Training step 1") }, testutil.DefaultStreamTimeout, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	testutil.AssertLinesInOrder(t, lines, "Training step 1", training.StoppedMessage, "Training stopped")
}

func TestTrainRejectsEpochsOutOfRange(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)

	out, err := e.run(t, "", "train", "--dataset", "narrator", "--epochs", "3")
	assert.ErrorIs(t, err, training.ErrEpochsOutOfRange)
	assert.Contains(t, out, "Invalid epochs")
	assert.Empty(t, e.ts.Trainings())
}

func TestInfer(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)
	dir := t.TempDir()

	out, err := e.run(t, "", "infer", "--model", "xtts-v2", "--out", dir, "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Model loaded successfully")
	assert.Contains(t, out, "Saved ")
	assert.Contains(t, out, "22050 Hz")

	matches, err := filepath.Glob(filepath.Join(dir, "xtts-v2-*.wav"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestInferEmptyText(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t)

	out, err := e.run(t, "", "infer", "--model", "xtts-v2", "--out", t.TempDir(), "   ")
	require.Error(t, err)
	assert.Contains(t, out, "No text provided")
	assert.Equal(t, 0, e.ts.Calls("POST /api/tts/synthesize"))
}

func TestInferList(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "infer", "--list")
	require.NoError(t, err)
	for _, id := range []string{"xtts-v2", "your-tts", "tacotron2", "fastspeech2"} {
		assert.Contains(t, out, id)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	e := newCLIEnv(t)

	for _, args := range [][]string{
		{"whoami"},
		{"infer", "--model", "xtts-v2", "hi"},
		{"train", "--dataset", "narrator"},
		{"profile", "edit", "--firstname", "x"},
	} {
		_, err := e.run(t, "", args...)
		assert.ErrorIs(t, err, session.ErrNotAuthenticated, args)
	}
}

func TestDashboardRejectsUnknownTab(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run(t, "", "dashboard", "--tab", "settings")
	assert.ErrorIs(t, err, tui.ErrUnknownTab)
}

func TestDashboardHelpPointsToEditingCommands(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "dashboard", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "display only")
	assert.Contains(t, out, "ttsdash dataset")
	assert.Contains(t, out, "ttsdash profile edit")
}

func TestInvalidLogLevel(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run(t, "", "--log-level", "loud", "infer", "--list")
	assert.Error(t, err)
}

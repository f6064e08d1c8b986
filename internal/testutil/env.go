package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thruflo/ttsdash/internal/mockapi"
)

// SetupConfigDir creates a temp config directory holding SampleConfigYAML
// as config.yaml and SampleEnvFile as .env.
func SetupConfigDir(t testing.TB) string {
	t.Helper()

	dir := t.TempDir()
	WriteTestFile(t, dir, "config.yaml", []byte(SampleConfigYAML))
	WriteTestFile(t, dir, ".env", []byte(SampleEnvFile))
	return dir
}

// WriteDatasetFiles writes a file with a disallowed extension and a short
// silent WAV into dir and returns their paths in that order.
func WriteDatasetFiles(t testing.TB, dir string) (rejected, accepted string) {
	t.Helper()

	rejected = filepath.Join(dir, "notes.pdf")
	accepted = filepath.Join(dir, "clip.wav")
	WriteTestFile(t, dir, "notes.pdf", []byte("%PDF-1.4"))
	WriteTestFile(t, dir, "clip.wav", mockapi.SilentWAV(SampleClipDuration, SampleSampleRate))
	return rejected, accepted
}

// WriteTestFile writes content to base/relativePath, creating parents.
func WriteTestFile(t testing.TB, basePath, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
}

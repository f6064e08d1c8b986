// Package testutil provides shared test helpers for ttsdash.
//
// # Contexts
//
//   - ContextWithTestDeadline(t, fallback) - respects the test deadline
//   - ShortContext(t) - for single request/response round trips
//   - StreamContext(t) - for tests that wait on a log stream
//
// # Fixtures
//
//   - SampleConfigYAML, SampleEnvFile - config directory contents
//   - SetupConfigDir(t) - temp config dir holding both files
//   - WriteDatasetFiles(t, dir) - one rejected and one accepted upload
//   - WriteTestFile(t, base, path, content) - writes a file under base
//
// # Assertions
//
//   - AssertNoticeTitles(t, rec, titles...) - notices in order
//   - AssertLastNotice(t, rec, kind, title) - most recent notice
//   - AssertLinesInOrder(t, lines, want...) - log lines as a subsequence
//   - AssertAPIStatus(t, err, status) - *api.APIError status code
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    ctx, cancel := testutil.ShortContext(t)
//	    defer cancel()
//	    bad, good := testutil.WriteDatasetFiles(t, t.TempDir())
//	    // ...
//	}
package testutil

// Package apitest runs the mockapi backend behind httptest for package
// tests, seeded with a known account.
package apitest

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thruflo/ttsdash/internal/mockapi"
)

// Test account used by NewTestServer.
const (
	TestEmail     = "ada@example.com"
	TestPassword  = "correct-horse"
	TestFirstname = "Ada"
	TestLastname  = "Lovelace"
	TestOTP       = "424242"
)

// TestServer is a Backend behind an httptest.Server, seeded with the test
// account and a fixed OTP.
type TestServer struct {
	*mockapi.Backend
	Server *httptest.Server
	UserID string
}

// NewTestServer starts a seeded backend that is closed when the test ends.
// Options are applied after the defaults, so they can override the OTP.
func NewTestServer(t testing.TB, opts ...mockapi.Option) *TestServer {
	t.Helper()

	defaults := []mockapi.Option{
		mockapi.WithOTPGenerator(func() string { return TestOTP }),
		mockapi.WithTrainSteps(3, 0),
	}
	b := mockapi.New(append(defaults, opts...)...)

	id, err := b.AddUser(TestEmail, TestPassword, TestFirstname, TestLastname)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	return &TestServer{Backend: b, Server: srv, UserID: id}
}

// URL returns the http base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// WSURL returns the ws base URL.
func (ts *TestServer) WSURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http")
}

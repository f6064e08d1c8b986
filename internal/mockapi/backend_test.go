package mockapi_test

import (
	"bytes"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/apitest"
	"github.com/thruflo/ttsdash/internal/mockapi"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func post(t *testing.T, ts *apitest.TestServer, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	data, err := sonic.ConfigStd.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL()+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.NoError(t, sonic.ConfigStd.Unmarshal(buf.Bytes(), &out))
	return resp, out
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()
	ts := apitest.NewTestServer(t)

	resp, body := post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: "nope"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["detail"])

	resp, body = post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: "who@example.com", Password: "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["detail"])
}

func TestLogoutBlacklistsToken(t *testing.T) {
	t.Parallel()
	ts := apitest.NewTestServer(t)

	_, body := post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: apitest.TestPassword})
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "bearer", body["token_type"])

	resp, body := post(t, ts, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	_, body = post(t, ts, "/api/auth/logout", token, nil)
	assert.Equal(t, "Token already logged out", body["message"])

	req, err := http.NewRequest(http.MethodGet, ts.URL()+"/api/auth/profile/"+ts.UserID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOTPExpires(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ts := apitest.NewTestServer(t, mockapi.WithClock(clock))

	resp, _ := post(t, ts, "/api/auth/forget", "", api.EmailRequest{Email: apitest.TestEmail})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	otp, ok := ts.IssuedOTP(apitest.TestEmail)
	require.True(t, ok)
	assert.Equal(t, apitest.TestOTP, otp)

	mu.Lock()
	now = now.Add(mockapi.OTPTTL + time.Second)
	mu.Unlock()

	resp, body := post(t, ts, "/api/auth/verify-otp", "", api.VerifyOTPRequest{Email: apitest.TestEmail, OTP: otp})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "OTP expired or not verified", body["detail"])
}

func TestCallsCountsByRouteTemplate(t *testing.T) {
	t.Parallel()
	ts := apitest.NewTestServer(t)

	post(t, ts, "/api/tts/createNewModelDir", "", api.ModelDirRequest{Name: "voice-a"})
	post(t, ts, "/api/tts/createNewModelDir", "", api.ModelDirRequest{Name: "voice-b"})

	assert.Equal(t, 2, ts.Calls("POST /api/tts/createNewModelDir"))
	assert.Equal(t, 0, ts.Calls("POST /api/tts/process-dataset"))
	assert.True(t, ts.HasModelDir("voice-a"))
}

func TestLoginAttemptLimit(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	ts := apitest.NewTestServer(t, mockapi.WithClock(clock.Now), mockapi.WithAttemptLimit(mockapi.AttemptLimit{
		MaxAttempts: 10, Window: time.Minute, BlockAfter: 2, BlockTime: time.Minute,
	}))

	for i := 0; i < 2; i++ {
		resp, _ := post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: "nope"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	resp, body := post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: apitest.TestPassword})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, "Too many failed attempts. Try again in 60s.", body["detail"])

	clock.Advance(time.Minute + time.Second)
	resp, body = post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: apitest.TestPassword})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
}

func TestVerifyOTPAttemptLimit(t *testing.T) {
	t.Parallel()
	ts := apitest.NewTestServer(t, mockapi.WithAttemptLimit(mockapi.AttemptLimit{MaxAttempts: 2, Window: time.Minute, BlockAfter: 10, BlockTime: time.Minute}))

	resp, _ := post(t, ts, "/api/auth/forget", "", api.EmailRequest{Email: apitest.TestEmail})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = post(t, ts, "/api/auth/verify-otp", "", api.VerifyOTPRequest{Email: apitest.TestEmail, OTP: "000000"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = post(t, ts, "/api/auth/verify-otp", "", api.VerifyOTPRequest{Email: apitest.TestEmail, OTP: apitest.TestOTP})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := post(t, ts, "/api/auth/verify-otp", "", api.VerifyOTPRequest{Email: apitest.TestEmail, OTP: apitest.TestOTP})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body["detail"], "Too many attempts.")
}

func TestNoAttemptLimitByDefault(t *testing.T) {
	t.Parallel()
	ts := apitest.NewTestServer(t)

	for i := 0; i < 12; i++ {
		resp, _ := post(t, ts, "/api/auth/login", "", api.LoginRequest{Email: apitest.TestEmail, Password: "nope"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

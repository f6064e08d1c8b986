// Package api is the typed HTTP client for the TTS management backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/thruflo/ttsdash/internal/logging"
)

// RequestIDHeader carries a per-call identifier for correlating client and
// backend logs.
const RequestIDHeader = "X-Request-ID"

// TokenCookie is the name of the cookie that mirrors the access token.
const TokenCookie = "token"

// TokenCookieTTL is how long the mirrored cookie stays valid.
const TokenCookieTTL = 7 * 24 * time.Hour

// Client calls the backend endpoints. It is safe for concurrent use.
type Client struct {
	// baseURL is the backend root, e.g. "http://localhost:8000"
	baseURL string

	httpClient *http.Client
	logger     *logging.Logger

	// mu protects token
	mu    sync.RWMutex
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached if the
// client has none.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList.
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}

	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token and mirrors it into the "token" cookie.
// An empty token clears both.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}

	cookie := &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(TokenCookieTTL),
	}
	if token == "" {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{cookie})
}

// TokenCookie returns the mirrored token cookie, or nil if none is set.
// Secure cookies are only visible to https URLs, so the lookup is done
// against the https form of the base URL.
func (c *Client) TokenCookie() *http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	u.Scheme = "https"
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		if ck.Name == TokenCookie {
			return ck
		}
	}
	return nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Email: NormalizeEmail(email), Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Logout invalidates the current token on the backend. The local token is
// cleared only when the call succeeds.
func (c *Client) Logout(ctx context.Context) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, &resp); err != nil {
		return nil, err
	}
	c.SetToken("")
	return &resp, nil
}

// Profile fetches the profile of userID.
func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	var resp Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile applies a profile change confirmed by otp.
func (c *Client) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*MessageResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/profile/"+url.PathEscape(userID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Forget asks the backend to email a password-reset OTP.
func (c *Client) Forget(ctx context.Context, email string) (*MessageResponse, error) {
	return c.message(ctx, "/api/auth/forget", EmailRequest{Email: NormalizeEmail(email)})
}

// VerifyOTP checks a password-reset OTP.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*MessageResponse, error) {
	return c.message(ctx, "/api/auth/verify-otp", VerifyOTPRequest{Email: NormalizeEmail(email), OTP: otp})
}

// ResetPassword sets a new password using a verified OTP.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (*MessageResponse, error) {
	return c.message(ctx, "/api/auth/reset-password", ResetPasswordRequest{
		Email:       NormalizeEmail(email),
		OTP:         otp,
		NewPassword: newPassword,
	})
}

// SendOTP asks the backend to email an OTP confirming a profile change.
func (c *Client) SendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	return c.message(ctx, "/api/auth/send-otp", EmailRequest{Email: NormalizeEmail(email)})
}

// CreateModelDir creates the model directory that datasets are processed into.
func (c *Client) CreateModelDir(ctx context.Context, name string) (*MessageResponse, error) {
	return c.message(ctx, "/api/tts/createNewModelDir", ModelDirRequest{Name: name})
}

// ProcessDataset uploads one file from path as the "audio_file" part of a
// multipart request for the named model.
func (c *Client) ProcessDataset(ctx context.Context, name, path string) (*ProcessDatasetResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.ProcessDatasetReader(ctx, name, filepath.Base(path), f)
}

// ProcessDatasetReader is ProcessDataset for an already-open reader.
func (c *Client) ProcessDatasetReader(ctx context.Context, name, filename string, r io.Reader) (*ProcessDatasetResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("failed to write name field: %w", err)
	}
	part, err := mw.CreateFormFile("audio_file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/tts/process-dataset", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	var resp ProcessDatasetResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartTraining asks the backend to start a training run. A 2xx response
// with success=false is reported as an *APIError carrying the message.
func (c *Client) StartTraining(ctx context.Context, req TrainStartRequest) (*TrainStartResponse, error) {
	var resp TrainStartResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/train/start", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, &APIError{
			Method: http.MethodPost,
			Path:   "/api/train/start",
			Status: http.StatusOK,
			Detail: resp.Message,
		}
	}
	return &resp, nil
}

// LoadModel asks the backend to load an inference model.
func (c *Client) LoadModel(ctx context.Context, model string) (*MessageResponse, error) {
	return c.message(ctx, "/api/tts/load-model", LoadModelRequest{Model: model})
}

// Synthesize returns WAV audio for text spoken by model.
func (c *Client) Synthesize(ctx context.Context, model, text string) ([]byte, error) {
	body, err := encode(SynthesizeRequest{Model: model, Text: text})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/tts/synthesize", "application/json", bytes.NewReader(body))
}

func (c *Client) message(ctx context.Context, path string, body interface{}) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	contentType := ""
	if body != nil {
		data, err := encode(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
		contentType = "application/json"
	}

	raw, err := c.do(ctx, method, path, contentType, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decode(raw, out)
}

// do performs one request and returns the raw 2xx body. Non-2xx responses
// become *APIError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	c.addAuthHeader(req)

	log := c.logger.WithFields(map[string]interface{}{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Debug("received response", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: parseDetail(raw),
		}
	}
	return raw, nil
}

func (c *Client) addAuthHeader(req *http.Request) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encode(v interface{}) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

func decode(data []byte, v interface{}) error {
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

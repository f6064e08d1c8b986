// Package mockapi provides an in-memory implementation of the TTS backend
// API. It backs the ttsdash-mock development server, and package tests
// through apitest.
package mockapi

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logging"
)

// OTPTTL is how long an issued OTP stays valid.
const OTPTTL = 5 * time.Minute

// DefaultModels are the inference models the backend can load.
var DefaultModels = []string{"xtts-v2", "your-tts", "tacotron2", "fastspeech2"}

type user struct {
	id           string
	email        string
	firstname    string
	lastname     string
	passwordHash []byte
}

type otpRecord struct {
	code   string
	expiry time.Time
}

// Backend is a fake TTS backend. The zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	usersByEmail map[string]*user
	usersByID    map[string]*user
	otps         map[string]otpRecord
	tokens       map[string]string // token -> user id
	blacklist    map[string]bool

	modelDirs map[string]bool
	processed map[string][]string // model name -> uploaded file names
	models    map[string]bool
	loaded    map[string]bool

	trainings    []api.TrainStartRequest
	trainFailure string

	calls map[string]int // "METHOD /path/template" -> count

	now           func() time.Time
	generateOTP   func() string
	trainSteps    int
	trainInterval time.Duration
	logger        *logging.Logger
	limiter       *attemptLimiter // nil: unlimited

	router   *mux.Router
	upgrader websocket.Upgrader
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the time source used for OTP expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// WithOTPGenerator replaces the random 6-digit OTP generator.
func WithOTPGenerator(gen func() string) Option {
	return func(b *Backend) {
		b.generateOTP = gen
	}
}

// WithTrainSteps sets how many "Training step N" lines the train-logs
// socket sends and the pause between them.
func WithTrainSteps(steps int, interval time.Duration) Option {
	return func(b *Backend) {
		b.trainSteps = steps
		b.trainInterval = interval
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// New creates a Backend with no users.
func New(opts ...Option) *Backend {
	b := &Backend{
		usersByEmail:  make(map[string]*user),
		usersByID:     make(map[string]*user),
		otps:          make(map[string]otpRecord),
		tokens:        make(map[string]string),
		blacklist:     make(map[string]bool),
		modelDirs:     make(map[string]bool),
		processed:     make(map[string][]string),
		models:        make(map[string]bool),
		loaded:        make(map[string]bool),
		calls:         make(map[string]int),
		now:           time.Now,
		generateOTP:   randomOTP,
		trainSteps:    100,
		trainInterval: time.Second,
		logger:        logging.Default(),
	}
	for _, m := range DefaultModels {
		b.models[m] = true
	}

	for _, opt := range opts {
		opt(b)
	}

	b.router = b.routes()
	return b
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.countCalls)

	a := r.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/login", b.handleLogin).Methods(http.MethodPost)
	a.HandleFunc("/logout", b.handleLogout).Methods(http.MethodPost)
	a.HandleFunc("/profile/{userId}", b.withAuth(b.handleGetProfile)).Methods(http.MethodGet)
	a.HandleFunc("/profile/{userId}", b.handleUpdateProfile).Methods(http.MethodPut)
	a.HandleFunc("/forget", b.handleForget).Methods(http.MethodPost)
	a.HandleFunc("/verify-otp", b.handleVerifyOTP).Methods(http.MethodPost)
	a.HandleFunc("/reset-password", b.handleResetPassword).Methods(http.MethodPost)
	a.HandleFunc("/send-otp", b.handleSendOTP).Methods(http.MethodPost)

	t := r.PathPrefix("/api/tts").Subrouter()
	t.HandleFunc("/createNewModelDir", b.handleCreateModelDir).Methods(http.MethodPost)
	t.HandleFunc("/process-dataset", b.handleProcessDataset).Methods(http.MethodPost)
	t.HandleFunc("/load-model", b.handleLoadModel).Methods(http.MethodPost)
	t.HandleFunc("/synthesize", b.handleSynthesize).Methods(http.MethodPost)

	r.HandleFunc("/api/train/start", b.handleTrainStart).Methods(http.MethodPost)
	r.HandleFunc("/ws/train-logs", b.handleTrainLogs)

	return r
}

// countCalls records every matched request by route template.
func (b *Backend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		b.mu.Lock()
		b.calls[r.Method+" "+path]++
		b.mu.Unlock()

		b.logger.Debug("backend request", "method", r.Method, "path", path,
			"request_id", r.Header.Get(api.RequestIDHeader))
		next.ServeHTTP(w, r)
	})
}

// withAuth rejects requests without a live bearer token.
func (b *Backend) withAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}

		b.mu.Lock()
		blacklisted := b.blacklist[token]
		_, known := b.tokens[token]
		b.mu.Unlock()

		if blacklisted {
			writeDetail(w, http.StatusUnauthorized, "Token has been logged out")
			return
		}
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		handler(w, r)
	}
}

// AddUser registers a verified account and returns its id.
func (b *Backend) AddUser(email, password, firstname, lastname string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	email = api.NormalizeEmail(email)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.usersByEmail[email]; exists {
		return "", fmt.Errorf("user %s already exists", email)
	}
	u := &user{
		id:           strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		email:        email,
		firstname:    firstname,
		lastname:     lastname,
		passwordHash: hash,
	}
	b.usersByEmail[email] = u
	b.usersByID[u.id] = u
	return u.id, nil
}

// IssuedOTP returns the most recent OTP issued for email, as the user would
// read it from their inbox.
func (b *Backend) IssuedOTP(email string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.otps[api.NormalizeEmail(email)]
	return rec.code, ok
}

// ProfileOf returns the stored profile of userID.
func (b *Backend) ProfileOf(userID string) (api.Profile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.usersByID[userID]
	if !ok {
		return api.Profile{}, false
	}
	return u.profile(), true
}

// CheckPassword reports whether password is the current password of email.
func (b *Backend) CheckPassword(email, password string) bool {
	b.mu.Lock()
	u, ok := b.usersByEmail[api.NormalizeEmail(email)]
	var hash []byte
	if ok {
		hash = u.passwordHash
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Calls returns how many requests matched the route "METHOD /template",
// e.g. "POST /api/auth/verify-otp".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// ProcessedFiles returns the file names uploaded for model, in order.
func (b *Backend) ProcessedFiles(model string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.processed[model]...)
}

// HasModelDir reports whether createNewModelDir was called for name.
func (b *Backend) HasModelDir(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelDirs[name]
}

// Trainings returns every accepted training request.
func (b *Backend) Trainings() []api.TrainStartRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.TrainStartRequest(nil), b.trainings...)
}

// FailTrainingStart makes subsequent train/start calls answer
// success=false with msg. An empty msg restores normal behavior.
func (b *Backend) FailTrainingStart(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trainFailure = msg
}

func (u *user) profile() api.Profile {
	return api.Profile{ID: u.id, Firstname: u.firstname, Lastname: u.lastname, Email: u.email}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(h, prefix)
	return token, token != ""
}

func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "123456"
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

// readJSON decodes the request body into v, answering 422 on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = sonic.ConfigStd.Unmarshal(data, v)
	}
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

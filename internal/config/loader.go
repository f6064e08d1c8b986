package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultBaseURL       = "http://localhost:8000"
	DefaultTimeout       = 30 * time.Second
	DefaultLogLevel      = "warn"
	DefaultEpochs        = 10
	MinEpochs            = 6
	MaxEpochs            = 1000
	DefaultTrainLogsPath = "/ws/train-logs"
	DefaultMaxLogLines   = 5000
)

// Environment variables consulted by ApplyEnv.
const (
	EnvConfigDir = "TTSDASH_CONFIG_DIR"
	EnvAPIURL    = "TTSDASH_API_URL"
	EnvWSURL     = "TTSDASH_WS_URL"
	EnvLogLevel  = "TTSDASH_LOG_LEVEL"
	EnvOutputDir = "TTSDASH_OUTPUT_DIR"
)

// DefaultAllowedExtensions are the dataset file types the backend accepts.
func DefaultAllowedExtensions() []string {
	return []string{".zip", ".wav", ".txt", ".mp3", ".flac"}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Dataset: DatasetConfig{
			AllowedExtensions: DefaultAllowedExtensions(),
		},
		Training: TrainingConfig{
			DefaultEpochs: DefaultEpochs,
			LogsPath:      DefaultTrainLogsPath,
			MaxLogLines:   DefaultMaxLogLines,
		},
		Inference: InferenceConfig{OutputDir: "."},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Dir returns the ttsdash config directory: $TTSDASH_CONFIG_DIR if set,
// otherwise <user config dir>/ttsdash.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "ttsdash"), nil
}

// LoadConfig reads and parses config.yaml from dir.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load resolves the config directory and loads it with LoadDir.
func Load() (*Config, string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadDir(dir)
	if err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

// LoadDir reads config.yaml from dir, then applies the .env file found
// there and the process environment, in that order.
func LoadDir(dir string) (*Config, error) {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	env, err := LoadEnvFile(dir)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{EnvAPIURL, EnvWSURL, EnvLogLevel, EnvOutputDir} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	if err := ApplyEnv(cfg, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile parses the .env file in dir. A missing file yields an empty map.
func LoadEnvFile(dir string) (map[string]string, error) {
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}

// ApplyEnv overrides config values from TTSDASH_* keys and revalidates.
func ApplyEnv(cfg *Config, env map[string]string) error {
	if v := env[EnvAPIURL]; v != "" {
		cfg.API.BaseURL = v
	}
	if v := env[EnvWSURL]; v != "" {
		cfg.API.WSURL = v
	}
	if v := env[EnvLogLevel]; v != "" {
		cfg.Log.Level = v
	}
	if v := env[EnvOutputDir]; v != "" {
		cfg.Inference.OutputDir = v
	}
	return ValidateConfig(cfg)
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if err := validateURL("api.base_url", cfg.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if cfg.API.WSURL != "" {
		if err := validateURL("api.ws_url", cfg.API.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if cfg.API.Timeout <= 0 {
		return ValidationError{Field: "api.timeout", Message: "must be positive"}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", cfg.Log.Level)}
	}
	if len(cfg.Dataset.AllowedExtensions) == 0 {
		return ValidationError{Field: "dataset.allowed_extensions", Message: "must not be empty"}
	}
	for _, ext := range cfg.Dataset.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return ValidationError{Field: "dataset.allowed_extensions", Message: fmt.Sprintf("%q must start with '.'", ext)}
		}
	}
	if cfg.Training.DefaultEpochs < MinEpochs || cfg.Training.DefaultEpochs > MaxEpochs {
		return ValidationError{Field: "training.default_epochs", Message: fmt.Sprintf("must be between %d and %d", MinEpochs, MaxEpochs)}
	}
	if !strings.HasPrefix(cfg.Training.LogsPath, "/") {
		return ValidationError{Field: "training.logs_path", Message: "must start with '/'"}
	}
	if cfg.Training.MaxLogLines < 0 {
		return ValidationError{Field: "training.max_log_lines", Message: "must not be negative"}
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL %q", raw)}
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("scheme must be one of %s", strings.Join(schemes, ", "))}
}

// StreamURL returns the WebSocket URL for path. An explicit api.ws_url wins;
// otherwise the base URL's scheme is swapped (http→ws, https→wss).
func (c *Config) StreamURL(path string) (string, error) {
	base := c.API.WSURL
	if base == "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse base URL: %w", err)
		}
		switch u.Scheme {
		case "https":
			u.Scheme = "wss"
		default:
			u.Scheme = "ws"
		}
		base = u.String()
	}
	return strings.TrimSuffix(base, "/") + path, nil
}

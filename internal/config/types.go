package config

import "time"

// APIConfig locates the TTS management backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	WSURL   string        `yaml:"ws_url,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls the ttsdash logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DatasetConfig controls local file collection before preparation.
type DatasetConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// TrainingConfig holds training defaults and bounds.
type TrainingConfig struct {
	DefaultEpochs int    `yaml:"default_epochs"`
	LogsPath      string `yaml:"logs_path"`
	MaxLogLines   int    `yaml:"max_log_lines"`
}

// InferenceConfig controls where synthesized audio is written.
type InferenceConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Config represents the config.yaml file in the ttsdash config directory.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Training  TrainingConfig  `yaml:"training"`
	Inference InferenceConfig `yaml:"inference"`
}

package testutil

import (
	"time"
)

// SampleConfigYAML is a config.yaml that sets every section.
const SampleConfigYAML = `api:
  base_url: http://127.0.0.1:8000
  timeout: 10s
log:
  level: debug
dataset:
  allowed_extensions: [".wav", ".zip"]
training:
  default_epochs: 12
  max_log_lines: 200
inference:
  output_dir: speech
`

// SampleEnvFile is a .env file overriding the API URL.
const SampleEnvFile = "TTSDASH_API_URL=http://127.0.0.1:9000\n"

// SampleClipDuration is the length of the WAV written by WriteDatasetFiles.
const SampleClipDuration = 250 * time.Millisecond

// SampleSampleRate is the sample rate of the WAV written by WriteDatasetFiles.
const SampleSampleRate = 22050

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	Port      string
	AWSRegion string

	// Remote media storage. S3 is active only when a bucket is configured
	// and mock mode is off.
	S3Bucket string
	S3Prefix string

	// Scoring backend endpoint names. An empty name means that backend is
	// not deployed and its contribution soft-defaults to zero.
	AudioEndpoint string
	MacroEndpoint string
	MicroEndpoint string

	OpenAIKey    string
	WhisperModel string
	LieLLMModel  string

	LocalMediaRoot string
	MaxUploadMB    int64
	ScoringTimeout time.Duration

	// UseMockServices swaps every external collaborator (SageMaker, S3,
	// Whisper, the LLM) for its deterministic local stand-in.
	UseMockServices bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	maxUploadMB, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "500"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	timeoutSec, err := strconv.Atoi(getEnv("SCORING_TIMEOUT_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORING_TIMEOUT_SECONDS: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("S3_BUCKET_NAME"),
		S3Prefix:        getEnv("S3_PREFIX", "sessions"),
		AudioEndpoint:   os.Getenv("AUDIO_MODEL_ENDPOINT"),
		MacroEndpoint:   os.Getenv("MACRO_MODEL_ENDPOINT"),
		MicroEndpoint:   os.Getenv("MICRO_MODEL_ENDPOINT"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		WhisperModel:    getEnv("WHISPER_MODEL", "whisper-1"),
		LieLLMModel:     getEnv("LIE_LLM_MODEL", "gpt-4o-mini"),
		LocalMediaRoot:  getEnv("LOCAL_MEDIA_ROOT", "storage"),
		MaxUploadMB:     maxUploadMB,
		ScoringTimeout:  time.Duration(timeoutSec) * time.Second,
		UseMockServices: getEnv("USE_MOCK_SERVICES", "false") == "true",
	}

	if err := os.MkdirAll(cfg.LocalMediaRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root %s: %w", cfg.LocalMediaRoot, err)
	}

	return cfg, nil
}

// MetaRoot is where per-session JSON documents live.
func (c *Config) MetaRoot() string {
	return filepath.Join(c.LocalMediaRoot, "meta")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

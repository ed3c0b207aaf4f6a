package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Batch directories
	InputDir  string
	OutputDir string

	// Resource limits, enforced per document
	MaxPages   int
	DocTimeout time.Duration

	// Also accept Markdown, HTML and DOCX inputs in batch mode.
	NativeFormats bool

	// Run ledger; empty disables it.
	LedgerPath string

	// Statistical heading fallback
	FallbackClassifier bool
	FallbackSamples    string

	// HTTP surface
	Port           string
	APIKey         string
	MaxUploadBytes int64

	LogLevel   string
	ConfigFile string

	Heuristics Heuristics
}

func Load() Config {
	cfg := Config{
		InputDir:  envOr("INPUT_DIR", "/app/input"),
		OutputDir: envOr("OUTPUT_DIR", "/app/output"),

		MaxPages:   envInt("MAX_PAGES", 50),
		DocTimeout: envDuration("DOC_TIMEOUT", 10*time.Second),

		NativeFormats: envBool("NATIVE_FORMATS", false),

		LedgerPath: os.Getenv("LEDGER_PATH"),

		FallbackClassifier: envBool("FALLBACK_CLASSIFIER", false),
		FallbackSamples:    os.Getenv("FALLBACK_SAMPLES"),

		Port:           envOr("PORT", "8090"),
		APIKey:         os.Getenv("API_KEY"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		LogLevel:   envOr("LOG_LEVEL", "info"),
		ConfigFile: os.Getenv("CONFIG_FILE"),

		Heuristics: DefaultHeuristics(),
	}

	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.DocTimeout <= 0 {
		cfg.DocTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.InputDir == c.OutputDir {
		return fmt.Errorf("INPUT_DIR and OUTPUT_DIR must differ")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Heuristics.Validate()
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

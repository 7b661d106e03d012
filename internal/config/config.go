package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath          string
	CorpusRoot      string
	CorpusExtension string
	ImageRoot       string
	ImageDirMin     int
	ImageDirMax     int
	BatchSize       int
	SampleSize      int
	SearchLimit     int
	SnippetLength   int
	APIPort         string
	LogLevel        slog.Level
	LogFormat       string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric ones.
// If a .env file exists in the current directory or up to five parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "./data/text_search.db"),
		CorpusRoot:      getEnv("CORPUS_ROOT", "./TEXT"),
		CorpusExtension: getEnv("CORPUS_EXTENSION", ".txt"),
		APIPort:         getEnv("API_PORT", "5000"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// Images sit beside the text tree by default.
	cfg.ImageRoot = getEnv("IMAGE_ROOT", filepath.Dir(filepath.Clean(cfg.CorpusRoot)))

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"IMAGE_DIR_MIN", 1, &cfg.ImageDirMin},
		{"IMAGE_DIR_MAX", 12, &cfg.ImageDirMax},
		{"INDEX_BATCH_SIZE", 100, &cfg.BatchSize},
		{"INDEX_SAMPLE_SIZE", 10240, &cfg.SampleSize},
		{"SEARCH_LIMIT", 10000, &cfg.SearchLimit},
		{"SNIPPET_LENGTH", 1000, &cfg.SnippetLength},
	}
	for _, v := range ints {
		n, err := getPositiveInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dest = n
	}
	if cfg.ImageDirMin > cfg.ImageDirMax {
		return nil, fmt.Errorf("IMAGE_DIR_MIN (%d) must not exceed IMAGE_DIR_MAX (%d)", cfg.ImageDirMin, cfg.ImageDirMax)
	}
	if cfg.ImageDirMax > 999 {
		return nil, fmt.Errorf("IMAGE_DIR_MAX must be at most 999")
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the first .env found walking up from the working directory.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i <= 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

package config

import (
	"log/slog"
	"os"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL         string
	HTTPPort            string
	AdminAPIKey         string
	RevalidateInterval  time.Duration
	SheetsSpreadsheetID string
	GoogleCredsJSON     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:         envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:            envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:         envOrDefault("ADMIN_API_KEY", ""),
		RevalidateInterval:  envOrDefaultDuration("REVALIDATE_INTERVAL", 24*time.Hour),
		SheetsSpreadsheetID: envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredsJSON:     envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// SheetsExportEnabled reports whether the Google Sheets dashboard export is
// fully configured.
func (c Config) SheetsExportEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.GoogleCredsJSON != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

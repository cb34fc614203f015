package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment       string
	HTTPPort          string
	DatabasePath      string
	Debug             bool
	PageTokenSecret   string
	MaxSourceBytes    int
	MaxRulesets       int
	RetentionDays     int
	RetentionSchedule string
	NotifyURLs        []string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:       getEnv("AEGIS_ENV", "development"),
		HTTPPort:          getEnv("AEGIS_HTTP_PORT", "8080"),
		DatabasePath:      getEnv("AEGIS_DB_PATH", filepath.Join("data", "aegis.db")),
		Debug:             getEnvBool("AEGIS_DEBUG", false),
		PageTokenSecret:   getEnv("AEGIS_PAGE_TOKEN_SECRET", ""),
		RetentionSchedule: getEnv("AEGIS_RETENTION_SCHEDULE", "0 3 * * *"),
		NotifyURLs:        splitList(getEnv("AEGIS_NOTIFY_URLS", "")),
	}

	var err error
	if cfg.MaxSourceBytes, err = getEnvInt("AEGIS_MAX_SOURCE_BYTES", 256*1024); err != nil {
		return Config{}, err
	}
	if cfg.MaxRulesets, err = getEnvInt("AEGIS_MAX_RULESETS", 2500); err != nil {
		return Config{}, err
	}
	if cfg.RetentionDays, err = getEnvInt("AEGIS_RETENTION_DAYS", 30); err != nil {
		return Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return parsed, nil
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// Package config loads runtime settings from the environment, with a
// .env file picked up when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address        string
	AllowedOrigins []string

	PollInterval     time.Duration
	HistoryRetention time.Duration
	AlertEventCap    int

	EnabledCategories []string

	AuthEnabled bool
	AuthKey     string

	DBPath string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Address:        env("HTTP_ADDR", ":3000"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		PollInterval:     envDuration("POLL_INTERVAL", 2*time.Second),
		HistoryRetention: envDuration("HISTORY_RETENTION", time.Hour),
		AlertEventCap:    envInt("ALERT_EVENT_CAP", 500),

		EnabledCategories: envList("ENABLED_CATEGORIES", []string{"cpu", "gpu", "memory", "disk", "network", "host"}),

		AuthEnabled: envBool("AUTH_ENABLED", false),
		AuthKey:     env("AUTH_KEY", ""),

		DBPath: env("DB_PATH", "cascade.db"),

		LogLevel:  env("LOG_LEVEL", "info"),
		LogFormat: env("LOG_FORMAT", "text"),
	}
}

func env(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

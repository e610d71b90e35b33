package config

import (
	"log"
	"os"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Evaluation defaults
	Tickers    string // comma-separated, e.g. "RELIANCE,TCS"
	Indicators string // comma-separated kind:window specs, e.g. "sma:20,ewma:10"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/series.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		Tickers:    getEnv("TICKERS", ""),
		Indicators: getEnv("INDICATORS", "sma:20,ewma:20,rsiwilder:14,macd:26"),
	}
}

// ParseTickers splits the Tickers string into a clean slice.
func (c *Config) ParseTickers() []string {
	parts := strings.Split(c.Tickers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ParseIndicators splits the Indicators string into individual
// kind:window specs; spec parsing itself lives with the indicator
// factory.
func (c *Config) ParseIndicators() []string {
	parts := strings.Split(c.Indicators, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultGracePeriod is how long voting stays open after a match is marked finished.
	DefaultGracePeriod = 10 * time.Minute
	// DefaultMOTMVoteThreshold is the minimum winning tally required to award MOTM.
	DefaultMOTMVoteThreshold = 10
)

// Config holds all configuration values for the application
type Config struct {
	Port              string
	AllowedOrigins    []string
	LogLevel          string
	Environment       string
	DatabaseURL       string
	SQLitePath        string
	RedisURL          string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	GoogleClientID    string
	CronSecret        string

	// Voting
	GracePeriod       time.Duration
	MOTMVoteThreshold int

	// Notifications
	NotifyFunction    string
	NotifyWorkers     int
	NotifyQueueSize   int
	NotifyMaxAttempts int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	grace, err := getDurationEnv("VOTING_GRACE_PERIOD", DefaultGracePeriod)
	if err != nil {
		return nil, err
	}
	if grace <= 0 {
		return nil, fmt.Errorf("VOTING_GRACE_PERIOD must be positive, got %s", grace)
	}

	threshold, err := getIntEnv("MOTM_VOTE_THRESHOLD", DefaultMOTMVoteThreshold)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, fmt.Errorf("MOTM_VOTE_THRESHOLD must not be negative, got %d", threshold)
	}

	workers, err := getIntEnv("NOTIFY_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	queueSize, err := getIntEnv("NOTIFY_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getIntEnv("NOTIFY_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "leaguevote.db"),
		RedisURL:          getEnv("REDIS_URL", ""),
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		CronSecret:        getEnv("CRON_SECRET", ""),
		GracePeriod:       grace,
		MOTMVoteThreshold: threshold,
		NotifyFunction:    getEnv("NOTIFY_FUNCTION", "send-vote-confirmation"),
		NotifyWorkers:     workers,
		NotifyQueueSize:   queueSize,
		NotifyMaxAttempts: maxAttempts,
	}, nil
}

// UsePostgres reports whether the Postgres store is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// SupabaseConfigured reports whether edge functions can be invoked.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getDurationEnv accepts Go durations ("10m") or a bare number of minutes ("8").
func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

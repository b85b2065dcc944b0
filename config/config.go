package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StatsSource string
	StatsPath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Classifier      string
	ModelPath       string
	ModelServiceURL string
	ModelTimeoutMs  int

	BatchWorkers     int
	BatchRateLimitMs int

	ScoringMode    string
	Port           string
	LogLevel       string
	ConnectRetries int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		StatsSource: getEnv("STATS_SOURCE", "file"),
		StatsPath:   getEnv("STATS_PATH", "./data/training_stats.yaml"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "fairprice"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "fairprice"),
		PostgresDB:       getEnv("POSTGRES_DB", "fairprice"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Classifier:      getEnv("CLASSIFIER", "linear"),
		ModelPath:       getEnv("MODEL_PATH", "./data/model.yaml"),
		ModelServiceURL: getEnv("MODEL_SERVICE_URL", "http://localhost:8000"),
		ModelTimeoutMs:  getEnvInt("MODEL_TIMEOUT_MS", 30000),

		BatchWorkers:     getEnvInt("BATCH_WORKERS", 4),
		BatchRateLimitMs: getEnvInt("BATCH_RATE_LIMIT_MS", 0),

		ScoringMode:    getEnv("SCORING_MODE", "statistics"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ConnectRetries: getEnvInt("CONNECT_RETRIES", 5),
	}
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.StatsSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("config: STATS_SOURCE must be file or postgres, got %q", c.StatsSource)
	}
	switch c.Classifier {
	case "linear", "remote":
	default:
		return fmt.Errorf("config: CLASSIFIER must be linear or remote, got %q", c.Classifier)
	}
	switch c.ScoringMode {
	case "statistics", "placeholder":
	default:
		return fmt.Errorf("config: SCORING_MODE must be statistics or placeholder, got %q", c.ScoringMode)
	}
	if c.ModelTimeoutMs <= 0 {
		return fmt.Errorf("config: MODEL_TIMEOUT_MS must be positive, got %d", c.ModelTimeoutMs)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("config: BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	if c.BatchRateLimitMs < 0 {
		return fmt.Errorf("config: BATCH_RATE_LIMIT_MS must not be negative, got %d", c.BatchRateLimitMs)
	}
	return nil
}

// ModelTimeout returns ModelTimeoutMs as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMs) * time.Millisecond
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

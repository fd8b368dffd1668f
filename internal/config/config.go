package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// TickInterval is the live health estimator period.
	TickInterval time.Duration

	// Remote analysis service configuration.
	PredictorURL       string
	PredictorEnabled   bool
	PredictorTimeout   time.Duration
	PredictorCacheSize int

	// Event stream configuration.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaEventsTopic string

	// Configuration persistence. An empty RedisAddr keeps profiles in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Assessment history. An empty DatabaseURL disables it.
	DatabaseURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	tickInterval, err := parsePositiveDuration("TICK_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	predictorTimeout, err := parsePositiveDuration("PREDICTOR_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	predictorCacheSize, err := parsePositiveInt("PREDICTOR_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	predictorURL := os.Getenv("PREDICTOR_URL")
	predictorEnabled := predictorURL != ""
	if v := os.Getenv("PREDICTOR_ENABLED"); v != "" {
		predictorEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		TickInterval:    tickInterval,

		PredictorURL:       predictorURL,
		PredictorEnabled:   predictorEnabled,
		PredictorTimeout:   predictorTimeout,
		PredictorCacheSize: predictorCacheSize,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "retrofit-events"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if cfg.PredictorEnabled && cfg.PredictorURL == "" {
		return nil, errors.New("PREDICTOR_ENABLED is true but PREDICTOR_URL is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaEventsTopic == "" {
			return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL    string
	MigrateOnStart bool
	Sources        []domain.Source

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Quality-event publishing (feature-flagged via KAFKA_BROKERS /
	// KAFKA_QUALITY_ENABLED).
	KafkaBrokers      []string
	KafkaQualityTopic string
	KafkaEnabled      bool
	KafkaTimeout      time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	kafkaTimeout, err := parseDuration("KAFKA_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	sources, err := parseSources(envOrDefault("SOURCES", "ASN,NTSB,CSV"))
	if err != nil {
		return nil, err
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_QUALITY_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: envOrDefault("MIGRATE_ON_START", "true") == "true",
		Sources:        sources,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:      brokers,
		KafkaQualityTopic: envOrDefault("KAFKA_QUALITY_TOPIC", "accident-data-quality"),
		KafkaEnabled:      kafkaEnabled,
		KafkaTimeout:      kafkaTimeout,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("SOURCES must name at least one source")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_QUALITY_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseSources(raw string) ([]domain.Source, error) {
	var out []domain.Source
	for _, tag := range parseList(raw) {
		source, ok := domain.ParseSource(tag)
		if !ok {
			return nil, fmt.Errorf("unknown source %q in SOURCES", tag)
		}
		out = append(out, source)
	}
	return out, nil
}

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
	Addr              string
	DatabaseURL       string
	Environment       string
	JWTSecret         string
	AllowDevPrincipal bool
	BootstrapAdmin    string
	DefaultReputation int
	CourseSeedFile    string
	KafkaBrokers      []string
	KafkaTopic        string
	ArchiveBucket     string
	ArchivePrefix     string
	RelayInterval     time.Duration
	RelayBatchSize    int
	CORSOrigins       []string
	LogLevel          slog.Level
}

const (
	defaultAddr           = ":8071"
	defaultKafkaTopic     = "validator.review-events"
	defaultArchivePrefix  = "validator"
	defaultRelayInterval  = 5 * time.Second
	defaultRelayBatchSize = 50
	defaultReputation     = 100
	defaultCORSOrigin     = "http://localhost:3000"
)

func Load() (Config, error) {
	cfg := Config{
		Addr:              getEnv("VALIDATOR_ADDR", defaultAddr),
		DatabaseURL:       firstNonEmpty(os.Getenv("VALIDATOR_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		Environment:       getEnv("NODE_ENV", "development"),
		JWTSecret:         os.Getenv("VALIDATOR_JWT_SECRET"),
		AllowDevPrincipal: getBool("VALIDATOR_ALLOW_DEV_PRINCIPAL", false),
		BootstrapAdmin:    strings.TrimSpace(os.Getenv("VALIDATOR_BOOTSTRAP_ADMIN")),
		DefaultReputation: getInt("VALIDATOR_DEFAULT_REPUTATION", defaultReputation),
		CourseSeedFile:    os.Getenv("VALIDATOR_COURSE_SEED_FILE"),
		KafkaBrokers:      getList("VALIDATOR_KAFKA_BROKERS"),
		KafkaTopic:        getEnv("VALIDATOR_KAFKA_TOPIC", defaultKafkaTopic),
		ArchiveBucket:     os.Getenv("VALIDATOR_ARCHIVE_BUCKET"),
		ArchivePrefix:     getEnv("VALIDATOR_ARCHIVE_PREFIX", defaultArchivePrefix),
		RelayBatchSize:    getInt("VALIDATOR_RELAY_BATCH_SIZE", defaultRelayBatchSize),
		CORSOrigins:       getList("VALIDATOR_CORS_ORIGINS"),
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{defaultCORSOrigin}
	}

	interval, err := getDuration("VALIDATOR_RELAY_INTERVAL", defaultRelayInterval)
	if err != nil {
		return Config{}, err
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("VALIDATOR_RELAY_INTERVAL must be positive")
	}
	cfg.RelayInterval = interval

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("VALIDATOR_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("VALIDATOR_LOG_LEVEL: %w", err)
	}
	if cfg.DefaultReputation <= 0 || cfg.DefaultReputation > 1000 {
		return Config{}, fmt.Errorf("VALIDATOR_DEFAULT_REPUTATION must be within 1..1000")
	}
	if cfg.RelayBatchSize <= 0 {
		return Config{}, fmt.Errorf("VALIDATOR_RELAY_BATCH_SIZE must be positive")
	}

	if cfg.Production() {
		if cfg.AllowDevPrincipal {
			return Config{}, fmt.Errorf("VALIDATOR_ALLOW_DEV_PRINCIPAL=true is forbidden in production")
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("VALIDATOR_JWT_SECRET required in production")
		}
	}
	return cfg, nil
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

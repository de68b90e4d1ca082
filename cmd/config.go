package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"warehouse/internal/adapters/out/postgres"
	"warehouse/internal/core/application/usecases/commands"
	"warehouse/internal/jobs"
	"warehouse/internal/pkg/logging"

	"github.com/joho/godotenv"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultOrderChangedTopic = "order.status.changed"

type Config struct {
	HTTPPort       string
	StorageBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// KafkaHost is a comma separated broker list. Empty disables publishing.
	KafkaHost              string
	KafkaOrderChangedTopic string

	LeaseDuration         time.Duration
	ReclaimSchedule       string
	TransitionMaxAttempts int

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the environment, after loading envFile when it exists.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:               env("HTTP_PORT", "8080"),
		StorageBackend:         strings.ToLower(env("STORAGE_BACKEND", BackendRedis)),
		RedisAddr:              env("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          env("REDIS_PASSWORD", ""),
		DBHost:                 env("DB_HOST", "localhost"),
		DBPort:                 env("DB_PORT", "5432"),
		DBUser:                 env("DB_USER", "postgres"),
		DBPassword:             env("DB_PASSWORD", ""),
		DBName:                 env("DB_NAME", "warehouse"),
		DBSslMode:              env("DB_SSLMODE", "disable"),
		KafkaHost:              env("KAFKA_HOST", ""),
		KafkaOrderChangedTopic: env("KAFKA_ORDER_CHANGED_TOPIC", defaultOrderChangedTopic),
		ReclaimSchedule:        env("RECLAIM_SCHEDULE", jobs.DefaultReclaimSchedule),
		LogLevel:               env("LOG_LEVEL", "info"),
		LogFormat:              env("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.TransitionMaxAttempts, err = envInt("TRANSITION_MAX_ATTEMPTS", commands.DefaultMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.LeaseDuration, err = envDuration("LEASE_DURATION", commands.DefaultLease); err != nil {
		return Config{}, err
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []error
	if c.StorageBackend != BackendRedis && c.StorageBackend != BackendPostgres {
		problems = append(problems, fmt.Errorf("STORAGE_BACKEND must be %s or %s, got %q",
			BackendRedis, BackendPostgres, c.StorageBackend))
	}
	if c.LeaseDuration <= 0 || c.LeaseDuration > commands.MaxLease {
		problems = append(problems, fmt.Errorf("LEASE_DURATION must be in (0, %s], got %s",
			commands.MaxLease, c.LeaseDuration))
	}
	if c.TransitionMaxAttempts < 1 {
		problems = append(problems, fmt.Errorf("TRANSITION_MAX_ATTEMPTS must be at least 1, got %d",
			c.TransitionMaxAttempts))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

func (c Config) Postgres() postgres.Config {
	return postgres.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSslMode,
	}
}

func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}

// KafkaBrokers splits KafkaHost into broker addresses.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

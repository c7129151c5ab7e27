package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config captures everything main needs, read once from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigin  string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string

	ComplaintLimitPrefix string
	ComplaintDailyLimit  int

	JWTSecret string
	TokenTTL  time.Duration

	ClassifierURL     string
	ClassifierTimeout time.Duration

	// SeedWardsFile is an optional JSON list of wards created at startup.
	SeedWardsFile string
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesRedis is false for the memory driver, which keeps rate limits and
// revoked tokens in-process.
func (c Config) UsesRedis() bool {
	return c.StoreDriver != StoreMemory
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("GO_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSOrigin:           getEnv("CORS_ORIGIN", "http://localhost:5173"),
		StoreDriver:          getEnv("STORE_DRIVER", StoreMongo),
		MongoURI:             os.Getenv("MONGODB_URI"),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "wardsync"),
		RedisAddress:         getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		ComplaintLimitPrefix: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "complaint_limit"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		ClassifierURL:        os.Getenv("CLASSIFIER_URL"),
		SeedWardsFile:        os.Getenv("SEED_WARDS_FILE"),
	}

	var err error
	if cfg.ComplaintDailyLimit, err = getInt("COMPLAINT_DAILY_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ClassifierTimeout, err = getDuration("CLASSIFIER_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("please define the JWT_SECRET environment variable")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("please define the MONGODB_URI environment variable")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ComplaintDailyLimit < 1 {
		return errors.New("COMPLAINT_DAILY_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-timeoff/internal/leavepolicy"
)

type Database struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Config struct {
	Port                string
	Environment         string
	DB                  Database
	ConnectRetries      int
	RedisAddr           string
	KafkaBroker         string
	JWTSecret           string
	Timezone            string
	OutboxPollInterval  time.Duration
	DefaultBalance      leavepolicy.Balance
	RecentRequestsLimit int
	RateLimitRPS        float64
	RateLimitBurst      int
}

func Load() Config {
	return Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("APP_ENV", "development"),
		DB: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "timeoff"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		ConnectRetries:     getEnvInt("CONNECT_RETRIES", 5),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker:        getEnv("KAFKA_BROKER", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Timezone:           getEnv("APP_TIMEZONE", "UTC"),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 3*time.Second),
		DefaultBalance: leavepolicy.Balance{
			VacationDaysLeft: getEnvInt("DEFAULT_VACATION_DAYS", 15),
			SickDaysLeft:     getEnvInt("DEFAULT_SICK_DAYS", 10),
			PersonalDaysLeft: getEnvInt("DEFAULT_PERSONAL_DAYS", 3),
		},
		RecentRequestsLimit: getEnvInt("RECENT_REQUESTS_LIMIT", 5),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// Location resolves Timezone; "today" for request-date policy is computed in it.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.ConnectRetries <= 0 {
		return fmt.Errorf("CONNECT_RETRIES must be positive")
	}
	if c.RecentRequestsLimit <= 0 {
		return fmt.Errorf("RECENT_REQUESTS_LIMIT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	b := c.DefaultBalance
	if b.VacationDaysLeft < 0 || b.SickDaysLeft < 0 || b.PersonalDaysLeft < 0 {
		return fmt.Errorf("default leave balances must not be negative")
	}
	return nil
}

// ValidateMessaging is what the worker and consumer need; they never verify
// tokens, so JWT_SECRET is not checked.
func (c Config) ValidateMessaging() error {
	if strings.TrimSpace(c.KafkaBroker) == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	if c.ConnectRetries <= 0 {
		return fmt.Errorf("CONNECT_RETRIES must be positive")
	}
	b := c.DefaultBalance
	if b.VacationDaysLeft < 0 || b.SickDaysLeft < 0 || b.PersonalDaysLeft < 0 {
		return fmt.Errorf("default leave balances must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

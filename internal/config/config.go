package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost string
	DBUser string
	DBPass string
	DBName string
	DBPort string

	RedisURL  string
	JWTSecret string

	// MaxDailyChallenges caps daily-challenge completions per user per day.
	MaxDailyChallenges int
	// DayLocation decides where a "day" starts for daily challenges.
	DayLocation *time.Location

	RateLimitXPEvent time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "aiiforsa"),
		DBPort: getEnv("DB_PORT", "5432"),

		RedisURL:  os.Getenv("REDIS_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	cfg.MaxDailyChallenges, err = strconv.Atoi(getEnv("XP_MAX_DAILY_CHALLENGES", "3"))
	if err != nil || cfg.MaxDailyChallenges < 1 {
		return nil, fmt.Errorf("invalid XP_MAX_DAILY_CHALLENGES: %q", os.Getenv("XP_MAX_DAILY_CHALLENGES"))
	}

	cfg.DayLocation, err = time.LoadLocation(getEnv("XP_DAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid XP_DAY_TIMEZONE: %w", err)
	}

	cfg.RateLimitXPEvent, err = time.ParseDuration(getEnv("RATE_LIMIT_XP_EVENT", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_XP_EVENT: %w", err)
	}

	return cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

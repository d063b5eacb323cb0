// Package config loads engine configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores all runtime settings for the stock engine.
type Config struct {
	// General
	Port        string
	Environment string
	LogLevel    string

	// Database (PostgreSQL)
	DatabaseURL     string
	DBMaxConns      int32
	DBMinConns      int32
	DBStatementTime time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: .env not found, reading from environment only: %v", err)
	}

	return &Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:     mustGetEnv("DATABASE_URL"),
		DBMaxConns:      int32(getIntEnv("DB_MAX_CONNS", 25)),
		DBMinConns:      int32(getIntEnv("DB_MIN_CONNS", 5)),
		DBStatementTime: getDurationEnv("DB_STATEMENT_TIMEOUT_SEC", 30) * time.Second,

		ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 15) * time.Second,
		WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,
		IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT_SEC", 60) * time.Second,
	}
}

// IsDevelopment reports whether the engine runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("config: environment variable %s must be set", key)
	return ""
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

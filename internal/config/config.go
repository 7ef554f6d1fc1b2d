// Package config provides runtime configuration for the API server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every knob the binaries read. Values come from the
// environment ( .env is loaded by the binaries before Load runs).
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// RabbitURL enables the order event publisher when non-empty.
	RabbitURL string

	// TableViewMaxAge is the staleness contract for polled table views:
	// consumers may treat a snapshot as current for this long.
	TableViewMaxAge time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

// Load collects configuration from the environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvms("SHUTDOWN_TIMEOUT_MS", 10000),
		DBHost:          getenv("DB_HOST", "localhost"),
		DBPort:          getenv("DB_PORT", "5432"),
		DBUser:          getenv("DB_USER", "postgres"),
		DBPassword:      getenv("DB_PASSWORD", "postgres"),
		DBName:          getenv("DB_NAME", "barliberty"),
		DBSSLMode:       getenv("DB_SSLMODE", "disable"),
		RabbitURL:       getenv("RABBITMQ_URL", ""),
		TableViewMaxAge: durenvms("TABLE_VIEW_MAX_AGE_MS", 5000),
	}
}

// DSN renders the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

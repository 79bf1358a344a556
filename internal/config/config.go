package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Branches names every branch this process serves
	Branches []string

	// ExchangeDir holds the flat files swapped with peer branches
	ExchangeDir string

	OverdueScanInterval time.Duration

	LogLevel string

	// OpenTelemetry configuration; tracing export is off when the endpoint is empty
	OTLPEndpoint string
	ServiceName  string

	LoginAttemptsPerMinute int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Branch names (required)
	branchesStr := os.Getenv("LIBRARY_BRANCHES")
	if branchesStr == "" {
		return nil, fmt.Errorf("LIBRARY_BRANCHES is required (comma-separated list of branch names)")
	}
	seen := make(map[string]bool)
	for _, name := range strings.Split(branchesStr, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty branch name in LIBRARY_BRANCHES: %q", branchesStr)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate branch name in LIBRARY_BRANCHES: %s", name)
		}
		seen[name] = true
		config.Branches = append(config.Branches, name)
	}

	config.ExchangeDir = os.Getenv("EXCHANGE_DIR")
	if config.ExchangeDir == "" {
		config.ExchangeDir = "./exchange"
	}

	intervalStr := os.Getenv("OVERDUE_SCAN_INTERVAL")
	if intervalStr == "" {
		config.OverdueScanInterval = time.Hour
	} else {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid OVERDUE_SCAN_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("OVERDUE_SCAN_INTERVAL must be positive, got %s", interval)
		}
		config.OverdueScanInterval = interval
	}

	config.LogLevel = os.Getenv("LOG_LEVEL")
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	// Endpoint is optional
	config.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	config.ServiceName = os.Getenv("OTEL_SERVICE_NAME")
	if config.ServiceName == "" {
		config.ServiceName = "librarian"
	}

	attemptsStr := os.Getenv("LOGIN_ATTEMPTS_PER_MINUTE")
	if attemptsStr == "" {
		config.LoginAttemptsPerMinute = 5
	} else {
		attempts, err := strconv.Atoi(attemptsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
		}
		if attempts < 1 {
			return nil, fmt.Errorf("LOGIN_ATTEMPTS_PER_MINUTE must be at least 1, got %d", attempts)
		}
		config.LoginAttemptsPerMinute = attempts
	}

	return config, nil
}

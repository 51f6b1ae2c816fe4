// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Upper bound for a whole HTTP request, including multi-hop search
	RequestTimeout time.Duration

	// Inbound API rate limit; zero disables it
	RequestRateLimit float64
	RequestRateBurst int

	// Per-adapter quote timeout and liveness check timeout
	AdapterTimeout time.Duration
	HealthTimeout  time.Duration

	// Outbound rate limit applied to each bridge API
	AdapterRateLimit float64
	AdapterRateBurst int

	// Whether adapters fall back to their fee model when the bridge API fails
	EstimateOnUpstreamFailure bool

	// Bridges to register; empty means all known protocols
	EnabledBridges []string

	// API base URL overrides keyed by protocol
	BridgeAPIURLs map[string]string

	// Quote cache
	CacheBackend  string
	CacheTTL      time.Duration
	CacheCapacity int
	RedisURL      string

	// Transaction history store; empty means in-memory
	HistoryDSN string

	// Reliability scoring
	ScoreSchedule string
	ScoreWindow   time.Duration

	// Hubs tried for 2-hop routes
	IntermediateChains []string

	// Per-adapter circuit breaker
	EnableCircuitBreaker    bool
	CircuitFailureThreshold int
	CircuitResetDelay       time.Duration
}

// Load creates a new Config from environment variables. A .env file in the
// working directory is read first when present; real environment wins.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Could not read .env file: %v", err)
	}

	return Config{
		Port:                      GetEnvOrDefault("PORT", "8080"),
		LogLevel:                  strings.ToLower(GetEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:                 strings.ToLower(GetEnvOrDefault("LOG_FORMAT", "text")),
		OtelEndpoint:              GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RequestTimeout:            GetEnvAsDuration("REQUEST_TIMEOUT", 20*time.Second),
		RequestRateLimit:          GetEnvAsFloat("REQUEST_RATE_LIMIT_RPS", 0),
		RequestRateBurst:          GetEnvAsInt("REQUEST_RATE_LIMIT_BURST", 20),
		AdapterTimeout:            GetEnvAsDuration("ADAPTER_TIMEOUT", 6*time.Second),
		HealthTimeout:             GetEnvAsDuration("HEALTH_TIMEOUT", 3*time.Second),
		AdapterRateLimit:          GetEnvAsFloat("ADAPTER_RATE_LIMIT_RPS", 5.0),
		AdapterRateBurst:          GetEnvAsInt("ADAPTER_RATE_LIMIT_BURST", 10),
		EstimateOnUpstreamFailure: GetEnvAsBool("ESTIMATE_ON_UPSTREAM_FAILURE", true),
		EnabledBridges:            GetEnvAsList("ENABLED_BRIDGES", nil),
		BridgeAPIURLs:             bridgeAPIURLs(),
		CacheBackend:              strings.ToLower(GetEnvOrDefault("CACHE_BACKEND", CacheBackendMemory)),
		CacheTTL:                  GetEnvAsDuration("CACHE_TTL", 30*time.Second),
		CacheCapacity:             GetEnvAsInt("CACHE_CAPACITY", 1000),
		RedisURL:                  GetEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		HistoryDSN:                GetEnvOrDefault("HISTORY_DSN", ""),
		ScoreSchedule:             GetEnvOrDefault("SCORE_SCHEDULE", "@hourly"),
		ScoreWindow:               GetEnvAsDuration("SCORE_WINDOW", 168*time.Hour),
		IntermediateChains:        GetEnvAsList("INTERMEDIATE_CHAINS", []string{"ethereum", "arbitrum", "optimism", "polygon", "base"}),
		EnableCircuitBreaker:      GetEnvAsBool("ENABLE_CIRCUIT_BREAKER", true),
		CircuitFailureThreshold:   GetEnvAsInt("CIRCUIT_FAILURE_THRESHOLD", 5),
		CircuitResetDelay:         GetEnvAsDuration("CIRCUIT_RESET_DELAY", time.Minute),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("Invalid integer in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.Warnf("Invalid float in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		logrus.Warnf("Invalid boolean in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("Invalid duration in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsList splits a comma-separated variable into trimmed, lower-cased items
func GetEnvAsList(key string, defaultValue []string) []string {
	value, exists := GetEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			items = append(items, p)
		}
	}
	return items
}

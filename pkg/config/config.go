package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	Server ServerConfig
	Google GoogleConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Breaker BreakerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ServiceName    string
	Port           string
	Environment    string
	Version        string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	RequestTimeout int // seconds
	CORSOrigins    string
}

// GoogleConfig holds the upstream Maps API configuration. Language and
// Region become default query parameters on every request; a caller can
// override either per call.
type GoogleConfig struct {
	APIKey   string
	BaseURL  string
	Language string
	Region   string
	Timeout  int // seconds
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the redis address in host:port format
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CacheConfig controls response caching in the service layer
type CacheConfig struct {
	Enabled         bool
	Prefix          string
	GeocodeTTL      int // seconds
	DirectionsTTL   int // seconds
	AutocompleteTTL int // seconds
}

// BreakerConfig controls the circuit breaker around the upstream API
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	Timeout          int // seconds
	Interval         int // seconds
}

// Load reads configuration from environment variables, loading .env first
// when present.
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			ServiceName:    serviceName,
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			Version:        getEnv("SERVICE_VERSION", "dev"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 30),
			CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Google: GoogleConfig{
			APIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL:  getEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
			Language: getEnv("GOOGLE_MAPS_LANGUAGE", ""),
			Region:   getEnv("GOOGLE_MAPS_REGION", ""),
			Timeout:  getEnvAsInt("GOOGLE_MAPS_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:         getEnvAsBool("CACHE_ENABLED", false),
			Prefix:          getEnv("CACHE_PREFIX", "maps"),
			GeocodeTTL:      getEnvAsInt("CACHE_GEOCODE_TTL", 86400),
			DirectionsTTL:   getEnvAsInt("CACHE_DIRECTIONS_TTL", 300),
			AutocompleteTTL: getEnvAsInt("CACHE_AUTOCOMPLETE_TTL", 3600),
		},
		Breaker: BreakerConfig{
			Enabled:          getEnvAsBool("CIRCUIT_BREAKER_ENABLED", true),
			FailureThreshold: getEnvAsInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvAsInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			Timeout:          getEnvAsInt("CIRCUIT_BREAKER_TIMEOUT", 30),
			Interval:         getEnvAsInt("CIRCUIT_BREAKER_INTERVAL", 60),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a fallback
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a fallback
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

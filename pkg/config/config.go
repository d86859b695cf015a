package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	Classifier ClassifierConfig
	Lookup     LookupConfig
	Session    SessionConfig
	Plants     PlantsConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// ClassifierConfig holds the external classification service configuration
type ClassifierConfig struct {
	URL          string
	Timeout      time.Duration
	MaxImageSize int64
}

// LookupConfig holds the disease lookup API configuration used by the
// client-side pipeline
type LookupConfig struct {
	URL         string
	Timeout     time.Duration
	Concurrency int
}

// SessionConfig holds diagnosis session storage configuration
type SessionConfig struct {
	SessionTTL    time.Duration
	EnrichmentTTL time.Duration
}

// PlantsConfig holds the set of plant categories the classifier supports.
// The set is configuration rather than a hard-coded enum because deployed
// models differ in which crops they cover.
type PlantsConfig struct {
	Supported []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "plantmd"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Classifier: ClassifierConfig{
			URL:          getEnv("CLASSIFIER_URL", "https://api.plantmd.xyz/predict"),
			Timeout:      getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			MaxImageSize: int64(getEnvAsInt("CLASSIFIER_MAX_IMAGE_BYTES", 10*1024*1024)),
		},
		Lookup: LookupConfig{
			URL:         getEnv("LOOKUP_URL", "http://localhost:8080/api/predict"),
			Timeout:     getEnvAsDuration("LOOKUP_TIMEOUT", 10*time.Second),
			Concurrency: getEnvAsInt("LOOKUP_CONCURRENCY", 3),
		},
		Session: SessionConfig{
			SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			EnrichmentTTL: getEnvAsDuration("ENRICHMENT_TTL", time.Hour),
		},
		Plants: PlantsConfig{
			Supported: getEnvAsList("PLANTS", []string{"tomato", "corn", "rice", "potato"}),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "plantmd-backend"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// IsSupported reports whether a plant category is in the configured set.
func (p *PlantsConfig) IsSupported(plant string) bool {
	for _, supported := range p.Supported {
		if strings.EqualFold(plant, supported) {
			return true
		}
	}
	return false
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Model    ModelConfig
	JWT      JWTConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Cache    CacheConfig
	MQTT     MQTTConfig
	Grid     GridConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
	// MetricsAddr is where the background workers serve /metrics and /health.
	MetricsAddr string
	// Debug exposes technical error detail in API responses.
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GetDSN returns the key/value DSN gorm's postgres driver expects.
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// GetURL returns the same database as a postgres:// URL for pgxpool.
func (d DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type ModelConfig struct {
	ArtifactPath string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type CacheConfig struct {
	EstimateTTL time.Duration
}

type MQTTConfig struct {
	URL          string
	RequestTopic string
	ReplyPrefix  string
}

type GridConfig struct {
	Interval    time.Duration
	Concurrency int
	PersonType  string
	VehicleType string
	AgeRange    string
	Sex         string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getIntEnv("ESTIMATE_CACHE_TTL_SEC", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid ESTIMATE_CACHE_TTL_SEC: %w", err)
	}

	gridInterval, err := getIntEnv("GRID_INTERVAL_SEC", 3600)
	if err != nil {
		return nil, fmt.Errorf("invalid GRID_INTERVAL_SEC: %w", err)
	}

	gridConcurrency, err := getIntEnv("GRID_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid GRID_CONCURRENCY: %w", err)
	}
	if gridConcurrency < 1 {
		return nil, fmt.Errorf("invalid GRID_CONCURRENCY: must be >= 1, got %d", gridConcurrency)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        serverPort,
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			Debug:       getBoolEnv("APP_DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "madlysafe"),
			Password: getEnv("DB_PASSWORD", "madlysafe_dev_password"),
			Name:     getEnv("DB_NAME", "madlysafe"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Model: ModelConfig{
			ArtifactPath: getEnv("MODEL_PATH", "artifacts/modelo_mejor_2025.json"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "madlysafe-dev-secret"),
			ExpiryHours: jwtExpiry,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Cache: CacheConfig{
			EstimateTTL: time.Duration(cacheTTL) * time.Second,
		},
		MQTT: MQTTConfig{
			URL:          getEnv("MQTT_URL", "tcp://localhost:1883"),
			RequestTopic: getEnv("MQTT_REQUEST_TOPIC", "madlysafe/scenarios/+"),
			ReplyPrefix:  getEnv("MQTT_REPLY_PREFIX", "madlysafe/estimates/"),
		},
		Grid: GridConfig{
			Interval:    time.Duration(gridInterval) * time.Second,
			Concurrency: gridConcurrency,
			PersonType:  getEnv("GRID_PERSON_TYPE", "Conductor"),
			VehicleType: getEnv("GRID_VEHICLE_TYPE", "Turismo"),
			AgeRange:    getEnv("GRID_AGE_RANGE", "25-34"),
			Sex:         getEnv("GRID_SEX", "Hombre"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

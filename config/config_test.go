package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "madlysafe",
		Password: "secret",
		Name:     "madlysafe",
		SSLMode:  "disable",
	}
	dsn := db.GetDSN()

	expected := "host=localhost port=5432 user=madlysafe password=secret dbname=madlysafe sslmode=disable"
	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetURL(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "worker",
		Password: "pw",
		Name:     "risk",
		SSLMode:  "require",
	}
	expected := "postgres://worker:pw@db.internal:5433/risk?sslmode=require"
	if got := db.GetURL(); got != expected {
		t.Errorf("GetURL() = %q, want %q", got, expected)
	}
}

func TestGetDSNCustomValues(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "admin",
		Password: "p@ss",
		Name:     "mydb",
		SSLMode:  "require",
	}
	dsn := db.GetDSN()

	if !strings.Contains(dsn, "host=db.example.com") {
		t.Errorf("DSN missing host, got: %s", dsn)
	}
	if !strings.Contains(dsn, "port=5433") {
		t.Errorf("DSN missing port, got: %s", dsn)
	}
	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("DSN missing sslmode, got: %s", dsn)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		_, err := getIntEnv("TEST_INT_VAR", 8080)
		if err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

var configKeys = []string{
	"SERVER_PORT", "METRICS_ADDR", "APP_DEBUG", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"MODEL_PATH", "JWT_SECRET", "JWT_EXPIRY_HOURS", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"CORS_ALLOWED_ORIGINS", "ESTIMATE_CACHE_TTL_SEC", "MQTT_URL", "MQTT_REQUEST_TOPIC", "MQTT_REPLY_PREFIX",
	"GRID_INTERVAL_SEC", "GRID_CONCURRENCY", "GRID_PERSON_TYPE", "GRID_VEHICLE_TYPE", "GRID_AGE_RANGE", "GRID_SEX",
	"LOG_LEVEL", "LOG_FORMAT",
}

func TestLoadConfigDefaults(t *testing.T) {
	// Clear env vars to get defaults
	for _, key := range configKeys {
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Errorf("JWT.ExpiryHours = %d, want 24", cfg.JWT.ExpiryHours)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
	if cfg.Model.ArtifactPath != "artifacts/modelo_mejor_2025.json" {
		t.Errorf("Model.ArtifactPath = %q", cfg.Model.ArtifactPath)
	}
	if cfg.Cache.EstimateTTL != 5*time.Minute {
		t.Errorf("Cache.EstimateTTL = %s, want 5m", cfg.Cache.EstimateTTL)
	}
	if cfg.Server.MetricsAddr != ":9090" {
		t.Errorf("Server.MetricsAddr = %q, want %q", cfg.Server.MetricsAddr, ":9090")
	}
	if cfg.Server.Debug {
		t.Error("Server.Debug should default to false")
	}
	if cfg.Grid.Concurrency != 4 || cfg.Grid.Interval != time.Hour {
		t.Errorf("Grid = %+v", cfg.Grid)
	}
	if cfg.MQTT.RequestTopic != "madlysafe/scenarios/+" {
		t.Errorf("MQTT.RequestTopic = %q", cfg.MQTT.RequestTopic)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadConfigCustom(t *testing.T) {
	os.Setenv("SERVER_PORT", "3000")
	os.Setenv("DB_HOST", "db.prod")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("JWT_EXPIRY_HOURS", "48")
	os.Setenv("MODEL_PATH", "/srv/models/modelo.msgpack")
	os.Setenv("APP_DEBUG", "true")
	os.Setenv("LOG_LEVEL", "DEBUG")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("JWT_EXPIRY_HOURS")
		os.Unsetenv("MODEL_PATH")
		os.Unsetenv("APP_DEBUG")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.prod" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.prod")
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("Database.Port = %d, want 5433", cfg.Database.Port)
	}
	if cfg.JWT.ExpiryHours != 48 {
		t.Errorf("JWT.ExpiryHours = %d, want 48", cfg.JWT.ExpiryHours)
	}
	if cfg.Model.ArtifactPath != "/srv/models/modelo.msgpack" {
		t.Errorf("Model.ArtifactPath = %q", cfg.Model.ArtifactPath)
	}
	if !cfg.Server.Debug {
		t.Error("Server.Debug should be true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want lowercased %q", cfg.Log.Level, "debug")
	}
}

func TestLoadConfigInvalidGridConcurrency(t *testing.T) {
	os.Setenv("GRID_CONCURRENCY", "0")
	defer os.Unsetenv("GRID_CONCURRENCY")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for GRID_CONCURRENCY=0")
	}
}

func TestGetBoolEnv(t *testing.T) {
	os.Unsetenv("TEST_BOOL_VAR")
	if got := getBoolEnv("TEST_BOOL_VAR", true); !got {
		t.Error("getBoolEnv() should return fallback when unset")
	}
	os.Setenv("TEST_BOOL_VAR", "nope")
	defer os.Unsetenv("TEST_BOOL_VAR")
	if got := getBoolEnv("TEST_BOOL_VAR", true); !got {
		t.Error("getBoolEnv() should return fallback on invalid value")
	}
	os.Setenv("TEST_BOOL_VAR", "0")
	if got := getBoolEnv("TEST_BOOL_VAR", true); got {
		t.Error("getBoolEnv() = true, want false")
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	os.Setenv("SERVER_PORT", "invalid")
	defer os.Unsetenv("SERVER_PORT")

	_, err := LoadConfig()
	if err == nil {
		t.Error("expected error for invalid SERVER_PORT")
	}
}

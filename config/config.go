package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends for recipe images.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultJWTSecret = "dev-insecure-secret"

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	AutoMigrate bool

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Media configuration
	MediaRoot      string
	MediaURL       string
	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3PublicURL    string
	MaxUploadBytes int64

	CORSOrigins []string
	LogLevel    string

	// Requests allowed per RateWindow; zero disables a limiter
	TokenRateLimit  int
	CreateRateLimit int
	UploadRateLimit int
	RateWindow      time.Duration
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	cfg := &Config{Env: GetEnvironment()}

	var errs []string
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getSecretOrEnv("db_user", "DB_USER", "postgres")
	cfg.DBPassword = getSecretOrEnv("db_password", "DB_PASSWORD", "")
	cfg.DBName = getEnv("DB_NAME", "recipes")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "recipes.db")
	cfg.AutoMigrate = getBool("DB_AUTO_MIGRATE", cfg.Env != Production, &errs)

	cfg.RedisHost = getEnv("REDIS_HOST", "")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisPassword = getSecretOrEnv("redis_password", "REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0, &errs)
	cfg.RedisURL = getSecretOrEnv("redis_url", "REDIS_URL", "")

	cfg.JWTSecret = getSecretOrEnv("jwt_secret", "JWT_SECRET", "")
	if cfg.JWTSecret == "" && cfg.Env != Production {
		cfg.JWTSecret = defaultJWTSecret
	}
	cfg.TokenTTL = getDuration("TOKEN_TTL", 24*time.Hour, &errs)

	cfg.MediaRoot = getEnv("MEDIA_ROOT", "media")
	cfg.MediaURL = getEnv("MEDIA_URL", "/media")
	cfg.StorageBackend = strings.ToLower(getEnv("IMAGE_STORAGE", StorageLocal))
	cfg.S3Bucket = getEnv("S3_BUCKET_NAME", "")
	cfg.S3Region = getEnv("AWS_REGION", "")
	cfg.S3PublicURL = getEnv("S3_PUBLIC_URL", "")
	cfg.MaxUploadBytes = int64(getInt("MAX_UPLOAD_BYTES", 10<<20, &errs))

	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.TokenRateLimit = getInt("RATE_LIMIT_TOKEN", 10, &errs)
	cfg.CreateRateLimit = getInt("RATE_LIMIT_CREATE", 60, &errs)
	cfg.UploadRateLimit = getInt("RATE_LIMIT_UPLOAD", 20, &errs)
	cfg.RateWindow = getDuration("RATE_LIMIT_WINDOW", time.Minute, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load %s configuration:\n%s", cfg.Env, strings.Join(errs, "\n"))
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN builds a key/value connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether a redis endpoint has been configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// getSecretOrEnv prefers the environment variable, then the secret file.
func getSecretOrEnv(secret, envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if v := readSecret(secret); v != "" {
		return v
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer, got %q", key, raw))
		return fallback
	}
	return v
}

func getBool(key string, fallback bool, errs *[]string) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a boolean, got %q", key, raw))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a duration, got %q", key, raw))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

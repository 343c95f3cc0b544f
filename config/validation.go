package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errors []string
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg}.Error())
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" || cfg.DBName == "" {
			add("DB_HOST", "postgres requires DB_HOST and DB_NAME")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "sqlite requires a database path")
		}
		if cfg.Env == Production {
			add("DB_DRIVER", "sqlite is not supported in production")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	switch cfg.StorageBackend {
	case StorageLocal:
		if cfg.MediaRoot == "" {
			add("MEDIA_ROOT", "local image storage requires a media root")
		}
	case StorageS3:
		if cfg.S3Bucket == "" {
			add("S3_BUCKET_NAME", "s3 image storage requires a bucket")
		}
	default:
		add("IMAGE_STORAGE", fmt.Sprintf("unsupported backend %q", cfg.StorageBackend))
	}

	if cfg.TokenTTL <= 0 {
		add("TOKEN_TTL", "must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		add("MAX_UPLOAD_BYTES", "must be positive")
	}
	if !strings.HasPrefix(cfg.MediaURL, "/") && !strings.HasPrefix(cfg.MediaURL, "http") {
		add("MEDIA_URL", "must be an absolute path or URL")
	}

	if cfg.Env == Production {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			add("JWT_SECRET", "jwt_secret secret is required")
		}
		if cfg.DBDriver == DriverPostgres && cfg.DBPassword == "" {
			add("DB_PASSWORD", "db_password secret is required")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

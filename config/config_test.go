package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T, env string) {
	t.Helper()
	t.Setenv("CI", "")
	t.Setenv("ENV", env)
	t.Setenv("SECRETS_DIR", t.TempDir())
	for _, key := range []string{
		"DB_DRIVER", "DB_PASSWORD", "JWT_SECRET", "REDIS_URL", "REDIS_HOST",
		"IMAGE_STORAGE", "S3_BUCKET_NAME", "TOKEN_TTL", "MAX_UPLOAD_BYTES",
		"CORS_ORIGINS", "DB_AUTO_MIGRATE", "MEDIA_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setTestEnv(t, "test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, "/media", cfg.MediaURL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	setTestEnv(t, "development")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/recipes.db")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/recipes.db", cfg.SQLitePath)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadConfigReadsSecrets(t *testing.T) {
	setTestEnv(t, "production")
	dir := os.Getenv("SECRETS_DIR")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("pw"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret", cfg.JWTSecret)
	assert.Equal(t, "pw", cfg.DBPassword)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	setTestEnv(t, "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	setTestEnv(t, "test")
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_TTL")
	assert.Contains(t, err.Error(), "MAX_UPLOAD_BYTES")
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:            Development,
			DBDriver:       DriverSQLite,
			SQLitePath:     "x.db",
			StorageBackend: StorageLocal,
			MediaRoot:      "media",
			MediaURL:       "/media",
			TokenTTL:       time.Hour,
			MaxUploadBytes: 1,
		}
	}

	require.NoError(t, ValidateConfig(base()))

	cfg := base()
	cfg.DBDriver = "mysql"
	assert.ErrorContains(t, ValidateConfig(cfg), "DB_DRIVER")

	cfg = base()
	cfg.StorageBackend = StorageS3
	assert.ErrorContains(t, ValidateConfig(cfg), "S3_BUCKET_NAME")

	cfg = base()
	cfg.TokenTTL = 0
	assert.ErrorContains(t, ValidateConfig(cfg), "TOKEN_TTL")

	cfg = base()
	cfg.Env = Production
	cfg.JWTSecret = "real"
	assert.ErrorContains(t, ValidateConfig(cfg), "sqlite is not supported")
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("ENV", "production")
	assert.Equal(t, CI, GetEnvironment())
	assert.True(t, IsTesting())

	t.Setenv("CI", "")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

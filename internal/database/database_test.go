package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := database.Open(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.RunMigrations(context.Background(), db, "", zaptest.NewLogger(t)))
	return db
}

func TestOpenSQLite(t *testing.T) {
	db := openSQLite(t)

	assert.NoError(t, database.HealthCheck(context.Background(), db))
	assert.True(t, db.Migrator().HasTable(&models.Recipe{}))
	assert.True(t, db.Migrator().HasTable("recipe_tags"))
	assert.True(t, db.Migrator().HasTable("recipe_ingredients"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open(&config.Config{DBDriver: "oracle"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestDuplicateEmailIsTranslated(t *testing.T) {
	db := openSQLite(t)

	first := models.User{Email: "a@example.com", Name: "A", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&first).Error)

	second := models.User{Email: "a@example.com", Name: "B", PasswordHash: "y", IsActive: true}
	err := db.Create(&second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestAutoMigrateIsRepeatable(t *testing.T) {
	db := openSQLite(t)

	user := models.User{Email: "owner@example.com", Name: "Owner", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, database.AutoMigrate(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on", database.SQLiteDSN("app.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", database.SQLiteDSN("file:x?mode=memory"))
}

func TestNewRedisClientUnreachable(t *testing.T) {
	cfg := &config.Config{RedisHost: "127.0.0.1", RedisPort: "1"}
	_, err := database.NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

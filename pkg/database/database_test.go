package database

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateIsIdempotentAndSeedsCategories(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var categories []model.ForumCategory
	require.NoError(t, db.Order("order_index ASC").Find(&categories).Error)
	require.Len(t, categories, 4)
	assert.Equal(t, "general", categories[0].Slug)
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	d, err := dialector(&config.DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestInitRedisDisabled(t *testing.T) {
	rdb, err := InitRedis(&config.RedisConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

package database

import (
	"path/filepath"
	"testing"

	"expense-manager/config"
	"expense-manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	_, err = Dialector(&config.DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err, "sqlite without path")
}

func TestDialector_Names(t *testing.T) {
	for driver, name := range map[string]string{
		"sqlite":   "sqlite",
		"mysql":    "mysql",
		"postgres": "postgres",
	} {
		d, err := Dialector(&config.DatabaseConfig{Driver: driver, Path: ":memory:"})
		require.NoError(t, err, driver)
		assert.Equal(t, name, d.Name())
	}
}

func TestInit_SeedsCategoriesOnce(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "test.db")},
	}
	require.NoError(t, Init(cfg))
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		DB = nil
	}()

	var count int64
	require.NoError(t, GetDB().Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.DefaultCategories())), count)

	// second seed is a no-op
	require.NoError(t, Seed(DB))
	require.NoError(t, DB.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.DefaultCategories())), count)
}

package config

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PREVIEW_DEBOUNCE", "")
	t.Setenv("GENERATOR_MODE", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	t.Setenv("SESSION_MAX_PER_OWNER", "")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Preview.Debounce)
	assert.Equal(t, int64(10485760), cfg.Storage.MaxFileSize)
	assert.Equal(t, "remote", cfg.Generator.Mode)
	assert.Equal(t, uint64(768), cfg.Qdrant.VectorSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 5, cfg.Session.MaxPerOwner)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("WORKER_CONCURRENCY", "7")
	t.Setenv("WORKER_POLL_INTERVAL", "250ms")
	t.Setenv("LOG_COMPRESS", "false")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")
	t.Setenv("PREVIEW_DEBOUNCE", "soon")
	t.Setenv("SESSION_IDLE_TTL", "5m")

	cfg := Load()
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Worker.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.PollInterval)
	assert.False(t, cfg.Logging.Compress)
	assert.Equal(t, int64(10485760), cfg.Storage.MaxFileSize, "falls back on bad input")
	assert.Equal(t, 50*time.Millisecond, cfg.Preview.Debounce, "falls back on bad input")
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Storage:   StorageConfig{MaxFileSize: 1},
		Generator: GeneratorConfig{Mode: "remote", RemoteURL: "http://renderer"},
		Auth:      AuthConfig{JWTSecret: "secret"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Auth.JWTSecret = ""
	cfg.Generator.Mode = "latex"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "latex")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "require"}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=require", cfg.GetDatabaseDSN())
}

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"student_profiles", "resume_uploads", "index_jobs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

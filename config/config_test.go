package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("PRODUCTION", "false")
	t.Setenv("DATABASE", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("API_PORT", "8000")
}

func TestReadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMEZONE", "Europe/Oslo")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://crm.example.com,http://localhost:3000")
	t.Setenv("LEADERBOARD_CONCURRENCY", "4")
	t.Setenv("GEMINI_API_KEY", "test-key")

	config, err := ReadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DBSQLite, config.DB)
	assert.Equal(t, ":memory:", config.SQLite.Path)
	assert.Equal(t, "8000", config.API.Port)
	assert.Equal(
		t,
		[]string{"https://crm.example.com", "http://localhost:3000"},
		config.API.CORSAllowedOrigins,
	)
	assert.Equal(t, 4, config.Leaderboard.Concurrency)
	assert.Equal(t, "test-key", config.Generation.APIKey)
	assert.Equal(t, "Europe/Oslo", config.Location().String())

	level, err := config.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestReadFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	config, err := ReadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, config.API.RequestTimeout)
	assert.Equal(t, []string{"*"}, config.API.CORSAllowedOrigins)
	assert.Equal(t, "gemini-2.0-flash", config.Generation.Model)
	assert.Equal(t, 30*time.Second, config.Generation.Timeout)
	assert.Empty(t, config.Endpoints.BaseURL)
	assert.Equal(t, 8, config.Leaderboard.Concurrency)
	assert.Equal(t, time.UTC, config.Location())
}

func TestReadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unsupported database", map[string]string{"DATABASE": "postgres"}},
		{"invalid log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"invalid time zone", map[string]string{"TIMEZONE": "Mars/Olympus_Mons"}},
		{"zero concurrency", map[string]string{"LEADERBOARD_CONCURRENCY": "0"}},
		{"zero rate limit", map[string]string{"QUERY_RATE_LIMIT_PER_SECOND": "0"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setRequiredEnv(t)
			for key, value := range test.env {
				t.Setenv(key, value)
			}

			_, err := ReadFromEnv()
			assert.Error(t, err)
		})
	}
}

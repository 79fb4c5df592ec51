package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, "Sales Dataset.csv", cfg.Data.File)
	assert.Equal(t, 6, cfg.Data.SampleSize)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Security.EnableRateLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SALES_SERVER_PORT", "9090")
	t.Setenv("SALES_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("SALES_DATA_FILE", "/data/sales.csv")
	t.Setenv("SALES_LOG_LEVEL", "debug")
	t.Setenv("SALES_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/data/sales.csv", cfg.Data.File)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
	// Untouched values keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
  write_timeout: 45s
data:
  file: from-file.csv
  sample_size: 10
logger:
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(FileEnvVar, path)
	t.Setenv("SALES_DATA_SAMPLE_SIZE", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "from-file.csv", cfg.Data.File)
	assert.Equal(t, 3, cfg.Data.SampleSize)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv(FileEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  prot: 1\n"), 0o644))
		t.Setenv(FileEnvVar, path)
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SALES_SERVER_PORT", "70000"},
		{"bad log level", "SALES_LOG_LEVEL", "verbose"},
		{"bad log format", "SALES_LOG_FORMAT", "xml"},
		{"negative sample", "SALES_DATA_SAMPLE_SIZE", "-1"},
		{"zero rps", "SALES_SECURITY_RATE_LIMIT_RPS", "0"},
		{"unparsable int", "SALES_SERVER_PORT", "eighty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

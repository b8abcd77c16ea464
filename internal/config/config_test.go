package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.NotEmpty(t, cfg.Storage.LocalPath)
	assert.Equal(t, 10, cfg.GitHub.RateLimit)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ".impactboard.yml", cfg.Render.PolicyPath)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: sqlite
  local_path: /tmp/board.db
github:
  rate_limit: 3
server:
  addr: ":9090"
render:
  readme_path: PROFILE.md
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/board.db", cfg.Storage.LocalPath)
	assert.Equal(t, 3, cfg.GitHub.RateLimit)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "PROFILE.md", cfg.Render.ReadmePath)
	// Unset keys fall back to defaults.
	assert.Equal(t, ".impactboard.yml", cfg.Render.PolicyPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hook-secret")
	t.Setenv("GITHUB_RATE_LIMIT", "7")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/board")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "hook-secret", cfg.GitHub.WebhookSecret)
	assert.Equal(t, 7, cfg.GitHub.RateLimit)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/board", cfg.Storage.PostgresDSN)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "redis" },
			wantErr: "unknown storage type",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Storage.Type = "sqlite"
				c.Storage.LocalPath = ""
			},
			wantErr: "local_path required",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.PostgresDSN = ""
			},
			wantErr: "postgres_dsn required",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.GitHub.RateLimit = 0 },
			wantErr: "rate_limit must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

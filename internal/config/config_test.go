package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/config"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/cfgm"
)

func TestDefaultConfig_Load(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	cfg, err := cfgm.Load(config.DefaultConfig(), cfgm.WithConfigPaths(filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, err)

	assert.Equal(t, "{%", cfg.Delimiters.Open)
	assert.Equal(t, "%}", cfg.Delimiters.Close)
	assert.Equal(t, "::", cfg.Delimiters.Separator)
	assert.Equal(t, 1000, cfg.Engine.MaxPasses)
	assert.Equal(t, "http://localhost:40117", cfg.Client.URL)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
}

func TestDefaultConfig_FileOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.internal:8080")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
delimiters:
  open: "<<"
  close: ">>"
engine:
  max-passes: 50
server:
  timeout: 3s
`), 0o600))

	cfg, err := cfgm.Load(config.DefaultConfig(), cfgm.WithConfigPaths(path))
	require.NoError(t, err)

	assert.Equal(t, "<<", cfg.Delimiters.Open)
	assert.Equal(t, ">>", cfg.Delimiters.Close)
	assert.Equal(t, 50, cfg.Engine.MaxPasses)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "http://api.internal:8080", cfg.Client.URL)

	p, err := cfg.Delimiters.Profile()
	require.NoError(t, err)
	assert.Equal(t, "<<", p.Open())
	assert.Equal(t, "::", p.Separator())
}

func TestDelimiterConfig_InvalidProfile(t *testing.T) {
	_, err := config.DelimiterConfig{Open: "", Close: "%}", Separator: "::"}.Profile()
	require.Error(t, err)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := config.LogConfig{Level: tt.level}.SlogLevel()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

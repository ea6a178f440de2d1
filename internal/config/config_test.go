package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, DefaultBuckets, cfg.Project.Buckets)
	assert.Equal(t, "development", cfg.Transpile.Mode)
	assert.Equal(t, "esbuild", cfg.Transpile.Compiler)
	assert.Equal(t, 500, cfg.Transpile.CacheEntries)
	assert.True(t, cfg.Development.HotReload)
	assert.True(t, cfg.Development.ErrorOverlay)
	assert.Equal(t, 100, cfg.Development.DebounceMs)
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.port", 4000)
	viper.Set("transpile.mode", "production")
	viper.Set("project.buckets", []string{"components", "pages"})
	viper.Set("development.hot_reload", false)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Transpile.Mode)
	assert.Equal(t, []string{"components", "pages"}, cfg.Project.Buckets)
	assert.False(t, cfg.Development.HotReload)
}

// Snake_case keys bind through mapstructure, not the yaml tags; this
// pins every multi-word key so a missing tag shows up as a red bar.
func TestLoad_SnakeCaseKeys(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("server.allowed_origins", []string{"http://localhost:5173"})
	viper.Set("transpile.cache_entries", 42)
	viper.Set("development.hot_reload", false)
	viper.Set("development.error_overlay", false)
	viper.Set("development.debounce_ms", 250)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 42, cfg.Transpile.CacheEntries)
	assert.False(t, cfg.Development.HotReload)
	assert.False(t, cfg.Development.ErrorOverlay)
	assert.Equal(t, 250, cfg.Development.DebounceMs)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"port out of range", "server.port", 99999},
		{"hostile host", "server.host", "local;host"},
		{"unknown mode", "transpile.mode", "turbo"},
		{"bucket traversal", "project.buckets", []string{"../outside"}},
		{"negative cache", "transpile.cache_entries", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			viper.Set(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	t.Run("should return defaults when file is missing", func(t *testing.T) {
		loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

		cfg, err := loader.Load()
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.Server.Port)
		assert.NotEmpty(t, cfg.DataDir)
		assert.NotEmpty(t, cfg.Logging.File)
	})

	t.Run("should load values from file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		body := `{
			"server": {"port": 9001},
			"provider": {"kind": "anthropic", "model": "claude-sonnet-4-20250514"},
			"agent": {"max_iterations": 3}
		}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0600))

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.Equal(t, 9001, cfg.Server.Port)
		assert.Equal(t, "anthropic", cfg.Provider.Kind)
		assert.Equal(t, "claude-sonnet-4-20250514", cfg.Provider.Model)
		assert.Equal(t, 3, cfg.Agent.MaxIterations)
		// untouched sections keep defaults
		assert.Equal(t, 0.5, cfg.Provider.Temperature)
	})

	t.Run("should fail on malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := NewLoader(path).Load()
		assert.Error(t, err)
	})
}

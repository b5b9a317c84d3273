package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("should expose the serve subcommand", func(t *testing.T) {
		names := []string{}
		for _, cmd := range GetRootCmd().Commands() {
			names = append(names, cmd.Name())
		}
		assert.Contains(t, names, "serve")
	})

	t.Run("should define the global flags", func(t *testing.T) {
		flags := GetRootCmd().PersistentFlags()
		require.NotNil(t, flags.Lookup("config"))
		require.NotNil(t, flags.Lookup("log-level"))
	})

	t.Run("should carry a version", func(t *testing.T) {
		assert.Equal(t, version, GetRootCmd().Version)
	})
}

package toolexec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadManifest(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("should load plain and marker-wrapped schemas", func(t *testing.T) {
		path := writeManifest(t, `{
			"list_dir": {
				"description": "List directory contents",
				"schema": "{\"type\": \"object\", \"properties\": {\"path\": {\"type\": \"string\"}}, \"required\": [\"path\"]}"
			},
			"grep_search": {
				"description": "Search file contents",
				"schema": "<tool_schema>{\"type\": \"object\", \"properties\": {\"query\": {\"type\": \"string\"}}}</tool_schema>"
			}
		}`)

		defs, err := LoadManifest(path, logger)
		require.NoError(t, err)
		require.Len(t, defs, 2)

		// sorted by name
		assert.Equal(t, "grep_search", defs[0].Name)
		assert.Equal(t, "list_dir", defs[1].Name)

		props := defs[0].Parameters["properties"].(map[string]interface{})
		assert.Contains(t, props, "query")
		assert.Nil(t, defs[0].Handler)
	})

	t.Run("should skip entries with unusable schemas", func(t *testing.T) {
		path := writeManifest(t, `{
			"good": {"description": "ok", "schema": "{\"type\": \"object\"}"},
			"bad": {"description": "broken", "schema": "not a schema at all"}
		}`)

		defs, err := LoadManifest(path, logger)
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, "good", defs[0].Name)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"), logger)
		assert.Error(t, err)
	})

	t.Run("should fail on malformed manifest JSON", func(t *testing.T) {
		path := writeManifest(t, `{broken`)
		_, err := LoadManifest(path, logger)
		assert.Error(t, err)
	})
}

func TestParseSchemaString(t *testing.T) {
	t.Run("should extract object surrounded by stray text", func(t *testing.T) {
		schema, err := parseSchemaString(`Schema follows: {"type": "object"} end`)
		require.NoError(t, err)
		assert.Equal(t, "object", schema["type"])
	})

	t.Run("should fail when no object is present", func(t *testing.T) {
		_, err := parseSchemaString("nothing here")
		assert.Error(t, err)
	})
}

package toolexec

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// manifestEntry is one tool in the manifest file. Schema holds the
// JSON-Schema for the tool's parameters as a string, optionally wrapped in
// XML-like markers left over from prompt templates.
type manifestEntry struct {
	Description string `json:"description"`
	Schema      string `json:"schema"`
}

var schemaMarkers = regexp.MustCompile(`(?s)^\s*<[^<>]+>\s*(\{.*\})\s*</[^<>]+>\s*$`)

// LoadManifest reads tool definitions from a JSON manifest. Entries whose
// schema cannot be parsed are skipped with a warning so one bad entry does
// not take down the whole tool set. Definitions come back sorted by name
// and without handlers.
func LoadManifest(path string, logger zerolog.Logger) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool manifest: %w", err)
	}

	var entries map[string]manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse tool manifest %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(entries))
	for _, name := range names {
		entry := entries[name]

		schema, err := parseSchemaString(entry.Schema)
		if err != nil {
			logger.Warn().Err(err).Str("tool", name).Msg("skipping manifest entry with unusable schema")
			continue
		}

		defs = append(defs, Definition{
			Name:        name,
			Description: entry.Description,
			Parameters:  schema,
		})
	}

	return defs, nil
}

// parseSchemaString extracts the JSON-Schema object from a manifest schema
// string, stripping a single wrapping marker pair when present.
func parseSchemaString(raw string) (map[string]interface{}, error) {
	body := raw
	if m := schemaMarkers.FindStringSubmatch(raw); m != nil {
		body = m[1]
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end < start {
			return nil, fmt.Errorf("no JSON object found in schema string")
		}
		body = raw[start : end+1]
	}

	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(body), &schema); err != nil {
		return nil, fmt.Errorf("parse schema JSON: %w", err)
	}
	return schema, nil
}

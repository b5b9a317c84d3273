package inspect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// directories never worth showing to the model
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

type dirEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  int64  `json:"size,omitempty"`
	Items int    `json:"items,omitempty"`
}

// listDir lists the immediate contents of a directory
func (ins *inspector) listDir(_ context.Context, params map[string]interface{}) (interface{}, error) {
	rel := optionalStringArg(params, "path")
	full, err := ins.resolve(rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", displayPath(rel), err)
	}

	listing := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		item := dirEntry{Name: entry.Name()}
		if entry.IsDir() {
			item.Type = "directory"
			if children, err := os.ReadDir(filepath.Join(full, entry.Name())); err == nil {
				item.Items = len(children)
			}
		} else {
			item.Type = "file"
			if info, err := entry.Info(); err == nil {
				item.Size = info.Size()
			}
		}
		listing = append(listing, item)
	}

	sort.Slice(listing, func(i, j int) bool { return listing[i].Name < listing[j].Name })

	return map[string]interface{}{
		"path":    displayPath(rel),
		"entries": listing,
	}, nil
}

// findFile locates files by name or glob pattern anywhere under the root
func (ins *inspector) findFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	pattern, err := stringArg(params, "name")
	if err != nil {
		return nil, err
	}

	matches := []string{}
	truncated := false
	err = ins.walk(func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		matched, matchErr := filepath.Match(pattern, d.Name())
		if matchErr != nil {
			// not a valid glob, fall back to substring matching
			matched = strings.Contains(d.Name(), pattern)
		}
		if matched {
			if len(matches) == maxSearchResults {
				truncated = true
				return fs.SkipAll
			}
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"pattern":   pattern,
		"matches":   matches,
		"truncated": truncated,
	}, nil
}

type grepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// grepSearch scans file contents for a substring. Matching is
// case-insensitive when the case_insensitive parameter is true.
func (ins *inspector) grepSearch(_ context.Context, params map[string]interface{}) (interface{}, error) {
	query, err := stringArg(params, "query")
	if err != nil {
		return nil, err
	}
	caseInsensitive, _ := params["case_insensitive"].(bool)

	needle := query
	if caseInsensitive {
		needle = strings.ToLower(query)
	}

	scope := optionalStringArg(params, "path")
	if _, err := ins.resolve(scope); err != nil {
		return nil, err
	}

	matches := []grepMatch{}
	truncated := false
	err = ins.walk(func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		if scope != "" && !withinScope(rel, scope) {
			return nil
		}

		hits, err := ins.grepFile(rel, needle, caseInsensitive, maxSearchResults-len(matches))
		if err != nil {
			// unreadable or binary files are skipped, not fatal
			return nil
		}
		matches = append(matches, hits...)
		if len(matches) >= maxSearchResults {
			truncated = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"query":     query,
		"matches":   matches,
		"truncated": truncated,
	}, nil
}

func (ins *inspector) grepFile(rel, needle string, caseInsensitive bool, budget int) ([]grepMatch, error) {
	full := filepath.Join(ins.root, rel)
	info, err := os.Stat(full)
	if err != nil || info.Size() > maxFileBytes {
		return nil, fmt.Errorf("skip %s", rel)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, 0) != -1 {
		return nil, fmt.Errorf("binary file %s", rel)
	}

	matches := []grepMatch{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxFileBytes)
	lineNo := 0
	for scanner.Scan() && len(matches) < budget {
		lineNo++
		line := scanner.Text()
		haystack := line
		if caseInsensitive {
			haystack = strings.ToLower(line)
		}
		if strings.Contains(haystack, needle) {
			matches = append(matches, grepMatch{Path: rel, Line: lineNo, Text: strings.TrimSpace(line)})
		}
	}
	return matches, nil
}

// walk visits every entry under the root with workspace-relative paths,
// skipping hidden and dependency directories.
func (ins *inspector) walk(visit func(rel string, d fs.DirEntry) error) error {
	return filepath.WalkDir(ins.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == ins.root {
			return nil
		}
		if d.IsDir() && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return fs.SkipDir
		}

		rel, relErr := filepath.Rel(ins.root, path)
		if relErr != nil {
			return nil
		}
		return visit(filepath.ToSlash(rel), d)
	})
}

func withinScope(rel, scope string) bool {
	scope = filepath.ToSlash(filepath.Clean(scope))
	return rel == scope || strings.HasPrefix(rel, scope+"/")
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return filepath.ToSlash(filepath.Clean(rel))
}

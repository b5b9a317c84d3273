// Package inspect implements the read-only repository inspection tools the
// agent can call: directory listing, file search, content search and Go
// source structure analysis. All tools resolve paths inside a single
// workspace root and cannot read outside it.
package inspect

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AathavaleHarsh/issue-resolver/pkg/toolexec"
)

// result caps keep tool output small enough for a model turn
const (
	maxSearchResults = 100
	maxFileBytes     = 1 << 20
)

// Options holds inspection tool configuration
type Options struct {
	WorkspaceRoot string
	Logger        *zerolog.Logger
}

type inspector struct {
	root   string
	logger zerolog.Logger
}

// Handlers returns the tool handlers keyed by tool name, for attaching to a
// registry populated from the manifest.
func Handlers(opts Options) (map[string]toolexec.Handler, error) {
	if opts.WorkspaceRoot == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	root, err := filepath.Abs(opts.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	ins := &inspector{
		root:   root,
		logger: logger.With().Str("component", "inspect").Logger(),
	}

	return map[string]toolexec.Handler{
		"list_dir":              ins.listDir,
		"find_file":             ins.findFile,
		"grep_search":           ins.grepSearch,
		"view_code_structure":   ins.viewCodeStructure,
		"get_code_dependencies": ins.getCodeDependencies,
		"get_call_hierarchy":    ins.getCallHierarchy,
	}, nil
}

// resolve maps a tool-supplied relative path onto the workspace, rejecting
// anything that would escape the root.
func (ins *inspector) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || rel == "." {
		return ins.root, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative to the repository root: %s", rel)
	}

	full := filepath.Join(ins.root, filepath.Clean(rel))
	if full != ins.root && !strings.HasPrefix(full, ins.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the repository root: %s", rel)
	}
	return full, nil
}

func stringArg(params map[string]interface{}, key string) (string, error) {
	value, ok := params[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("parameter %q is required", key)
	}
	return strings.TrimSpace(value), nil
}

func optionalStringArg(params map[string]interface{}, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

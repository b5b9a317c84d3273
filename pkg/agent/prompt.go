package agent

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSystemPrompt is used when no system prompt file is configured or
// the configured file cannot be read.
const DefaultSystemPrompt = `You are an expert software engineering assistant. You are given a GitHub issue and a set of read-only tools for inspecting the repository it belongs to.

Analyze the issue, gather whatever context you need with the tools, and then propose a concrete solution or clear next steps. Prefer citing specific files, functions and lines over vague advice. When the issue cannot be resolved from the available information, say exactly what is missing.

Use tools only when they help; do not call tools to restate information already present in the issue. Your final message must be a self-contained analysis that a maintainer can act on.`

// LoadSystemPrompt reads a system prompt from path. An empty or
// whitespace-only file is an error so a truncated file never silently
// replaces the prompt.
func LoadSystemPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}

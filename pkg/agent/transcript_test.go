package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTask(t *testing.T) {
	task := Task{
		Title:       "Fix login redirect",
		Description: "Steps to reproduce:\n1. Log in\n2. Observe redirect to /404",
		RepoOwner:   "octocat",
		RepoName:    "hello-world",
		IssueNumber: 7,
		Labels:      []string{"bug", "auth"},
		Creator:     "alice",
		Status:      "open",
		URL:         "https://github.com/octocat/hello-world/issues/7",
	}

	rendered := RenderTask(task)

	assert.True(t, strings.HasPrefix(rendered, "Please analyze the following GitHub issue"))
	assert.Contains(t, rendered, "Title: Fix login redirect\n")
	assert.Contains(t, rendered, "Repository: octocat/hello-world\n")
	assert.Contains(t, rendered, "Labels: bug, auth\n")
	assert.True(t, strings.HasSuffix(rendered, "Description:\n"+task.Description))
}

func TestExtractTaskRoundTrip(t *testing.T) {
	t.Run("should recover all fields verbatim", func(t *testing.T) {
		task := Task{
			Title:       "Crash when parsing empty file",
			Description: "Trace:\n\npanic: runtime error\n\nDescription: has a tricky line",
			RepoOwner:   "acme",
			RepoName:    "widget",
			IssueNumber: 123,
			Labels:      []string{"bug"},
			Creator:     "bob",
			Status:      "open",
			URL:         "https://github.com/acme/widget/issues/123",
		}

		got := ExtractTask(RenderTask(task))

		assert.Equal(t, task, got)
	})

	t.Run("should handle empty labels and description", func(t *testing.T) {
		task := Task{
			Title:     "No details",
			RepoOwner: "acme",
			RepoName:  "widget",
			Status:    "closed",
			URL:       "https://github.com/acme/widget/issues/1",
		}

		got := ExtractTask(RenderTask(task))

		assert.Equal(t, task, got)
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 150))
	assert.Equal(t, "abc...", preview("abcdef", 3))

	long := strings.Repeat("héllo ", 50)
	got := preview(long, 150)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), 153)
}

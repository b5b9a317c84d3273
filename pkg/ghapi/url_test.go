package ghapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		name  string
		url   string
		owner string
		repo  string
	}{
		{"plain repository url", "https://github.com/octocat/hello-world", "octocat", "hello-world"},
		{"trailing slash", "https://github.com/octocat/hello-world/", "octocat", "hello-world"},
		{"issues section", "https://github.com/octocat/hello-world/issues", "octocat", "hello-world"},
		{"single issue link", "https://github.com/octocat/hello-world/issues/42", "octocat", "hello-world"},
		{"pulls section", "https://github.com/octocat/hello-world/pulls", "octocat", "hello-world"},
		{"wiki section", "https://github.com/octocat/hello-world/wiki", "octocat", "hello-world"},
		{"git suffix", "https://github.com/octocat/hello-world.git", "octocat", "hello-world"},
		{"www host", "https://www.github.com/octocat/hello-world", "octocat", "hello-world"},
		{"http scheme", "http://github.com/octocat/hello-world", "octocat", "hello-world"},
		{"surrounding whitespace", "  https://github.com/octocat/hello-world  ", "octocat", "hello-world"},
	}

	for _, tc := range cases {
		t.Run("should parse "+tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}

	invalid := []struct {
		name string
		url  string
	}{
		{"empty string", ""},
		{"wrong host", "https://gitlab.com/octocat/hello-world"},
		{"owner only", "https://github.com/octocat"},
		{"not a url", "octocat/hello-world"},
	}

	for _, tc := range invalid {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			_, _, err := ParseRepoURL(tc.url)
			assert.Error(t, err)
		})
	}
}

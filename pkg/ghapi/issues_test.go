package ghapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return &Client{gh: gh}
}

func TestFetchIssues(t *testing.T) {
	t.Run("should map issues and skip pull requests", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/octocat/hello-world/issues", r.URL.Path)
			assert.Equal(t, "open", r.URL.Query().Get("state"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{
					"number": 42,
					"title": "Crash on empty config",
					"body": "The server panics.",
					"state": "open",
					"html_url": "https://github.com/octocat/hello-world/issues/42",
					"user": {"login": "alice"},
					"labels": [{"name": "bug"}, {"name": "crash"}]
				},
				{
					"number": 43,
					"title": "Fix crash",
					"state": "open",
					"pull_request": {"url": "https://api.github.com/repos/octocat/hello-world/pulls/43"}
				}
			]`))
		}))

		issues, err := client.FetchIssues(context.Background(), "octocat", "hello-world", 10)
		require.NoError(t, err)
		require.Len(t, issues, 1)

		issue := issues[0]
		assert.Equal(t, 42, issue.Number)
		assert.Equal(t, "Crash on empty config", issue.Title)
		assert.Equal(t, "The server panics.", issue.Description)
		assert.Equal(t, []string{"bug", "crash"}, issue.Labels)
		assert.Equal(t, "alice", issue.CreatorName)
		assert.Equal(t, "open", issue.Status)
		assert.Equal(t, "https://github.com/octocat/hello-world/issues/42", issue.URL)
	})

	t.Run("should cap results at the limit", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"number": 1, "title": "a", "state": "open"},
				{"number": 2, "title": "b", "state": "open"},
				{"number": 3, "title": "c", "state": "open"}
			]`))
		}))

		issues, err := client.FetchIssues(context.Background(), "octocat", "hello-world", 2)
		require.NoError(t, err)
		assert.Len(t, issues, 2)
	})

	t.Run("should surface api failures", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
		}))

		_, err := client.FetchIssues(context.Background(), "octocat", "missing", 10)
		assert.ErrorContains(t, err, "list issues")
	})
}

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
	"github.com/AathavaleHarsh/issue-resolver/pkg/fanout"
	"github.com/AathavaleHarsh/issue-resolver/pkg/ghapi"
)

type fakeFetcher struct {
	issues []ghapi.Issue
	err    error
	owner  string
	repo   string
}

func (f *fakeFetcher) FetchIssues(_ context.Context, owner, repo string, _ int) ([]ghapi.Issue, error) {
	f.owner, f.repo = owner, repo
	return f.issues, f.err
}

type fakeStarter struct {
	sessionID string
	task      agent.Task
}

func (f *fakeStarter) Start(task agent.Task) string {
	f.task = task
	return f.sessionID
}

type testEnv struct {
	server  *httptest.Server
	fetcher *fakeFetcher
	starter *fakeStarter
	hub     *fanout.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		fetcher: &fakeFetcher{},
		starter: &fakeStarter{sessionID: "session-abc"},
		hub:     fanout.New(fanout.Config{}),
	}

	s, err := New(Options{
		Port:   8000,
		Issues: env.fetcher,
		Runs:   env.starter,
		Hub:    env.hub,
	})
	require.NoError(t, err)

	env.server = httptest.NewServer(s.routes())
	t.Cleanup(env.server.Close)
	return env
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestNew(t *testing.T) {
	hub := fanout.New(fanout.Config{})

	t.Run("should require an issue fetcher", func(t *testing.T) {
		_, err := New(Options{Port: 8000, Runs: &fakeStarter{}, Hub: hub})
		assert.ErrorContains(t, err, "issue fetcher is required")
	})

	t.Run("should require a run starter", func(t *testing.T) {
		_, err := New(Options{Port: 8000, Issues: &fakeFetcher{}, Hub: hub})
		assert.ErrorContains(t, err, "run starter is required")
	})

	t.Run("should require a valid port", func(t *testing.T) {
		_, err := New(Options{Issues: &fakeFetcher{}, Runs: &fakeStarter{}, Hub: hub})
		assert.ErrorContains(t, err, "port")
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestFetchIssuesEndpoint(t *testing.T) {
	t.Run("should return issues for a valid repository url", func(t *testing.T) {
		env := newTestEnv(t)
		env.fetcher.issues = []ghapi.Issue{{Number: 1, Title: "Bug", Status: "open"}}

		resp := postJSON(t, env.server.URL+"/api/issues",
			`{"repo_url": "https://github.com/octocat/hello-world/issues"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body fetchIssuesResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "octocat", body.Repository.Owner)
		assert.Equal(t, "hello-world", body.Repository.Name)
		require.Len(t, body.Issues, 1)
		assert.Equal(t, "Bug", body.Issues[0].Title)

		assert.Equal(t, "octocat", env.fetcher.owner)
		assert.Equal(t, "hello-world", env.fetcher.repo)
	})

	t.Run("should reject an invalid repository url", func(t *testing.T) {
		env := newTestEnv(t)

		resp := postJSON(t, env.server.URL+"/api/issues", `{"repo_url": "https://example.com/nope"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Contains(t, body["detail"], "not a valid GitHub repository URL")
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		resp := postJSON(t, env.server.URL+"/api/issues", `{broken`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("should map fetch failures to 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.fetcher.err = fmt.Errorf("rate limited")

		resp := postJSON(t, env.server.URL+"/api/issues",
			`{"repo_url": "https://github.com/octocat/hello-world"}`)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestProcessIssueEndpoint(t *testing.T) {
	t.Run("should start a run and return its session id", func(t *testing.T) {
		env := newTestEnv(t)

		resp := postJSON(t, env.server.URL+"/api/process", `{
			"repo_url": "https://github.com/octocat/hello-world",
			"issue": {
				"number": 42,
				"title": "Crash on empty config",
				"description": "The server panics.",
				"creator_name": "alice",
				"status": "open",
				"url": "https://github.com/octocat/hello-world/issues/42"
			}
		}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body processIssueResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "session-abc", body.SessionID)
		assert.Equal(t, "Issue processing started", body.Message)

		assert.Equal(t, "Crash on empty config", env.starter.task.Title)
		assert.Equal(t, "octocat", env.starter.task.RepoOwner)
		assert.Equal(t, "hello-world", env.starter.task.RepoName)
		assert.Equal(t, 42, env.starter.task.IssueNumber)
	})

	t.Run("should require an issue title", func(t *testing.T) {
		env := newTestEnv(t)
		resp := postJSON(t, env.server.URL+"/api/process",
			`{"repo_url": "https://github.com/octocat/hello-world", "issue": {}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestIssueLogsWebSocket(t *testing.T) {
	t.Run("should stream published lines to the subscriber", func(t *testing.T) {
		env := newTestEnv(t)

		wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/issue-logs/session-abc"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		// wait for the subscription to land before publishing
		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount() == 1
		}, time.Second, 5*time.Millisecond)

		env.hub.Publish("session-abc", "AGENT: working")
		env.hub.Publish("session-abc", "INFO: Processing complete.")

		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, first, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "AGENT: working", string(first))

		_, second, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "INFO: Processing complete.", string(second))
	})

	t.Run("should detach the subscriber on disconnect", func(t *testing.T) {
		env := newTestEnv(t)

		wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/issue-logs/session-abc"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount() == 1
		}, time.Second, 5*time.Millisecond)

		conn.Close()

		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount() == 0
		}, time.Second, 5*time.Millisecond)
	})
}

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	require.NotNil(t, m)
	assert.NotNil(t, m.RunsTotal)
	assert.NotNil(t, m.ToolExecutionsTotal)
	assert.NotNil(t, m.SubscribersActive)
}

func TestHandler(t *testing.T) {
	m := New()

	m.RunsTotal.WithLabelValues("completed").Inc()
	m.SubscribersActive.Set(2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "agent_runs_total")
	assert.Contains(t, body, "log_subscribers_active")
}

// Package httpapi exposes the service over HTTP: issue fetching, starting
// background agent runs and streaming run progress over WebSocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
	"github.com/AathavaleHarsh/issue-resolver/pkg/fanout"
	"github.com/AathavaleHarsh/issue-resolver/pkg/ghapi"
)

// IssueFetcher retrieves issues for a repository
type IssueFetcher interface {
	FetchIssues(ctx context.Context, owner, repo string, limit int) ([]ghapi.Issue, error)
}

// RunStarter launches a background agent run and returns its session id
type RunStarter interface {
	Start(task agent.Task) string
}

// Options holds server configuration
type Options struct {
	Host           string
	Port           int
	Issues         IssueFetcher
	Runs           RunStarter
	Hub            *fanout.Hub
	MetricsHandler http.Handler
	Logger         *zerolog.Logger
}

// Server is the HTTP front of the service
type Server struct {
	opts     Options
	logger   zerolog.Logger
	server   *http.Server
	upgrader websocket.Upgrader

	shutdownMu   sync.RWMutex
	shuttingDown bool
	inFlight     sync.WaitGroup
}

// New creates the server from the options
func New(opts Options) (*Server, error) {
	if opts.Issues == nil {
		return nil, fmt.Errorf("issue fetcher is required")
	}
	if opts.Runs == nil {
		return nil, fmt.Errorf("run starter is required")
	}
	if opts.Hub == nil {
		return nil, fmt.Errorf("fanout hub is required")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("port must be positive")
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &Server{
		opts:   opts,
		logger: logger.With().Str("component", "httpapi").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the dashboard is served from another origin in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/issues", s.handleFetchIssues)
	mux.HandleFunc("POST /api/process", s.handleProcessIssue)
	mux.HandleFunc("GET /ws/issue-logs/{session_id}", s.handleIssueLogs)

	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	return s.track(mux)
}

// track refuses new requests during shutdown and counts in-flight ones so
// Stop can wait for them.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.shuttingDown {
			s.shutdownMu.RUnlock()
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		s.inFlight.Add(1)
		s.shutdownMu.RUnlock()
		defer s.inFlight.Done()

		next.ServeHTTP(w, r)
	})
}

// Start runs the server until Stop is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

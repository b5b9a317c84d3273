// Package supervisor launches agent runs in the background and bridges their
// progress into the session fan-out. Callers get a session id back
// immediately and follow the run by subscribing to that session.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
	"github.com/AathavaleHarsh/issue-resolver/pkg/fanout"
)

// Runner executes one agent run to completion
type Runner interface {
	Run(ctx context.Context, task agent.Task, publish agent.PublishFunc) agent.RunResult
}

// Observer receives run lifecycle events for metrics
type Observer interface {
	RunStarted()
	RunFinished(status string, duration time.Duration)
}

// Config holds supervisor configuration
type Config struct {
	Runner     Runner
	Hub        *fanout.Hub
	RunTimeout time.Duration
	Observer   Observer
	Logger     *zerolog.Logger
}

// Supervisor owns the background goroutines of in-flight runs
type Supervisor struct {
	runner     Runner
	hub        *fanout.Hub
	runTimeout time.Duration
	observer   Observer
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a supervisor from the config
func New(cfg Config) (*Supervisor, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Hub == nil {
		return nil, fmt.Errorf("fanout hub is required")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		runner:     cfg.Runner,
		hub:        cfg.Hub,
		runTimeout: cfg.RunTimeout,
		observer:   cfg.Observer,
		logger:     logger.With().Str("component", "supervisor").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start launches a background run for the task and returns its session id.
// It never blocks on the run itself.
func (s *Supervisor) Start(task agent.Task) string {
	sessionID := uuid.NewString()

	s.wg.Add(1)
	go s.run(sessionID, task)

	s.logger.Info().Str("session_id", sessionID).Str("task", task.Title).Msg("run started")
	return sessionID
}

// Shutdown cancels the run contexts and waits for in-flight runs to drain
func (s *Supervisor) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until all in-flight runs have finished
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) run(sessionID string, task agent.Task) {
	defer s.wg.Done()
	start := time.Now()

	if s.observer != nil {
		s.observer.RunStarted()
	}

	publish := func(line string) {
		s.hub.Publish(sessionID, "AGENT: "+line)
	}

	// The orchestrator has its own recovery; this one covers everything
	// around it so a supervisor bug still reports a terminal line.
	status := string(agent.StatusUnexpectedError)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("session_id", sessionID).Msg("run goroutine panicked")
			s.hub.Publish(sessionID, fmt.Sprintf("ERROR: An unexpected error occurred during processing: %v", r))
			s.hub.Publish(sessionID, "INFO: Processing complete.")
		}
		if s.observer != nil {
			s.observer.RunFinished(status, time.Since(start))
		}
	}()

	ctx := s.ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	result := s.runner.Run(ctx, task, publish)
	status = string(result.Status)

	switch result.Status {
	case agent.StatusCompleted, agent.StatusMaxIterations:
		s.logger.Info().
			Str("session_id", sessionID).
			Str("status", status).
			Int("iterations", result.Iterations).
			Msg("run finished")
	default:
		s.logger.Warn().
			Str("session_id", sessionID).
			Str("status", status).
			Str("detail", result.Detail).
			Msg("run finished without an answer")
		s.hub.Publish(sessionID, fmt.Sprintf("ERROR: Agent run ended with status %s. %s", status, result.Detail))
	}

	// The subscriber may attach late; the hub drops this on the floor when
	// nobody is listening.
	s.hub.Publish(sessionID, "INFO: Processing complete.")
}

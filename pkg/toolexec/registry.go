// Package toolexec manages the tool registry and executes tool calls on
// behalf of the agent. Dispatch never returns an error: every failure mode
// is encoded into the result string so the model can read it and recover.
package toolexec

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
)

// DefaultTimeout bounds a single tool execution
const DefaultTimeout = 30 * time.Second

// Handler is the function signature for tool execution
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Definition declares a tool. Parameters is a JSON-Schema object. A nil
// Handler registers the tool as schema-only: it is advertised to the model
// but dispatch reports it as not implemented.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     Handler
}

// Observer receives execution outcomes for metrics
type Observer interface {
	ObserveToolExecution(name, status string, duration time.Duration)
}

// Config holds registry configuration
type Config struct {
	Timeout  time.Duration
	Observer Observer
	Logger   *zerolog.Logger
}

// Registry holds the tool set for a run. Registration order is preserved so
// the model always sees the tools in a stable order.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*Definition
	schemas  map[string]*gojsonschema.Schema
	order    []string
	timeout  time.Duration
	observer Observer
	logger   zerolog.Logger
}

// New creates a new Registry
func New(cfg Config) *Registry {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Registry{
		tools:    make(map[string]*Definition),
		schemas:  make(map[string]*gojsonschema.Schema),
		timeout:  cfg.Timeout,
		observer: cfg.Observer,
		logger:   logger.With().Str("component", "toolexec").Logger(),
	}
}

// Register adds a tool to the registry. Re-registering a name replaces the
// previous definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description is required for %s", def.Name)
	}
	if def.Parameters == nil {
		def.Parameters = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Parameters))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = &def
	r.schemas[def.Name] = schema

	r.logger.Info().Str("tool", def.Name).Bool("has_handler", def.Handler != nil).Msg("tool registered")
	return nil
}

// SetHandler attaches a handler to an already registered tool. This is how
// manifest-loaded schema-only entries become executable.
func (r *Registry) SetHandler(name string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("tool %s is not registered", name)
	}
	def.Handler = handler
	return nil
}

// Schemas returns the tool advertisements in registration order
func (r *Registry) Schemas() []agent.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]agent.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		schemas = append(schemas, agent.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return schemas
}

// Names returns registered tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Dispatch executes the named tool and returns the result as a string for
// the transcript. Unknown tools, validation failures, handler errors,
// panics and timeouts all come back as JSON error payloads.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) string {
	start := time.Now()
	result, status := r.dispatch(ctx, name, args)

	if r.observer != nil {
		r.observer.ObserveToolExecution(name, status, time.Since(start))
	}
	return result
}

func (r *Registry) dispatch(ctx context.Context, name string, args map[string]interface{}) (string, string) {
	r.mu.RLock()
	def := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if def == nil || def.Handler == nil {
		r.logger.Warn().Str("tool", name).Msg("model requested an unavailable tool")
		return encodeError("tool not implemented or recognized", ""), "unknown"
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	if err := validateArgs(schema, args); err != nil {
		r.logger.Warn().Err(err).Str("tool", name).Msg("argument validation failed")
		return encodeError("tool execution failed", err.Error()), "invalid_args"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	output, err := r.run(timeoutCtx, def.Handler, args)
	if err != nil {
		r.logger.Error().Err(err).Str("tool", name).Msg("tool execution failed")
		return encodeError("tool execution failed", err.Error()), "error"
	}

	r.logger.Debug().Str("tool", name).Msg("tool executed")
	return encodeOutput(output), "ok"
}

// run invokes the handler in its own goroutine so a stuck tool cannot hold
// the agent loop past the timeout. Panics surface as errors.
func (r *Registry) run(ctx context.Context, handler Handler, args map[string]interface{}) (interface{}, error) {
	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errChan <- fmt.Errorf("panic: %v", rec)
			}
		}()
		result, err := handler(ctx, args)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- result
		}
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("tool execution timeout: %w", ctx.Err())
	}
}

func validateArgs(schema *gojsonschema.Schema, args map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if !result.Valid() {
		messages := []string{}
		for _, e := range result.Errors() {
			messages = append(messages, e.String())
		}
		return fmt.Errorf("argument validation failed: %v", messages)
	}
	return nil
}

// encodeOutput renders a handler result for the transcript. Strings pass
// through untouched; everything else is serialized as indented JSON.
func encodeOutput(output interface{}) string {
	if s, ok := output.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return encodeError("tool execution failed", fmt.Sprintf("unserializable result: %v", err))
	}
	return string(data)
}

func encodeError(message, details string) string {
	payload := struct {
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
	}{Error: message, Details: details}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, message)
	}
	return string(data)
}

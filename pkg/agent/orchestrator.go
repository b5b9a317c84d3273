package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxIterations caps the provider round trips per run
const DefaultMaxIterations = 7

const previewLen = 150

// Config holds orchestrator configuration
type Config struct {
	Provider      Provider
	Tools         ToolDispatcher
	SystemPrompt  string
	MaxIterations int
	Logger        *zerolog.Logger
}

// Orchestrator drives one agent run per Run call. It is stateless between
// runs and safe for concurrent use.
type Orchestrator struct {
	provider      Provider
	tools         ToolDispatcher
	systemPrompt  string
	maxIterations int
	logger        zerolog.Logger
}

// New creates an orchestrator from the config
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool dispatcher is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Orchestrator{
		provider:      cfg.Provider,
		tools:         cfg.Tools,
		systemPrompt:  cfg.SystemPrompt,
		maxIterations: cfg.MaxIterations,
		logger:        logger.With().Str("component", "orchestrator").Logger(),
	}, nil
}

// Run executes the agent loop for one task. It always returns a RunResult;
// provider failures, malformed tool arguments and panics all map to terminal
// statuses rather than errors. publish may be nil.
func (o *Orchestrator) Run(ctx context.Context, task Task, publish PublishFunc) (result RunResult) {
	if publish == nil {
		publish = func(string) {}
	}

	transcript := []Message{
		{Role: RoleSystem, Content: o.systemPrompt},
		{Role: RoleUser, Content: RenderTask(task)},
	}
	iterations := 0

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Str("task", task.Title).Msg("run panicked")
			publish(fmt.Sprintf("Error: an unexpected critical error occurred: %v", r))
			result = RunResult{
				Status:     StatusUnexpectedError,
				Detail:     fmt.Sprintf("panic: %v", r),
				Iterations: iterations,
				Transcript: transcript,
			}
		}
	}()

	publish(fmt.Sprintf("--- Agent initializing for: %s ---", task.Title))
	o.logger.Info().Str("task", task.Title).Str("provider", o.provider.Name()).Msg("starting run")

	schemas := o.tools.Schemas()
	if len(schemas) == 0 {
		o.logger.Warn().Msg("no tools configured, proceeding without tool support")
		publish("Warning: no tools are configured; the model will answer without tool access.")
	}

	publish(fmt.Sprintf("Initial message prepared (preview): %s", preview(transcript[1].Content, previewLen)))

	for iterations < o.maxIterations {
		iterations++
		publish(fmt.Sprintf("--- Agent iteration %d/%d ---", iterations, o.maxIterations))
		publish("Sending request to the model...")

		resp, err := o.provider.Chat(ctx, ChatRequest{Messages: transcript, Tools: schemas})
		if err != nil {
			var perr *ProviderError
			if errors.As(err, &perr) {
				o.logger.Error().Err(err).Int("iteration", iterations).Msg("provider call failed")
				publish(fmt.Sprintf("Error: model API call failed: %s", preview(perr.Message, previewLen)))
				return RunResult{
					Status:     StatusAPIError,
					Detail:     perr.Error(),
					Iterations: iterations,
					Transcript: transcript,
				}
			}
			o.logger.Error().Err(err).Int("iteration", iterations).Msg("unexpected provider error")
			publish(fmt.Sprintf("Error: an unexpected critical error occurred: %s", preview(err.Error(), previewLen)))
			return RunResult{
				Status:     StatusUnexpectedError,
				Detail:     err.Error(),
				Iterations: iterations,
				Transcript: transcript,
			}
		}

		publish("Received response from the model.")
		assistant := resp.Message
		assistant.Role = RoleAssistant
		transcript = append(transcript, assistant)

		if len(assistant.ToolCalls) == 0 {
			if strings.TrimSpace(assistant.Content) == "" {
				o.logger.Warn().Int("iteration", iterations).Msg("empty response, ending run")
				publish("Model returned no content and no tool calls. Ending interaction.")
				return RunResult{
					Status:     StatusEmptyResponse,
					Iterations: iterations,
					Transcript: transcript,
				}
			}

			o.logger.Info().Int("iterations", iterations).Msg("run completed")
			publish(fmt.Sprintf("Final response (preview): %s", preview(assistant.Content, previewLen)))
			return RunResult{
				Status:     StatusCompleted,
				Response:   assistant.Content,
				Iterations: iterations,
				Transcript: transcript,
			}
		}

		publish(fmt.Sprintf("Model requested %d tool call(s). Executing...", len(assistant.ToolCalls)))
		for _, call := range assistant.ToolCalls {
			transcript = append(transcript, o.executeToolCall(ctx, call, publish))
		}
	}

	o.logger.Warn().Int("iterations", iterations).Msg("iteration budget exhausted")
	publish(fmt.Sprintf("Reached maximum iterations (%d) without a final response.", o.maxIterations))
	return RunResult{
		Status:     StatusMaxIterations,
		Response:   transcript[len(transcript)-1].Content,
		Iterations: iterations,
		Transcript: transcript,
	}
}

// executeToolCall resolves one tool call into its tool-result entry. It never
// fails: argument parse errors and dispatcher errors become JSON error
// payloads in the entry content.
func (o *Orchestrator) executeToolCall(ctx context.Context, call ToolCall, publish PublishFunc) Message {
	publish(fmt.Sprintf("Calling tool %s with arguments: %s", call.Name, preview(call.Arguments, previewLen)))

	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}

	var content string
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		o.logger.Warn().Err(err).Str("tool", call.Name).Msg("model produced malformed tool arguments")
		publish(fmt.Sprintf("Error: could not parse arguments for tool %s.", call.Name))
		content = encodeToolError("invalid JSON arguments provided by the model", err.Error())
	} else {
		content = o.tools.Dispatch(ctx, call.Name, args)
		publish(fmt.Sprintf("Tool %s finished. Result (preview): %s", call.Name, preview(content, previewLen)))
	}

	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

func encodeToolError(message, details string) string {
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

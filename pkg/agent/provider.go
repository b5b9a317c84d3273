package agent

import (
	"context"
	"fmt"
)

// ChatRequest is one provider turn: the full transcript so far plus the
// tools the model may call. Sampling parameters are fixed per provider
// instance, not per request.
type ChatRequest struct {
	Messages []Message
	Tools    []ToolSchema
}

// ChatResponse is the provider's assistant turn
type ChatResponse struct {
	Message Message
	Usage   *TokenUsage
}

// TokenUsage tracks token consumption for a single call
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider abstracts an LLM backend
type Provider interface {
	// Chat sends the transcript and returns the next assistant message.
	// API-level failures are returned as *ProviderError.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Name returns the provider name for logging
	Name() string
}

// ProviderError is a failure reported by the provider API or the transport
// underneath it. StatusCode is 0 when the request never reached the API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ProviderConfig holds the settings shared by all provider implementations
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

func (c ProviderConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
)

// Config represents the main issue-resolver configuration
type Config struct {
	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// LLM provider
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// GitHub API access
	GitHub GitHubConfig `json:"github" mapstructure:"github"`

	// Agent loop
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Tool manifest and workspace
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// ProviderConfig holds LLM provider configuration
type ProviderConfig struct {
	Kind        string  `json:"kind" mapstructure:"kind"` // openai, anthropic
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	APIKeyEnv   string  `json:"api_key_env" mapstructure:"api_key_env"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// GitHubConfig holds GitHub REST API configuration
type GitHubConfig struct {
	Token    string `json:"token" mapstructure:"token"`
	TokenEnv string `json:"token_env" mapstructure:"token_env"`
}

// AgentConfig holds agent loop configuration
type AgentConfig struct {
	MaxIterations    int    `json:"max_iterations" mapstructure:"max_iterations"`
	SystemPromptPath string `json:"system_prompt_path" mapstructure:"system_prompt_path"`
}

// ToolsConfig holds tool registry configuration
type ToolsConfig struct {
	ManifestPath  string `json:"manifest_path" mapstructure:"manifest_path"`
	WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Provider: ProviderConfig{
			Kind:        "openai",
			APIKeyEnv:   "OPENROUTER_API_KEY",
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "meta-llama/llama-3.3-70b-instruct:free",
			Temperature: 0.5,
			MaxTokens:   2000,
		},
		GitHub: GitHubConfig{
			TokenEnv: "GITHUB_TOKEN",
		},
		Agent: AgentConfig{
			MaxIterations: 7,
		},
		Tools: ToolsConfig{
			ManifestPath: "configs/tools.json",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Provider.Kind {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported provider kind: %q", c.Provider.Kind)
	}

	if c.Provider.Model == "" {
		return fmt.Errorf("provider model cannot be empty")
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 1 {
		return fmt.Errorf("provider temperature must be between 0 and 1")
	}
	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("provider max tokens must be positive")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max iterations must be positive")
	}

	return nil
}

// ProviderAPIKey resolves the provider API key, preferring the literal
// value over the environment variable indirection.
func (c *Config) ProviderAPIKey() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	if c.Provider.APIKeyEnv != "" {
		return os.Getenv(c.Provider.APIKeyEnv)
	}
	return ""
}

// GitHubToken resolves the GitHub token, preferring the literal value.
func (c *Config) GitHubToken() string {
	if c.GitHub.Token != "" {
		return c.GitHub.Token
	}
	if c.GitHub.TokenEnv != "" {
		return os.Getenv(c.GitHub.TokenEnv)
	}
	return ""
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AathavaleHarsh/issue-resolver/internal/config"
	"github.com/AathavaleHarsh/issue-resolver/internal/logger"
	"github.com/AathavaleHarsh/issue-resolver/internal/metrics"
	"github.com/AathavaleHarsh/issue-resolver/pkg/agent"
	"github.com/AathavaleHarsh/issue-resolver/pkg/fanout"
	"github.com/AathavaleHarsh/issue-resolver/pkg/ghapi"
	"github.com/AathavaleHarsh/issue-resolver/pkg/httpapi"
	"github.com/AathavaleHarsh/issue-resolver/pkg/inspect"
	"github.com/AathavaleHarsh/issue-resolver/pkg/supervisor"
	"github.com/AathavaleHarsh/issue-resolver/pkg/toolexec"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the issue resolver service",
	Long: `Run the HTTP API and the agent runtime. The service fetches GitHub
issues on request, starts background agent runs and streams their progress
over WebSocket until stopped with SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer appLogger.Close()
	zl := appLogger.GetZerolog()

	m := metrics.New()

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, m, appLogger)
	if err != nil {
		return err
	}

	systemPrompt := ""
	if cfg.Agent.SystemPromptPath != "" {
		systemPrompt, err = agent.LoadSystemPrompt(cfg.Agent.SystemPromptPath)
		if err != nil {
			zl.Warn().Err(err).Str("path", cfg.Agent.SystemPromptPath).Msg("falling back to built-in system prompt")
			systemPrompt = ""
		}
	}

	orchestrator, err := agent.New(agent.Config{
		Provider:      provider,
		Tools:         registry,
		SystemPrompt:  systemPrompt,
		MaxIterations: cfg.Agent.MaxIterations,
		Logger:        &zl,
	})
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	hub := fanout.New(fanout.Config{Observer: m, Logger: &zl})

	sup, err := supervisor.New(supervisor.Config{
		Runner:   orchestrator,
		Hub:      hub,
		Observer: m,
		Logger:   &zl,
	})
	if err != nil {
		return fmt.Errorf("init supervisor: %w", err)
	}

	gh, err := ghapi.New(ghapi.Config{Token: cfg.GitHubToken()})
	if err != nil {
		return fmt.Errorf("init github client: %w", err)
	}

	server, err := httpapi.New(httpapi.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Issues:         gh,
		Runs:           sup,
		Hub:            hub,
		MetricsHandler: m.Handler(),
		Logger:         &zl,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	zl.Info().
		Str("provider", provider.Name()).
		Strs("tools", registry.Names()).
		Msg("issue resolver started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		zl.Error().Err(err).Msg("http server shutdown failed")
	}
	sup.Shutdown()

	zl.Info().Msg("shutdown complete")
	return nil
}

func buildProvider(cfg *config.Config) (agent.Provider, error) {
	pc := agent.ProviderConfig{
		APIKey:      cfg.ProviderAPIKey(),
		BaseURL:     cfg.Provider.BaseURL,
		Model:       cfg.Provider.Model,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	}

	switch cfg.Provider.Kind {
	case "anthropic":
		return agent.NewAnthropicProvider(pc)
	default:
		return agent.NewOpenAIProvider(pc)
	}
}

// buildRegistry loads the tool manifest and attaches the inspection handlers
// to the entries that have implementations. Manifest entries without a
// handler stay advertised but report as not implemented.
func buildRegistry(cfg *config.Config, m *metrics.Metrics, appLogger *logger.Logger) (*toolexec.Registry, error) {
	zl := appLogger.GetZerolog()
	registry := toolexec.New(toolexec.Config{Observer: m, Logger: &zl})

	defs, err := toolexec.LoadManifest(cfg.Tools.ManifestPath, zl)
	if err != nil {
		return nil, fmt.Errorf("load tool manifest: %w", err)
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}

	workspace := cfg.Tools.WorkspaceRoot
	if workspace == "" {
		workspace = "."
	}
	handlers, err := inspect.Handlers(inspect.Options{WorkspaceRoot: workspace, Logger: &zl})
	if err != nil {
		return nil, fmt.Errorf("init inspection tools: %w", err)
	}

	for name, handler := range handlers {
		if err := registry.SetHandler(name, handler); err != nil {
			zl.Warn().Str("tool", name).Msg("tool implemented but absent from manifest, skipping")
		}
	}

	return registry, nil
}

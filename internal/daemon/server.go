// Package daemon hosts the kata HTTP API consumed by the CLI and the
// browser UI.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/kata/internal/assistant"
	"github.com/felixgeelhaar/kata/internal/catalog"
	"github.com/felixgeelhaar/kata/internal/config"
	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/events"
	"github.com/felixgeelhaar/kata/internal/grader"
	"github.com/felixgeelhaar/kata/internal/llm"
	"github.com/felixgeelhaar/kata/internal/progress"
	"github.com/felixgeelhaar/kata/internal/runner"
	"github.com/felixgeelhaar/kata/internal/storage"
	"github.com/felixgeelhaar/kata/internal/storage/postgres"
	"github.com/felixgeelhaar/kata/internal/storage/sqlite"
)

// Version is reported by the status endpoint.
const Version = "0.1.0"

// attemptPublisher fans finished attempts out to the event pipeline.
type attemptPublisher interface {
	PublishAttempt(ctx context.Context, attempt domain.Attempt) error
}

// Server is the kata daemon HTTP server.
type Server struct {
	cfg    *config.Config
	server *http.Server
	router *http.ServeMux
	logger *slog.Logger

	catalog     *catalog.Catalog
	progress    *progress.Store
	grader      *grader.Grader
	sandbox     grader.Sandbox
	attempts    storage.AttemptStore
	publisher   attemptPublisher
	assistant   *assistant.Service
	llmRegistry *llm.Registry

	eventsConn     *events.Connection
	eventsConsumer *events.Consumer
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config       *config.Config
	ProgressPath string // progress JSON file; default <kata dir>/progress.json
	Logger       *slog.Logger
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg.Config,
		router: http.NewServeMux(),
		logger: logger,
	}

	// LLM registry and assistant
	registry := llm.NewRegistry()
	s.setupLLMProviders(registry)
	s.llmRegistry = registry

	// Problem catalog
	s.catalog = catalog.New(cfg.Config.Catalog.DataDir, logger)

	// Progress store
	progressPath := cfg.ProgressPath
	if progressPath == "" {
		kataDir, err := config.KataDir()
		if err != nil {
			return nil, fmt.Errorf("get kata dir: %w", err)
		}
		progressPath = kataDir + "/progress.json"
	}
	store, err := progress.NewStore(progressPath)
	if err != nil {
		return nil, fmt.Errorf("create progress store: %w", err)
	}
	s.progress = store

	s.assistant = assistant.NewService(registry, store, logger)

	// Sandbox and grader
	if err := s.setupSandbox(); err != nil {
		return nil, err
	}
	s.grader = grader.New(s.sandbox, logger)

	// Attempt history
	if err := s.setupHistory(ctx); err != nil {
		return nil, err
	}

	// Optional attempt event pipeline
	s.setupEvents(ctx)

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Long for SSE
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupLLMProviders registers the configured AI providers
func (s *Server) setupLLMProviders(registry *llm.Registry) {
	for name, providerCfg := range s.cfg.LLM.Providers {
		if !providerCfg.Enabled {
			continue
		}

		switch name {
		case "openrouter":
			if providerCfg.APIKey == "" {
				s.logger.Debug("openrouter provider enabled but no API key set")
				continue
			}
			provider := llm.NewOpenRouterProvider(llm.OpenRouterConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
			registry.Register("openrouter", s.resilient(provider))
			s.logger.Info("registered LLM provider", "name", "openrouter", "model", providerCfg.Model)

		case "ollama":
			provider := llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
			registry.Register("ollama", s.resilient(provider))
			s.logger.Info("registered LLM provider", "name", "ollama", "model", providerCfg.Model)
		}
	}

	if s.cfg.LLM.DefaultProvider != "" && s.cfg.LLM.DefaultProvider != "auto" {
		if err := registry.SetDefault(s.cfg.LLM.DefaultProvider); err != nil {
			s.logger.Warn("default provider not registered", "name", s.cfg.LLM.DefaultProvider)
		}
	}
}

// resilient wraps a provider with the circuit breaker / retry / bulkhead /
// rate limit policies so one flaky upstream cannot wedge the assistant.
func (s *Server) resilient(p llm.Provider) *llm.ResilientProvider {
	cfg := llm.DefaultResilientConfig()
	cfg.Logger = s.logger
	return llm.NewResilientProvider(p, cfg)
}

// setupSandbox picks the code execution backend
func (s *Server) setupSandbox() error {
	timeout := time.Duration(s.cfg.Runner.TimeoutSeconds) * time.Second

	if s.cfg.Runner.Backend == "docker" {
		sandbox, err := runner.NewDockerSandbox(s.dockerSandboxConfig(), s.logger)
		if err != nil {
			s.logger.Warn("Docker sandbox not available, using local sandbox", "error", err)
		} else {
			s.sandbox = sandbox
			return nil
		}
	}

	s.sandbox = runner.NewLocalSandbox(runner.LocalConfig{
		Python:  s.cfg.Runner.Python,
		Timeout: timeout,
	}, s.logger)
	return nil
}

// dockerSandboxConfig maps the runner section of the config onto the Docker
// sandbox settings.
func (s *Server) dockerSandboxConfig() runner.DockerConfig {
	return runner.DockerConfig{
		Image:      s.cfg.Runner.Docker.Image,
		MemoryMB:   s.cfg.Runner.Docker.MemoryMB,
		CPULimit:   s.cfg.Runner.Docker.CPULimit,
		PidsLimit:  s.cfg.Runner.Docker.PidsLimit,
		NetworkOff: s.cfg.Runner.Docker.NetworkOff,
		Timeout:    time.Duration(s.cfg.Runner.TimeoutSeconds) * time.Second,
	}
}

// setupHistory opens the attempt history store
func (s *Server) setupHistory(ctx context.Context) error {
	switch s.cfg.History.Backend {
	case "postgres":
		store, err := postgres.NewAttemptStore(ctx, s.cfg.History.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres history: %w", err)
		}
		s.attempts = store

	default:
		db, err := sqlite.Open(s.cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open sqlite history: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate sqlite history: %w", err)
		}
		s.attempts = sqlite.NewAttemptStore(db)
	}
	return nil
}

// setupEvents wires the optional RabbitMQ attempt pipeline. When it is
// enabled the daemon publishes attempts instead of recording them inline,
// and a local consumer feeds them back into the history store.
func (s *Server) setupEvents(ctx context.Context) {
	if !s.cfg.Events.Enabled {
		return
	}

	conn, err := events.NewConnection(s.cfg.Events.URL)
	if err != nil {
		s.logger.Warn("event pipeline unavailable, recording attempts inline", "error", err)
		return
	}

	consumer := events.NewConsumer(conn, events.StoreHandler(s.attempts), events.ConsumerConfig{
		Workers: s.cfg.Events.Workers,
	})
	if err := consumer.Start(ctx); err != nil {
		s.logger.Warn("event consumer failed to start, recording attempts inline", "error", err)
		conn.Close()
		return
	}

	s.eventsConn = conn
	s.eventsConsumer = consumer
	s.publisher = events.NewProducer(conn)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Problems
	s.router.HandleFunc("GET /v1/problems", s.handleListProblems)
	s.router.HandleFunc("GET /v1/problems/{id}", s.handleGetProblem)

	// Runs
	s.router.HandleFunc("POST /v1/runs", s.handleCreateRun)

	// Progress & roadmap
	s.router.HandleFunc("GET /v1/progress", s.handleGetProgress)
	s.router.HandleFunc("POST /v1/progress", s.handleUpdateProgress)
	s.router.HandleFunc("GET /v1/roadmap", s.handleGetRoadmap)
	s.router.HandleFunc("POST /v1/roadmap", s.handleUpdateRoadmap)

	// AI assistance
	s.router.HandleFunc("POST /v1/hints", s.handleHint)
	s.router.HandleFunc("POST /v1/ai/solution", s.handleAISolution)
	s.router.HandleFunc("POST /v1/ai/explain", s.handleAIExplain)

	// History
	s.router.HandleFunc("GET /v1/stats", s.handleStats)
	s.router.HandleFunc("GET /v1/attempts/{id}", s.handleListAttempts)

	// Browser UI
	staticDir := s.cfg.Catalog.StaticDir
	if staticDir == "" {
		staticDir = s.cfg.Catalog.DataDir + "/static"
	}
	s.router.Handle("GET /", http.FileServer(http.Dir(staticDir)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting kata daemon",
		"addr", s.server.Addr,
		"llm_providers", s.llmRegistry.List(),
		"runner", s.cfg.Runner.Backend,
		"history", s.cfg.History.Backend,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")

	if s.eventsConsumer != nil {
		s.eventsConsumer.Stop()
	}
	if s.eventsConn != nil {
		if err := s.eventsConn.Close(); err != nil {
			s.logger.Warn("failed to close event connection", "error", err)
		}
	}

	if closer, ok := s.sandbox.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close sandbox", "error", err)
		}
	}

	if err := s.attempts.Close(); err != nil {
		s.logger.Warn("failed to close history store", "error", err)
	}

	return s.server.Shutdown(ctx)
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/kata/internal/assistant"
	"github.com/felixgeelhaar/kata/internal/catalog"
	"github.com/felixgeelhaar/kata/internal/config"
	"github.com/felixgeelhaar/kata/internal/grader"
	"github.com/felixgeelhaar/kata/internal/llm"
	mcpserver "github.com/felixgeelhaar/kata/internal/mcp"
	"github.com/felixgeelhaar/kata/internal/progress"
	"github.com/felixgeelhaar/kata/internal/runner"
)

// cmdMCP starts the MCP server for editor integration
func cmdMCP() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// MCP runs over stdio, so logs must stay off stdout
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Initialize LLM registry; providers carry the same resilience policies
	// the daemon applies
	resilientCfg := llm.DefaultResilientConfig()
	resilientCfg.Logger = logger

	registry := llm.NewRegistry()
	for name, providerCfg := range cfg.LLM.Providers {
		if !providerCfg.Enabled || (providerCfg.APIKey == "" && name != "ollama") {
			continue
		}

		switch name {
		case "openrouter":
			provider := llm.NewOpenRouterProvider(llm.OpenRouterConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
			registry.Register("openrouter", llm.NewResilientProvider(provider, resilientCfg))
		case "ollama":
			provider := llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
			registry.Register("ollama", llm.NewResilientProvider(provider, resilientCfg))
		}
	}
	if cfg.LLM.DefaultProvider != "" && cfg.LLM.DefaultProvider != "auto" {
		_ = registry.SetDefault(cfg.LLM.DefaultProvider)
	}

	kataDir, err := config.KataDir()
	if err != nil {
		return fmt.Errorf("get kata dir: %w", err)
	}

	// Catalog and progress
	cat := catalog.New(cfg.Catalog.DataDir, logger)
	store, err := progress.NewStore(filepath.Join(kataDir, "progress.json"))
	if err != nil {
		return fmt.Errorf("create progress store: %w", err)
	}

	// Local sandbox for MCP - Docker might not be available
	sandbox := runner.NewLocalSandbox(runner.LocalConfig{
		Python:  cfg.Runner.Python,
		Timeout: time.Duration(cfg.Runner.TimeoutSeconds) * time.Second,
	}, logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Catalog:   cat,
		Grader:    grader.New(sandbox, logger),
		Progress:  store,
		Assistant: assistant.NewService(registry, store, logger),
	})

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Serve on stdio
	return mcpSrv.ServeStdio(ctx)
}

func checkDocker() error {
	// Check if docker is in PATH
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	// Check if docker daemon is running
	cmd := exec.Command("docker", "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon not running")
	}

	return nil
}

func checkPython() error {
	if _, err := exec.LookPath("python3"); err != nil {
		return fmt.Errorf("python3 not found in PATH")
	}
	return nil
}

func checkOllama(url string) error {
	if url == "" {
		url = "http://localhost:11434"
	}

	resp, err := http.Get(url + "/api/tags")
	if err != nil {
		return fmt.Errorf("not reachable at %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/kata/internal/config"
	"github.com/felixgeelhaar/kata/internal/llm"
)

func TestDockerSandboxConfigMapping(t *testing.T) {
	server := newTestServer(t, nil)
	server.cfg.Runner.TimeoutSeconds = 7
	server.cfg.Runner.Docker = config.DockerRunnerConfig{
		Image:      "python:3.12-slim",
		MemoryMB:   128,
		CPULimit:   0.25,
		PidsLimit:  32,
		NetworkOff: true,
	}

	got := server.dockerSandboxConfig()

	if got.Image != "python:3.12-slim" {
		t.Errorf("Image = %q, want python:3.12-slim", got.Image)
	}
	if got.MemoryMB != 128 {
		t.Errorf("MemoryMB = %d, want 128", got.MemoryMB)
	}
	if got.CPULimit != 0.25 {
		t.Errorf("CPULimit = %v, want 0.25", got.CPULimit)
	}
	if got.PidsLimit != 32 {
		t.Errorf("PidsLimit = %d, want 32", got.PidsLimit)
	}
	if !got.NetworkOff {
		t.Error("NetworkOff = false, want true")
	}
	if got.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", got.Timeout)
	}
}

func TestProvidersRegisteredWithResilience(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}
	writeTestCatalog(t, dataDir)

	cfg := config.Default(tmpDir)
	cfg.Catalog.DataDir = dataDir
	cfg.History.Path = filepath.Join(tmpDir, "kata.db")
	cfg.Events.Enabled = false
	cfg.LLM.Providers = map[string]*config.ProviderConfig{
		"ollama": {Enabled: true, URL: "http://localhost:11434", Model: "llama3"},
	}

	server, err := NewServer(context.Background(), ServerConfig{
		Config:       cfg,
		ProgressPath: filepath.Join(tmpDir, "progress.json"),
		Logger:       slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(func() {
		if err := server.attempts.Close(); err != nil {
			t.Logf("close history: %v", err)
		}
	})

	p, err := server.llmRegistry.Get("ollama")
	if err != nil {
		t.Fatalf("get ollama provider: %v", err)
	}
	if _, ok := p.(*llm.ResilientProvider); !ok {
		t.Errorf("registered provider is %T, want *llm.ResilientProvider", p)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/kata/internal/assistant"
	"github.com/felixgeelhaar/kata/internal/catalog"
	"github.com/felixgeelhaar/kata/internal/grader"
	"github.com/felixgeelhaar/kata/internal/llm"
	"github.com/felixgeelhaar/kata/internal/progress"
)

// mockSandbox returns a fixed value for every invocation
type mockSandbox struct {
	output string
}

func (m *mockSandbox) Invoke(context.Context, string, string, string, []string) (string, error) {
	return m.output, nil
}

// mockProvider is a simple mock LLM provider for testing
type mockProvider struct{}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(context.Context, *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "Mock hint"}, nil
}

func (m *mockProvider) GenerateStream(context.Context, *llm.Request) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (m *mockProvider) SupportsStreaming() bool { return false }

// setupTestServer creates a test MCP server with minimal configuration
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	problems := `[
		{
			"id": "1",
			"title": "Two Sum",
			"difficulty": "easy",
			"content": "<p>Find two indices.</p><p><strong>Output:</strong> [0,1]</p>",
			"topic_tags": ["array"],
			"example_test_cases": "nums = [2,7,11,15], target = 9\nOutput: [0,1]"
		}
	]`
	if err := os.WriteFile(filepath.Join(tmpDir, "problems.json"), []byte(problems), 0o644); err != nil {
		t.Fatalf("write problems: %v", err)
	}

	store, err := progress.NewStore(filepath.Join(tmpDir, "progress.json"))
	if err != nil {
		t.Fatalf("create progress store: %v", err)
	}

	registry := llm.NewRegistry()
	registry.Register("mock", &mockProvider{})

	return NewServer(Config{
		Catalog:   catalog.New(tmpDir, logger),
		Grader:    grader.New(&mockSandbox{output: "[0,1]"}, logger),
		Progress:  store,
		Assistant: assistant.NewService(registry, store, logger),
	})
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server.mcpServer == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.catalog == nil || server.grader == nil || server.progress == nil || server.assistant == nil {
		t.Fatal("expected all services wired")
	}
}

func TestHandleProblems(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleProblems(context.Background(), ProblemsInput{})
	if err != nil {
		t.Fatalf("handleProblems: %v", err)
	}
	if out.Total != 1 {
		t.Errorf("total = %d, want 1", out.Total)
	}

	out, err = server.handleProblems(context.Background(), ProblemsInput{Difficulty: "hard"})
	if err != nil {
		t.Fatalf("handleProblems filtered: %v", err)
	}
	if out.Total != 0 {
		t.Errorf("filtered total = %d, want 0", out.Total)
	}
}

func TestHandleProblem(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleProblem(context.Background(), ProblemInput{ProblemID: "1"})
	if err != nil {
		t.Fatalf("handleProblem: %v", err)
	}
	if out.Title != "Two Sum" {
		t.Errorf("title = %q", out.Title)
	}
	if !strings.Contains(out.Examples, "target = 9") {
		t.Errorf("examples = %q", out.Examples)
	}

	if _, err := server.handleProblem(context.Background(), ProblemInput{ProblemID: "999"}); err == nil {
		t.Error("expected error for unknown problem")
	}
}

func TestHandleRun(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleRun(context.Background(), RunInput{ProblemID: "1", Code: "class Solution: ..."})
	if err != nil {
		t.Fatalf("handleRun: %v", err)
	}
	if !out.Solved {
		t.Errorf("solved = false, results %+v", out.Results)
	}
	if out.Passed != 1 || out.Total != 1 {
		t.Errorf("passed/total = %d/%d", out.Passed, out.Total)
	}
	if !strings.Contains(out.Summary, "problem solved") {
		t.Errorf("summary = %q", out.Summary)
	}

	// Run lands in the progress store
	if !server.progress.Solved("1") {
		t.Error("problem should be marked solved")
	}
}

func TestHandleRunRequiresCode(t *testing.T) {
	server := setupTestServer(t)

	if _, err := server.handleRun(context.Background(), RunInput{ProblemID: "1"}); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestHandleHint(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleHint(context.Background(), HintInput{ProblemID: "1"})
	if err != nil {
		t.Fatalf("handleHint: %v", err)
	}
	if out.Level != 1 {
		t.Errorf("default level = %d, want 1", out.Level)
	}
	if out.Hint != "Mock hint" {
		t.Errorf("hint = %q", out.Hint)
	}
}

func TestHandleProgress(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleProgress(context.Background(), ProgressInput{ProblemID: "1", Action: "mark_solved"})
	if err != nil {
		t.Fatalf("handleProgress: %v", err)
	}
	if !out.Solved {
		t.Error("solved = false after mark_solved")
	}

	out, err = server.handleProgress(context.Background(), ProgressInput{ProblemID: "1"})
	if err != nil {
		t.Fatalf("read progress: %v", err)
	}
	if !out.Solved {
		t.Error("read-only call should report solved")
	}

	if _, err := server.handleProgress(context.Background(), ProgressInput{ProblemID: "1", Action: "reset_all"}); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestToolSchemas(t *testing.T) {
	// Input structs must keep their jsonschema-visible field names stable
	data, err := json.Marshal(RunInput{ProblemID: "1", Code: "x"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"problem_id"`, `"code"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("RunInput JSON missing %s: %s", want, data)
		}
	}
}

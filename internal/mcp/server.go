// Package mcp exposes the kata services as MCP tools so coding agents can
// browse problems, grade solutions, and fetch hints.
package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/kata/internal/assistant"
	"github.com/felixgeelhaar/kata/internal/catalog"
	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/extract"
	"github.com/felixgeelhaar/kata/internal/grader"
	"github.com/felixgeelhaar/kata/internal/progress"
)

// Server wraps the MCP server with kata functionality
type Server struct {
	mcpServer *server.Server
	catalog   *catalog.Catalog
	grader    *grader.Grader
	progress  *progress.Store
	assistant *assistant.Service
}

// Config contains configuration for the MCP server
type Config struct {
	Catalog   *catalog.Catalog
	Grader    *grader.Grader
	Progress  *progress.Store
	Assistant *assistant.Service
}

// NewServer creates a new MCP server for kata
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:   cfg.Catalog,
		grader:    cfg.Grader,
		progress:  cfg.Progress,
		assistant: cfg.Assistant,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "kata",
		Version: "0.1.0",
	}, server.WithInstructions(`
Kata is a local coding-interview practice tool.
Problems carry free-text example blocks that are split into test cases,
and solutions are graded by literal string comparison of returned values.

Available tools:
- kata_problems: Browse the problem catalog with filters
- kata_problem: Fetch one problem with its starter code
- kata_run: Grade a Python solution against the problem's test cases
- kata_hint: Get a progressive code hint (levels 1-3)
- kata_progress: Read or update solved status for a problem

Grading compares output strings exactly: "[0, 1]" does not match "[0,1]".
`))

	s.registerTools()

	return s
}

// registerTools registers all kata MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("kata_problems").
		Description("List practice problems, optionally filtered by difficulty, tag, or search text.").
		Handler(s.handleProblems)

	s.mcpServer.Tool("kata_problem").
		Description("Fetch a single problem with description, starter code, and example test cases.").
		Handler(s.handleProblem)

	s.mcpServer.Tool("kata_run").
		Description("Grade a Python solution against the problem's example test cases. Comparison is literal string equality.").
		Handler(s.handleRun)

	s.mcpServer.Tool("kata_hint").
		Description("Get a progressive code hint for a problem. Level 1 is a conceptual nudge, level 3 a near-complete skeleton.").
		Handler(s.handleHint)

	s.mcpServer.Tool("kata_progress").
		Description("Read or update solved status for a problem.").
		Handler(s.handleProgress)
}

// Input/Output types for tools

type ProblemsInput struct {
	Difficulty string `json:"difficulty,omitempty" jsonschema:"description=Filter by difficulty,enum=easy,enum=medium,enum=hard"`
	Tag        string `json:"tag,omitempty" jsonschema:"description=Filter by topic tag"`
	Search     string `json:"search,omitempty" jsonschema:"description=Search in titles and tags"`
}

type ProblemsOutput struct {
	Problems []domain.ProblemSummary `json:"problems"`
	Total    int                     `json:"total"`
}

type ProblemInput struct {
	ProblemID string `json:"problem_id" jsonschema:"description=Problem identifier from kata_problems"`
}

type ProblemOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	StarterCode string `json:"starter_code,omitempty"`
	Examples    string `json:"examples,omitempty"`
	Solved      bool   `json:"solved"`
}

type RunInput struct {
	ProblemID string `json:"problem_id" jsonschema:"description=Problem identifier"`
	Code      string `json:"code" jsonschema:"description=Complete Python solution source"`
}

type RunOutput struct {
	Passed  int                 `json:"passed"`
	Total   int                 `json:"total"`
	Solved  bool                `json:"solved"`
	Results []domain.CaseResult `json:"results"`
	Summary string              `json:"summary"`
}

type HintInput struct {
	ProblemID  string `json:"problem_id" jsonschema:"description=Problem identifier"`
	Level      int    `json:"level,omitempty" jsonschema:"description=Hint level 1-3 (default: 1)"`
	Code       string `json:"code,omitempty" jsonschema:"description=Current solution attempt for context"`
	Regenerate bool   `json:"regenerate,omitempty" jsonschema:"description=Bypass the cached hint"`
}

type HintOutput struct {
	Level int    `json:"level"`
	Hint  string `json:"hint"`
}

type ProgressInput struct {
	ProblemID string `json:"problem_id" jsonschema:"description=Problem identifier"`
	Action    string `json:"action,omitempty" jsonschema:"description=Optional update action,enum=mark_solved,enum=mark_unsolved"`
}

type ProgressOutput struct {
	ProblemID   string `json:"problem_id"`
	Solved      bool   `json:"solved"`
	Submissions int    `json:"submissions"`
}

// Tool handlers

func (s *Server) handleProblems(ctx context.Context, input ProblemsInput) (ProblemsOutput, error) {
	summaries, err := s.catalog.List(catalog.Filter{
		Difficulty: input.Difficulty,
		Tag:        input.Tag,
		Search:     input.Search,
	}, s.progress.Solved)
	if err != nil {
		return ProblemsOutput{}, fmt.Errorf("list problems: %w", err)
	}

	return ProblemsOutput{
		Problems: summaries,
		Total:    len(summaries),
	}, nil
}

func (s *Server) handleProblem(ctx context.Context, input ProblemInput) (ProblemOutput, error) {
	problem, err := s.catalog.Get(input.ProblemID)
	if err != nil {
		return ProblemOutput{}, fmt.Errorf("get problem: %w", err)
	}

	return ProblemOutput{
		ID:          problem.ID,
		Title:       problem.Title,
		Difficulty:  string(problem.Difficulty),
		Description: catalog.PlainDescription(problem.Content),
		StarterCode: problem.StarterCode("python3"),
		Examples:    problem.ExampleCases,
		Solved:      s.progress.Solved(problem.ID),
	}, nil
}

func (s *Server) handleRun(ctx context.Context, input RunInput) (RunOutput, error) {
	if input.Code == "" {
		return RunOutput{}, fmt.Errorf("code is required")
	}

	problem, err := s.catalog.Get(input.ProblemID)
	if err != nil {
		return RunOutput{}, fmt.Errorf("get problem: %w", err)
	}

	cases := extract.TestCases(problem.ExampleCases)
	expected := extract.ExpectedOutputs(problem.Content)

	report, err := s.grader.Grade(ctx, grader.Submission{Source: input.Code}, cases, expected)
	if err != nil {
		return RunOutput{}, fmt.Errorf("grade solution: %w", err)
	}

	if err := s.progress.SaveSubmission(problem.ID, input.Code, report); err != nil {
		return RunOutput{}, fmt.Errorf("save submission: %w", err)
	}

	summary := fmt.Sprintf("%d/%d test cases passed", report.Passed, report.Total)
	if report.AllPassed() {
		summary += " - problem solved"
	}

	return RunOutput{
		Passed:  report.Passed,
		Total:   report.Total,
		Solved:  report.AllPassed(),
		Results: report.Results,
		Summary: summary,
	}, nil
}

func (s *Server) handleHint(ctx context.Context, input HintInput) (HintOutput, error) {
	level := input.Level
	if level == 0 {
		level = 1
	}

	problem, err := s.catalog.Get(input.ProblemID)
	if err != nil {
		return HintOutput{}, fmt.Errorf("get problem: %w", err)
	}

	hint, err := s.assistant.Hint(ctx, assistant.HintRequest{
		Problem:    problem,
		Level:      level,
		Code:       input.Code,
		Cases:      extract.TestCases(problem.ExampleCases),
		Regenerate: input.Regenerate,
	})
	if err != nil {
		return HintOutput{}, fmt.Errorf("generate hint: %w", err)
	}

	return HintOutput{Level: level, Hint: hint}, nil
}

func (s *Server) handleProgress(ctx context.Context, input ProgressInput) (ProgressOutput, error) {
	if _, err := s.catalog.Get(input.ProblemID); err != nil {
		return ProgressOutput{}, fmt.Errorf("get problem: %w", err)
	}

	switch input.Action {
	case "":
		// Read only
	case "mark_solved":
		if err := s.progress.MarkSolved(input.ProblemID); err != nil {
			return ProgressOutput{}, fmt.Errorf("mark solved: %w", err)
		}
	case "mark_unsolved":
		if err := s.progress.MarkUnsolved(input.ProblemID); err != nil {
			return ProgressOutput{}, fmt.Errorf("mark unsolved: %w", err)
		}
	default:
		return ProgressOutput{}, fmt.Errorf("unknown action %q", input.Action)
	}

	record := s.progress.Get(input.ProblemID)
	return ProgressOutput{
		ProblemID:   input.ProblemID,
		Solved:      record.Solved,
		Submissions: len(record.Submissions),
	}, nil
}

// ServeStdio starts the MCP server on stdio (for editor integration)
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

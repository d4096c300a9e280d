// Package assistant turns problems, user code, and grading reports into
// AI-generated solutions, progressive hints, and explanations.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/llm"
	"github.com/felixgeelhaar/kata/internal/progress"
)

// Service handles AI assistance operations.
type Service struct {
	registry *llm.Registry
	progress *progress.Store
	prompter *Prompter
	logger   *slog.Logger
}

// NewService creates a new assistant service.
func NewService(registry *llm.Registry, store *progress.Store, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		progress: store,
		prompter: NewPrompter(),
		logger:   logger,
	}
}

// SolutionRequest asks for a full worked solution.
type SolutionRequest struct {
	Problem *domain.Problem
	Code    string
	Report  *domain.GradingReport
	Cases   []domain.TestCase
}

// Solution generates a complete solution with explanation.
func (s *Service) Solution(ctx context.Context, req SolutionRequest) (string, error) {
	if req.Problem == nil {
		return "", fmt.Errorf("%w: problem is required", domain.ErrInvalidInput)
	}

	prompt := s.prompter.BuildPrompt(PromptRequest{
		Mode:    ModeSolution,
		Problem: req.Problem,
		Code:    req.Code,
		Report:  req.Report,
		Cases:   req.Cases,
	})

	content, err := s.generate(ctx, prompt, 2048)
	if err != nil {
		return "", err
	}

	s.logger.Info("generated solution", "problem_id", req.Problem.ID)
	return content, nil
}

// HintRequest asks for a progressive hint at a given level.
type HintRequest struct {
	Problem    *domain.Problem
	Level      int
	Code       string
	Report     *domain.GradingReport
	Cases      []domain.TestCase
	Regenerate bool
}

// Hint returns the hint for the requested level, serving a cached hint when
// one exists unless regeneration is requested. Freshly generated hints are
// cached on the problem's progress record.
func (s *Service) Hint(ctx context.Context, req HintRequest) (string, error) {
	if req.Problem == nil {
		return "", fmt.Errorf("%w: problem is required", domain.ErrInvalidInput)
	}
	if req.Level < HintLevelMin || req.Level > HintLevelMax {
		return "", fmt.Errorf("%w: hint level must be between %d and %d",
			domain.ErrInvalidInput, HintLevelMin, HintLevelMax)
	}

	if !req.Regenerate {
		if hint, ok := s.progress.CachedHint(req.Problem.ID, req.Level); ok {
			s.logger.Debug("serving cached hint", "problem_id", req.Problem.ID, "level", req.Level)
			return hint, nil
		}
	}

	prompt := s.prompter.BuildPrompt(PromptRequest{
		Mode:      ModeHint,
		Problem:   req.Problem,
		Code:      req.Code,
		Report:    req.Report,
		Cases:     req.Cases,
		HintLevel: req.Level,
	})

	content, err := s.generate(ctx, prompt, 1024)
	if err != nil {
		return "", err
	}

	if err := s.progress.CacheHint(req.Problem.ID, req.Level, content); err != nil {
		s.logger.Warn("cache hint", "problem_id", req.Problem.ID, "error", err)
	}

	s.logger.Info("generated hint", "problem_id", req.Problem.ID, "level", req.Level)
	return content, nil
}

// ExplainRequest asks a free-form question about a problem or some code.
type ExplainRequest struct {
	Problem  *domain.Problem // optional
	Code     string
	Report   *domain.GradingReport
	Question string
}

// Explain answers a question about the problem or the user's code.
func (s *Service) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	if req.Question == "" {
		return "", fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	prompt := s.prompter.BuildPrompt(PromptRequest{
		Mode:     ModeExplain,
		Problem:  req.Problem,
		Code:     req.Code,
		Report:   req.Report,
		Question: req.Question,
	})

	return s.generate(ctx, prompt, 2048)
}

// ExplainStream answers a question with a streaming response.
func (s *Service) ExplainStream(ctx context.Context, req ExplainRequest) (<-chan llm.StreamChunk, error) {
	if req.Question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	provider, err := s.provider()
	if err != nil {
		return nil, err
	}

	prompt := s.prompter.BuildPrompt(PromptRequest{
		Mode:     ModeExplain,
		Problem:  req.Problem,
		Code:     req.Code,
		Report:   req.Report,
		Question: req.Question,
	})

	ch, err := provider.GenerateStream(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return ch, nil
}

func (s *Service) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	provider, err := s.provider()
	if err != nil {
		return "", err
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return resp.Content, nil
}

func (s *Service) provider() (llm.Provider, error) {
	provider, err := s.registry.Default()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoProvider, err)
	}
	return provider, nil
}

package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/kata/internal/assistant"
	"github.com/felixgeelhaar/kata/internal/catalog"
	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/extract"
	"github.com/felixgeelhaar/kata/internal/grader"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":        "running",
		"version":       Version,
		"llm_providers": s.llmRegistry.List(),
		"runner":        s.cfg.Runner.Backend,
		"history":       s.cfg.History.Backend,
		"solved":        s.progress.SolvedCount(),
	})
}

// Problem handlers

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.Filter{
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}
	if v := q.Get("solved"); v != "" {
		solved, err := strconv.ParseBool(v)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid solved filter", err)
			return
		}
		filter.Solved = &solved
	}

	summaries, err := s.catalog.List(filter, s.progress.Solved)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.jsonError(w, http.StatusBadRequest, "invalid filter", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load problems", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problems": summaries,
		"total":    len(summaries),
	})
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	problem, err := s.catalog.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			s.jsonError(w, http.StatusNotFound, "problem not found", err)
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			s.jsonError(w, http.StatusBadRequest, "invalid problem id", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load problem", err)
		return
	}

	record := s.progress.Get(problem.ID)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem":     problem,
		"description": catalog.PlainDescription(problem.Content),
		"solved":      record.Solved,
		"saved_code":  record.Code,
	})
}

// Run handlers

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemID string `json:"problem_id"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ProblemID == "" || req.Code == "" {
		s.jsonError(w, http.StatusUnprocessableEntity, "problem_id and code are required", nil)
		return
	}

	problem, err := s.catalog.Get(req.ProblemID)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			s.jsonError(w, http.StatusNotFound, "problem not found", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load problem", err)
		return
	}

	cases := extract.TestCases(problem.ExampleCases)
	expected := extract.ExpectedOutputs(problem.Content)

	report, err := s.grader.Grade(r.Context(), grader.Submission{Source: req.Code}, cases, expected)
	if err != nil {
		if errors.Is(err, domain.ErrSandboxUnavailable) {
			s.jsonError(w, http.StatusBadGateway, "sandbox unavailable", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "grading failed", err)
		return
	}

	if err := s.progress.SaveSubmission(problem.ID, req.Code, report); err != nil {
		s.logger.Warn("failed to save submission", "problem_id", problem.ID, "error", err)
	}

	s.recordAttempt(r, domain.NewAttempt(problem, report))

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": problem.ID,
		"passed":     report.Passed,
		"total":      report.Total,
		"solved":     report.AllPassed(),
		"results":    report.Results,
	})
}

// recordAttempt hands the attempt to the event pipeline when it is up,
// otherwise writes it straight to the history store.
func (s *Server) recordAttempt(r *http.Request, attempt domain.Attempt) {
	if s.publisher != nil {
		if err := s.publisher.PublishAttempt(r.Context(), attempt); err == nil {
			return
		} else {
			s.logger.Warn("failed to publish attempt, recording inline", "error", err)
		}
	}
	if err := s.attempts.Record(r.Context(), attempt); err != nil {
		s.logger.Warn("failed to record attempt", "attempt_id", attempt.ID, "error", err)
	}
}

// Progress handlers

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	problemID := r.URL.Query().Get("problem_id")
	if problemID == "" {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"solved_count": s.progress.SolvedCount(),
		})
		return
	}

	record := s.progress.Get(problemID)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": problemID,
		"progress":   record,
	})
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action    string                `json:"action"`
		ProblemID string                `json:"problem_id"`
		Code      string                `json:"code,omitempty"`
		Report    *domain.GradingReport `json:"report,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ProblemID == "" {
		s.jsonError(w, http.StatusUnprocessableEntity, "problem_id is required", nil)
		return
	}

	var err error
	switch req.Action {
	case "mark_solved":
		err = s.progress.MarkSolved(req.ProblemID)
	case "mark_unsolved":
		err = s.progress.MarkUnsolved(req.ProblemID)
	case "save_code":
		err = s.progress.SaveCode(req.ProblemID, req.Code)
	case "save_submission":
		if req.Report == nil {
			s.jsonError(w, http.StatusUnprocessableEntity, "report is required for save_submission", nil)
			return
		}
		err = s.progress.SaveSubmission(req.ProblemID, req.Code, req.Report)
	default:
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action), nil)
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.jsonError(w, http.StatusUnprocessableEntity, "invalid progress update", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to update progress", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": req.ProblemID,
		"progress":   s.progress.Get(req.ProblemID),
	})
}

// Roadmap handlers

func (s *Server) handleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	state := s.progress.Roadmap()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"roadmap": state,
		"phase":   domain.PhaseForDay(state.CurrentDay),
	})
}

func (s *Server) handleUpdateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action     string   `json:"action"`
		Day        int      `json:"day"`
		ProblemIDs []string `json:"problem_ids,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var state domain.RoadmapState
	var err error
	switch req.Action {
	case "complete_day":
		state, err = s.progress.CompleteDay(req.Day, req.ProblemIDs)
	case "set_day":
		state, err = s.progress.SetDay(req.Day)
	default:
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action), nil)
		return
	}
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to update roadmap", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"roadmap": state,
		"phase":   domain.PhaseForDay(state.CurrentDay),
	})
}

// AI handlers

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemID  string                `json:"problem_id"`
		Level      int                   `json:"level"`
		Code       string                `json:"code,omitempty"`
		Report     *domain.GradingReport `json:"report,omitempty"`
		Regenerate bool                  `json:"regenerate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Level == 0 {
		req.Level = 1
	}

	problem, err := s.catalog.Get(req.ProblemID)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			s.jsonError(w, http.StatusNotFound, "problem not found", err)
			return
		}
		s.jsonError(w, http.StatusBadRequest, "invalid problem id", err)
		return
	}

	hint, err := s.assistant.Hint(r.Context(), assistant.HintRequest{
		Problem:    problem,
		Level:      req.Level,
		Code:       req.Code,
		Report:     req.Report,
		Cases:      extract.TestCases(problem.ExampleCases),
		Regenerate: req.Regenerate,
	})
	if err != nil {
		s.aiError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": problem.ID,
		"level":      req.Level,
		"hint":       hint,
	})
}

func (s *Server) handleAISolution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemID string                `json:"problem_id"`
		Code      string                `json:"code,omitempty"`
		Report    *domain.GradingReport `json:"report,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	problem, err := s.catalog.Get(req.ProblemID)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			s.jsonError(w, http.StatusNotFound, "problem not found", err)
			return
		}
		s.jsonError(w, http.StatusBadRequest, "invalid problem id", err)
		return
	}

	solution, err := s.assistant.Solution(r.Context(), assistant.SolutionRequest{
		Problem: problem,
		Code:    req.Code,
		Report:  req.Report,
		Cases:   extract.TestCases(problem.ExampleCases),
	})
	if err != nil {
		s.aiError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": problem.ID,
		"solution":   solution,
	})
}

func (s *Server) handleAIExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemID string                `json:"problem_id,omitempty"`
		Code      string                `json:"code,omitempty"`
		Report    *domain.GradingReport `json:"report,omitempty"`
		Question  string                `json:"question"`
		Stream    bool                  `json:"stream,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	explainReq := assistant.ExplainRequest{
		Code:     req.Code,
		Report:   req.Report,
		Question: req.Question,
	}
	if req.ProblemID != "" {
		problem, err := s.catalog.Get(req.ProblemID)
		if err != nil {
			if errors.Is(err, domain.ErrProblemNotFound) {
				s.jsonError(w, http.StatusNotFound, "problem not found", err)
				return
			}
			s.jsonError(w, http.StatusBadRequest, "invalid problem id", err)
			return
		}
		explainReq.Problem = problem
	}

	if req.Stream {
		s.handleExplainStream(w, r, explainReq)
		return
	}

	answer, err := s.assistant.Explain(r.Context(), explainReq)
	if err != nil {
		s.aiError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"answer": answer,
	})
}

// handleExplainStream streams the answer via SSE
func (s *Server) handleExplainStream(w http.ResponseWriter, r *http.Request, req assistant.ExplainRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.jsonError(w, http.StatusInternalServerError, "streaming not supported", nil)
		return
	}

	stream, err := s.assistant.ExplainStream(r.Context(), req)
	if err != nil {
		s.aiError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for chunk := range stream {
		switch {
		case chunk.Error != nil:
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", chunk.Error.Error())
		case chunk.Done:
			fmt.Fprint(w, "event: done\ndata: {}\n\n")
		case chunk.Content != "":
			data, _ := json.Marshal(map[string]string{"content": chunk.Content})
			fmt.Fprintf(w, "event: content\ndata: %s\n\n", data)
		}
		flusher.Flush()
	}
}

// History handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.attempts.Stats(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}

	state := s.progress.Roadmap()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"stats":       stats,
		"solved":      s.progress.SolvedCount(),
		"roadmap_day": state.CurrentDay,
		"phase":       domain.PhaseForDay(state.CurrentDay),
	})
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	problemID := r.PathValue("id")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	attempts, err := s.attempts.ListByProblem(r.Context(), problemID, limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load attempts", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problem_id": problemID,
		"attempts":   attempts,
	})
}

// Helper methods

// aiError maps assistant errors to HTTP statuses
func (s *Server) aiError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, domain.ErrNoProvider):
		s.jsonError(w, http.StatusServiceUnavailable, "no AI provider configured", err)
	case errors.Is(err, domain.ErrProviderUnavailable):
		s.jsonError(w, http.StatusBadGateway, "AI provider unavailable", err)
	default:
		s.jsonError(w, http.StatusInternalServerError, "AI request failed", err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// Package grader executes a candidate solution against extracted test cases
// and classifies each outcome.
package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// Sandbox runs a candidate entry point with one case's arguments and returns
// the textual representation of its return value. It is the only dependency
// grading has.
//
// A submission that cannot be parsed or invoked at all must be reported with
// an error wrapping domain.ErrLoadFailure; an unreachable backend with
// domain.ErrSandboxUnavailable. Any other error counts as that single case
// failing.
type Sandbox interface {
	Invoke(ctx context.Context, source, entryPoint, construct string, args []string) (string, error)
}

// Submission is one candidate solution to grade.
type Submission struct {
	Source     string
	EntryPoint string // function/method name; auto-detected by the sandbox when empty
	Construct  string // containing class/construct name
}

// Grader pairs test cases with expected outputs positionally and grades by
// literal string comparison.
type Grader struct {
	sandbox Sandbox
	logger  *slog.Logger
}

// New creates a grader backed by the given sandbox.
func New(sandbox Sandbox, logger *slog.Logger) *Grader {
	return &Grader{sandbox: sandbox, logger: logger}
}

// Grade runs the submission against every case in order. Expected outputs
// are paired by position; a case beyond the expected list is graded against
// domain.NoExpected. Comparison is literal string equality: "[0, 1]" does
// not match "[0,1]".
//
// A per-case failure is recorded in that case and does not abort the batch.
// A load failure collapses the whole batch into one synthetic failing case.
// Only an unreachable sandbox backend is returned as an error.
func (g *Grader) Grade(ctx context.Context, sub Submission, cases []domain.TestCase, expected []string) (*domain.GradingReport, error) {
	results := make([]domain.CaseResult, 0, len(cases))

	for i, tc := range cases {
		actual, err := g.sandbox.Invoke(ctx, sub.Source, sub.EntryPoint, sub.Construct, tc.Args)
		if err != nil {
			if errors.Is(err, domain.ErrSandboxUnavailable) {
				return nil, fmt.Errorf("invoke case %d: %w", i, err)
			}
			if errors.Is(err, domain.ErrLoadFailure) {
				g.logger.Debug("submission failed to load", "error", err)
				return loadFailureReport(err), nil
			}
			results = append(results, domain.CaseResult{
				Index:    i,
				Passed:   false,
				Input:    caseInput(tc),
				Expected: expectedAt(expected, i),
				Error:    err.Error(),
			})
			continue
		}

		exp := expectedAt(expected, i)
		results = append(results, domain.CaseResult{
			Index:    i,
			Passed:   exp == domain.NoExpected || actual == exp,
			Input:    caseInput(tc),
			Expected: exp,
			Actual:   actual,
		})
	}

	report := &domain.GradingReport{Total: len(results), Results: results}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		}
	}
	return report, nil
}

// loadFailureReport collapses a submission that could not be invoked at all
// into a single synthetic failing case.
func loadFailureReport(err error) *domain.GradingReport {
	return &domain.GradingReport{
		Passed: 0,
		Total:  1,
		Results: []domain.CaseResult{{
			Index:    0,
			Passed:   false,
			Expected: domain.NoExpected,
			Error:    err.Error(),
		}},
	}
}

func expectedAt(expected []string, i int) string {
	if i < len(expected) {
		return expected[i]
	}
	return domain.NoExpected
}

func caseInput(tc domain.TestCase) string {
	return strings.Join(tc.Args, ", ")
}

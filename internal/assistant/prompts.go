package assistant

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// Mode selects the kind of help the assistant produces.
type Mode string

const (
	ModeSolution Mode = "solution"
	ModeHint     Mode = "hint"
	ModeExplain  Mode = "explain"
)

// Hint levels run from a bare skeleton to a nearly complete solution.
const (
	HintLevelMin = 1
	HintLevelMax = 3
)

const maxDescriptionChars = 3000

// Prompter builds prompts for the LLM
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// PromptRequest contains data for building a prompt
type PromptRequest struct {
	Mode      Mode
	Problem   *domain.Problem
	Code      string // user's current code, may be empty
	Report    *domain.GradingReport
	Cases     []domain.TestCase
	HintLevel int
	Question  string // required for explain mode
}

var hintGuidance = map[int]string{
	1: "Show a basic structure: imports, class definition, method signature, and main data structures. Leave the core logic as a simple TODO comment.",
	2: "Show the main loop or recursion structure. Fill in key data structures. Leave only the tricky comparison or calculation as TODO.",
	3: "Show a nearly complete solution. Leave only 1-2 lines blank (the key insight or edge case handling). Add brief comments where helpful, not everywhere.",
}

// BuildPrompt constructs the user prompt for the LLM.
func (p *Prompter) BuildPrompt(req PromptRequest) string {
	ctx := p.contextBlocks(req)

	var sb strings.Builder
	switch req.Mode {
	case ModeSolution:
		sb.WriteString("You are a helpful Python coding tutor helping with LeetCode-style problems.\n\n")
		sb.WriteString(ctx)
		sb.WriteString(`

Task:
1. Start with a clean, basic solution that's easy to understand.
2. Keep it simple first - optimize later if asked.
3. Briefly explain the core idea (2-3 sentences max).
4. Provide Python 3 code with minimal comments - let the code speak for itself.
5. State time and space complexity.
6. Show a quick dry run with 1-2 examples if the algorithm isn't obvious.

Guidelines:
- Prioritize readability and clarity over clever tricks.
- Use simple loops and data structures first.
- If tests fail, focus on fixing the bug, not optimization.
- Consider common edge cases: empty inputs, single elements, duplicates, boundary values.

Response Format:
- Use clean Markdown.
- Keep explanations short and practical.
`)

	case ModeHint:
		sb.WriteString("You are a helpful Python tutor. Provide progressive code hints to guide the user to a working solution.\n\n")
		sb.WriteString(ctx)
		sb.WriteString(fmt.Sprintf("\n\nGenerate Hint Level %d:\n%s\n", req.HintLevel, hintGuidance[req.HintLevel]))
		sb.WriteString(`
Rules:
1. Output only Python code, no explanations or markdown code fences.
2. Use TODO comments to show what's missing - don't use ??? which breaks syntax.
3. Keep code syntactically valid - use pass or return "" for missing parts.
4. Add comments sparingly - only for key insights, not everywhere.
5. Consider edge cases in your hints: empty inputs, single elements, duplicates, boundary values.
6. If user code exists and fails tests, help them fix the specific issue rather than starting over.

Output only the Python code (no code fence wrapper).`)

	case ModeExplain:
		sb.WriteString("You are a helpful Python tutor helping a user with a coding problem.\n\n")
		sb.WriteString(ctx)
		sb.WriteString(fmt.Sprintf("\n\nUser Question: %s\n", req.Question))
		sb.WriteString(`
Task:
- Answer the question directly and helpfully.
- If showing code, keep it short and relevant (5-10 lines max unless demonstrating a full solution).
- If the algorithm is complex, show a quick dry run with 1-2 examples.

Guidelines:
- Be direct and practical, not mysterious or overly "nudgey".
- If the user's code is failing, identify the specific issue clearly.
- If all tests pass, suggest optimizations or edge cases to consider.
- If no tests pass, start with basics - don't optimize broken code.

Response Format:
- Use clean Markdown.
`)
	}

	return sb.String()
}

func (p *Prompter) contextBlocks(req PromptRequest) string {
	var blocks []string

	if req.Problem != nil {
		blocks = append(blocks, fmt.Sprintf("Problem: %s", req.Problem.Title))

		desc := req.Problem.Content
		if len(desc) > maxDescriptionChars {
			desc = desc[:maxDescriptionChars]
		}
		if desc != "" {
			blocks = append(blocks, fmt.Sprintf("Description: %s", desc))
		}

		if req.Mode == ModeHint {
			if starter := req.Problem.StarterCode("python3"); starter != "" {
				blocks = append(blocks, fmt.Sprintf("Starter Code:\n```python\n%s\n```", starter))
			}
		}
	}

	if req.Code != "" {
		blocks = append(blocks, fmt.Sprintf("Current Code in Editor:\n```python\n%s\n```", req.Code))
	}

	if req.Report != nil && req.Report.Total > 0 {
		blocks = append(blocks, fmt.Sprintf("Test Results: %d/%d tests passed", req.Report.Passed, req.Report.Total))
		blocks = append(blocks, fmt.Sprintf("Guidance: %s", testGuidance(req.Report)))

		if failed := failedCases(req.Report, 2); len(failed) > 0 {
			var fb strings.Builder
			fb.WriteString("Failed Test Cases:")
			for i, c := range failed {
				fb.WriteString(fmt.Sprintf("\n  Case %d:", i+1))
				fb.WriteString(fmt.Sprintf("\n    Input: %s", truncate(c.Input, 100)))
				fb.WriteString(fmt.Sprintf("\n    Expected: %s", truncate(c.Expected, 100)))
				fb.WriteString(fmt.Sprintf("\n    Actual: %s", truncate(c.Actual, 100)))
			}
			blocks = append(blocks, fb.String())
		}
	}

	if len(req.Cases) > 0 && req.Mode != ModeExplain {
		var cb strings.Builder
		cb.WriteString("Test Cases:\n")
		for i, tc := range req.Cases {
			if i == 3 {
				break
			}
			cb.WriteString(fmt.Sprintf("Input: %s\n", strings.Join(tc.Args, ", ")))
		}
		blocks = append(blocks, cb.String())
	}

	return strings.Join(blocks, "\n\n")
}

func testGuidance(report *domain.GradingReport) string {
	switch {
	case report.Passed == 0:
		return "No tests pass - focus on fixing the core logic/algorithm."
	case report.Passed < report.Total:
		return fmt.Sprintf("Some tests fail (%d/%d) - focus on edge cases or specific test failures.",
			report.Total-report.Passed, report.Total)
	default:
		return "All tests pass - you can suggest optimizations or alternative approaches."
	}
}

func failedCases(report *domain.GradingReport, limit int) []domain.CaseResult {
	var failed []domain.CaseResult
	for _, r := range report.Results {
		if r.Passed {
			continue
		}
		failed = append(failed, r)
		if len(failed) == limit {
			break
		}
	}
	return failed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

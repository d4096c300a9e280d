package domain

import (
	"fmt"
	"strings"
)

// Problem represents a single practice problem from the catalog.
// Problems are immutable after load.
type Problem struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Difficulty   Difficulty    `json:"difficulty"`
	Content      string        `json:"content"` // HTML description
	TopicTags    []string      `json:"topic_tags"`
	ExampleCases string        `json:"example_test_cases"` // free-text Input:/Output: block
	Snippets     []CodeSnippet `json:"code_snippets"`
}

// CodeSnippet is a per-language starter code snippet.
type CodeSnippet struct {
	Lang string `json:"lang"`
	Code string `json:"code"`
}

// ProblemSummary is the browsing view of a problem, without the full
// description or starter code.
type ProblemSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	TopicTags  []string   `json:"topic_tags"`
	Solved     bool       `json:"solved"`
}

// Difficulty represents problem difficulty level
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a difficulty string from catalog data.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
	}
}

// Validate checks the required fields of a catalog entry. Entries that fail
// validation are rejected at load time rather than silently defaulted.
func (p *Problem) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: problem missing id", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: problem %s missing title", ErrInvalidInput, p.ID)
	}
	if _, err := ParseDifficulty(string(p.Difficulty)); err != nil {
		return fmt.Errorf("problem %s: %w", p.ID, err)
	}
	return nil
}

// StarterCode returns the starter snippet for the given language, preferring
// an exact match and falling back to the language family (python3 -> python).
func (p *Problem) StarterCode(lang string) string {
	for _, s := range p.Snippets {
		if s.Lang == lang {
			return s.Code
		}
	}
	base := strings.TrimRight(lang, "0123456789")
	for _, s := range p.Snippets {
		if s.Lang == base {
			return s.Code
		}
	}
	return ""
}

// HasTag reports whether the problem carries the given topic tag.
func (p *Problem) HasTag(tag string) bool {
	for _, t := range p.TopicTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Summary derives the browsing view. Solved status comes from the progress
// store and is filled in by the caller.
func (p *Problem) Summary(solved bool) ProblemSummary {
	return ProblemSummary{
		ID:         p.ID,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		TopicTags:  p.TopicTags,
		Solved:     solved,
	}
}

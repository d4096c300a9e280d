// Package catalog loads the problem set from static JSON files and serves
// browsing and lookup queries over it.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/felixgeelhaar/kata/internal/domain"
)

const (
	indexFile    = "problems_index.json"
	problemsFile = "problems.json"
)

// Catalog is the problem provider. Problems are immutable after load; the
// full problem file is read lazily and cached.
type Catalog struct {
	dataDir string
	logger  *slog.Logger

	mu       sync.Mutex
	index    []domain.Problem
	problems map[string]*domain.Problem
}

// New creates a catalog over the given data directory.
func New(dataDir string, logger *slog.Logger) *Catalog {
	return &Catalog{dataDir: dataDir, logger: logger}
}

// Filter narrows a browsing query. Zero values match everything.
type Filter struct {
	Difficulty string
	Tag        string
	Search     string
	Solved     *bool
}

// SolvedFunc reports whether a problem has been solved; the progress store
// provides it so listing can join solved status in.
type SolvedFunc func(problemID string) bool

// List returns problem summaries matching the filter, in catalog order.
func (c *Catalog) List(filter Filter, solved SolvedFunc) ([]domain.ProblemSummary, error) {
	problems, err := c.load()
	if err != nil {
		return nil, err
	}

	var difficulty domain.Difficulty
	if filter.Difficulty != "" {
		difficulty, err = domain.ParseDifficulty(filter.Difficulty)
		if err != nil {
			return nil, err
		}
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	summaries := make([]domain.ProblemSummary, 0, len(problems))
	for i := range problems {
		p := &problems[i]
		if difficulty != "" && p.Difficulty != difficulty {
			continue
		}
		if filter.Tag != "" && !p.HasTag(filter.Tag) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		isSolved := solved != nil && solved(p.ID)
		if filter.Solved != nil && isSolved != *filter.Solved {
			continue
		}
		summaries = append(summaries, p.Summary(isSolved))
	}
	return summaries, nil
}

// Get returns the full problem by identifier.
func (c *Catalog) Get(id string) (*domain.Problem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty problem id", domain.ErrInvalidInput)
	}
	if _, err := c.load(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	p, ok := c.problems[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProblemNotFound, id)
	}
	return p, nil
}

func matchesSearch(p *domain.Problem, lowered string) bool {
	if strings.Contains(strings.ToLower(p.Title), lowered) {
		return true
	}
	for _, tag := range p.TopicTags {
		if strings.Contains(strings.ToLower(tag), lowered) {
			return true
		}
	}
	// Description last: flattening the HTML is the most expensive check
	return strings.Contains(strings.ToLower(PlainDescription(p.Content)), lowered)
}

// load reads and validates the catalog files once. Entries missing required
// fields are rejected with a warning rather than silently defaulted.
func (c *Catalog) load() ([]domain.Problem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.problems != nil {
		return c.index, nil
	}

	full, err := readProblemFile(filepath.Join(c.dataDir, problemsFile))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Problem, len(full))
	valid := make([]domain.Problem, 0, len(full))
	for i := range full {
		if err := full[i].Validate(); err != nil {
			c.logger.Warn("rejecting malformed catalog entry", "error", err)
			continue
		}
		full[i].Difficulty = normalizeDifficulty(full[i].Difficulty)
		valid = append(valid, full[i])
	}
	for i := range valid {
		byID[valid[i].ID] = &valid[i]
	}

	// The index file orders the browsing view; fall back to file order for
	// problems the index does not mention.
	ordered := c.applyIndexOrder(valid, byID)

	c.index = ordered
	c.problems = byID
	c.logger.Info("catalog loaded", "problems", len(ordered))
	return c.index, nil
}

func (c *Catalog) applyIndexOrder(valid []domain.Problem, byID map[string]*domain.Problem) []domain.Problem {
	data, err := os.ReadFile(filepath.Join(c.dataDir, indexFile))
	if err != nil {
		return valid
	}
	var index []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		c.logger.Warn("problem index unreadable, using catalog order", "error", err)
		return valid
	}

	ordered := make([]domain.Problem, 0, len(valid))
	seen := make(map[string]bool, len(index))
	for _, entry := range index {
		if p, ok := byID[entry.ID]; ok && !seen[entry.ID] {
			ordered = append(ordered, *p)
			seen[entry.ID] = true
		}
	}
	for i := range valid {
		if !seen[valid[i].ID] {
			ordered = append(ordered, valid[i])
		}
	}
	return ordered
}

func readProblemFile(path string) ([]domain.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var problems []domain.Problem
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return problems, nil
}

func normalizeDifficulty(d domain.Difficulty) domain.Difficulty {
	normalized, err := domain.ParseDifficulty(string(d))
	if err != nil {
		return d
	}
	return normalized
}

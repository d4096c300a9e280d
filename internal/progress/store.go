// Package progress persists per-problem study state and the roadmap
// position for the single local user in one flat JSON file.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/kata/internal/domain"
)

const maxSubmissions = 10

// fileState is the on-disk shape of progress.json.
type fileState struct {
	Problems map[string]*domain.ProgressRecord `json:"problems"`
	Roadmap  domain.RoadmapState               `json:"roadmap"`
}

// Store provides thread-safe access to the progress file.
type Store struct {
	path string

	mu    sync.RWMutex
	state fileState
}

// NewStore opens (or initializes) the progress file at path.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.state = fileState{
		Problems: make(map[string]*domain.ProgressRecord),
		Roadmap:  domain.RoadmapState{CurrentDay: domain.RoadmapFirstDay},
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read progress file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return fmt.Errorf("parse progress file: %w", err)
	}
	if s.state.Problems == nil {
		s.state.Problems = make(map[string]*domain.ProgressRecord)
	}
	s.state.Roadmap.CurrentDay = domain.ClampDay(s.state.Roadmap.CurrentDay)
	return nil
}

// flush writes the state through a temp file so a crash mid-write cannot
// truncate the progress history.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}

// Get returns the record for a problem. Unknown problems have an empty,
// unsolved record.
func (s *Store) Get(problemID string) domain.ProgressRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.state.Problems[problemID]; ok {
		return *rec
	}
	return domain.ProgressRecord{}
}

// Solved reports whether a problem has been marked solved.
func (s *Store) Solved(problemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.state.Problems[problemID]
	return ok && rec.Solved
}

// SolvedCount returns the number of solved problems.
func (s *Store) SolvedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.state.Problems {
		if rec.Solved {
			count++
		}
	}
	return count
}

// MarkSolved flags a problem solved.
func (s *Store) MarkSolved(problemID string) error {
	return s.update(problemID, func(rec *domain.ProgressRecord) {
		rec.Solved = true
	})
}

// MarkUnsolved clears a problem's solved flag.
func (s *Store) MarkUnsolved(problemID string) error {
	return s.update(problemID, func(rec *domain.ProgressRecord) {
		rec.Solved = false
	})
}

// SaveCode stores the user's latest editor contents for a problem.
func (s *Store) SaveCode(problemID, code string) error {
	return s.update(problemID, func(rec *domain.ProgressRecord) {
		rec.Code = code
	})
}

// SaveSubmission appends a graded attempt to the problem's history, keeping
// the most recent entries only.
func (s *Store) SaveSubmission(problemID, code string, report *domain.GradingReport) error {
	return s.update(problemID, func(rec *domain.ProgressRecord) {
		rec.Code = code
		rec.Submissions = append(rec.Submissions, domain.Submission{
			Code:        code,
			Passed:      report.Passed,
			Total:       report.Total,
			SubmittedAt: time.Now().UTC(),
		})
		if len(rec.Submissions) > maxSubmissions {
			rec.Submissions = rec.Submissions[len(rec.Submissions)-maxSubmissions:]
		}
		if report.AllPassed() {
			rec.Solved = true
		}
	})
}

// CacheHint stores a generated hint for a problem at the given level.
func (s *Store) CacheHint(problemID string, level int, hint string) error {
	return s.update(problemID, func(rec *domain.ProgressRecord) {
		if rec.Hints == nil {
			rec.Hints = make(map[int]string)
		}
		rec.Hints[level] = hint
	})
}

// CachedHint returns a previously generated hint, if any.
func (s *Store) CachedHint(problemID string, level int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.state.Problems[problemID]
	if !ok || rec.Hints == nil {
		return "", false
	}
	hint, ok := rec.Hints[level]
	return hint, ok
}

// Roadmap returns the current roadmap state.
func (s *Store) Roadmap() domain.RoadmapState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Roadmap
}

// CompleteDay marks a roadmap day done, bulk-marks its problems solved, and
// advances the current day.
func (s *Store) CompleteDay(day int, problemIDs []string) (domain.RoadmapState, error) {
	day = domain.ClampDay(day)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range problemIDs {
		rec := s.record(id)
		rec.Solved = true
		rec.UpdatedAt = now
	}

	if !s.state.Roadmap.DayCompleted(day) {
		s.state.Roadmap.CompletedDays = append(s.state.Roadmap.CompletedDays, day)
	}
	if day >= s.state.Roadmap.CurrentDay {
		s.state.Roadmap.CurrentDay = domain.ClampDay(day + 1)
	}
	s.state.Roadmap.UpdatedAt = now

	if err := s.flush(); err != nil {
		return domain.RoadmapState{}, err
	}
	return s.state.Roadmap, nil
}

// SetDay moves the roadmap position without completing anything.
func (s *Store) SetDay(day int) (domain.RoadmapState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Roadmap.CurrentDay = domain.ClampDay(day)
	s.state.Roadmap.UpdatedAt = time.Now().UTC()

	if err := s.flush(); err != nil {
		return domain.RoadmapState{}, err
	}
	return s.state.Roadmap, nil
}

func (s *Store) update(problemID string, mutate func(*domain.ProgressRecord)) error {
	if problemID == "" {
		return fmt.Errorf("%w: empty problem id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(problemID)
	mutate(rec)
	rec.UpdatedAt = time.Now().UTC()
	return s.flush()
}

// record returns the mutable record for a problem, creating it on first
// touch. Callers hold the write lock.
func (s *Store) record(problemID string) *domain.ProgressRecord {
	rec, ok := s.state.Problems[problemID]
	if !ok {
		rec = &domain.ProgressRecord{}
		s.state.Problems[problemID] = rec
	}
	return rec
}

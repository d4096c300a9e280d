package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt records one grading run for the history store.
type Attempt struct {
	ID         uuid.UUID
	ProblemID  string
	Title      string
	Difficulty Difficulty
	Tags       []string
	Passed     int
	Total      int
	Report     *GradingReport
	CreatedAt  time.Time
}

// NewAttempt builds an attempt record from a grading report.
func NewAttempt(p *Problem, report *GradingReport) Attempt {
	return Attempt{
		ID:         uuid.New(),
		ProblemID:  p.ID,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		Tags:       p.TopicTags,
		Passed:     report.Passed,
		Total:      report.Total,
		Report:     report,
		CreatedAt:  time.Now().UTC(),
	}
}

// Succeeded reports whether the attempt passed every case.
func (a *Attempt) Succeeded() bool {
	return a.Total > 0 && a.Passed == a.Total
}

// Stats aggregates attempt history for the stats views.
type Stats struct {
	TotalAttempts  int                `json:"total_attempts"`
	SolvedProblems int                `json:"solved_problems"`
	ByDifficulty   map[Difficulty]int `json:"by_difficulty"`
	CurrentStreak  int                `json:"current_streak_days"`
}

package domain

import "time"

// ProgressRecord tracks per-problem state for the single local user.
type ProgressRecord struct {
	Solved      bool           `json:"solved"`
	Code        string         `json:"code,omitempty"`
	Submissions []Submission   `json:"submissions,omitempty"`
	Hints       map[int]string `json:"hints,omitempty"` // cached AI hints by level
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Submission is one saved grading attempt kept in the progress history.
type Submission struct {
	Code        string    `json:"code"`
	Passed      int       `json:"passed"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Roadmap bounds for the study plan.
const (
	RoadmapFirstDay = 1
	RoadmapLastDay  = 60
)

// RoadmapState tracks position in the 60-day study plan.
type RoadmapState struct {
	CurrentDay    int       `json:"current_day"`
	CompletedDays []int     `json:"completed_days,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Phase returns the study phase for the current day. Phases unlock as the
// plan progresses.
func (r *RoadmapState) Phase() int {
	return PhaseForDay(r.CurrentDay)
}

// PhaseForDay maps a roadmap day to its study phase.
func PhaseForDay(day int) int {
	switch {
	case day > 45:
		return 4
	case day > 30:
		return 3
	case day > 15:
		return 2
	default:
		return 1
	}
}

// ClampDay bounds a day to the valid roadmap range.
func ClampDay(day int) int {
	if day < RoadmapFirstDay {
		return RoadmapFirstDay
	}
	if day > RoadmapLastDay {
		return RoadmapLastDay
	}
	return day
}

// DayCompleted reports whether the given day has been completed.
func (r *RoadmapState) DayCompleted(day int) bool {
	for _, d := range r.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

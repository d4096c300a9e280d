package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// AttemptStore implements attempt history persistence backed by SQLite.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a SQLite-backed attempt store.
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// Record inserts one grading run.
func (s *AttemptStore) Record(ctx context.Context, a domain.Attempt) error {
	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	var report []byte
	if a.Report != nil {
		report, err = json.Marshal(a.Report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, problem_id, title, difficulty, tags, passed, total, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.ProblemID, a.Title, string(a.Difficulty), string(tags),
		a.Passed, a.Total, nullString(report), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListByProblem returns a problem's attempts, newest first.
func (s *AttemptStore) ListByProblem(ctx context.Context, problemID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, problem_id, title, difficulty, tags, passed, total, report, created_at
		FROM attempts
		WHERE problem_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, problemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats aggregates attempt history.
func (s *AttemptStore) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{ByDifficulty: make(map[domain.Difficulty]int)}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attempts").Scan(&stats.TotalAttempts); err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	// A problem counts as solved when any attempt passed every case.
	rows, err := s.db.QueryContext(ctx, `
		SELECT difficulty, COUNT(DISTINCT problem_id)
		FROM attempts
		WHERE total > 0 AND passed = total
		GROUP BY difficulty`)
	if err != nil {
		return nil, fmt.Errorf("aggregate solves: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var difficulty string
		var count int
		if err := rows.Scan(&difficulty, &count); err != nil {
			return nil, fmt.Errorf("scan solve row: %w", err)
		}
		stats.ByDifficulty[domain.Difficulty(difficulty)] = count
		stats.SolvedProblems += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := s.activityDays(ctx)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreak = currentStreak(days, time.Now().UTC())
	return stats, nil
}

// Close closes the underlying database.
func (s *AttemptStore) Close() error {
	return s.db.Close()
}

func (s *AttemptStore) activityDays(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT date(created_at) FROM attempts")
	if err != nil {
		return nil, fmt.Errorf("query activity days: %w", err)
	}
	defer rows.Close()

	days := make(map[string]bool)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan activity day: %w", err)
		}
		days[day] = true
	}
	return days, rows.Err()
}

// currentStreak counts consecutive days with activity ending today or
// yesterday.
func currentStreak(days map[string]bool, now time.Time) int {
	day := now
	if !days[day.Format(time.DateOnly)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[day.Format(time.DateOnly)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (domain.Attempt, error) {
	var (
		a          domain.Attempt
		id         string
		difficulty string
		tags       string
		report     sql.NullString
	)
	if err := row.Scan(&id, &a.ProblemID, &a.Title, &difficulty, &tags,
		&a.Passed, &a.Total, &report, &a.CreatedAt); err != nil {
		return domain.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("parse attempt id: %w", err)
	}
	a.ID = parsed
	a.Difficulty = domain.Difficulty(difficulty)

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	if report.Valid && report.String != "" {
		a.Report = &domain.GradingReport{}
		if err := json.Unmarshal([]byte(report.String), a.Report); err != nil {
			return domain.Attempt{}, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	return a, nil
}

func nullString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

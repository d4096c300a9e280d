// Package postgres implements the attempt history store on PostgreSQL for
// deployments that share history across machines.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/kata/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id         UUID PRIMARY KEY,
    problem_id TEXT NOT NULL,
    title      TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    tags       TEXT[] NOT NULL DEFAULT '{}',
    passed     INTEGER NOT NULL,
    total      INTEGER NOT NULL,
    report     JSONB,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_problem ON attempts(problem_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_created ON attempts(created_at DESC);
`

// AttemptStore implements attempt history persistence backed by PostgreSQL.
type AttemptStore struct {
	db *sql.DB
}

// NewAttemptStore connects to PostgreSQL via the pgx driver and ensures the
// schema exists.
func NewAttemptStore(ctx context.Context, dsn string) (*AttemptStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &AttemptStore{db: db}, nil
}

// Record inserts one grading run.
func (s *AttemptStore) Record(ctx context.Context, a domain.Attempt) error {
	report := pqtype.NullRawMessage{}
	if a.Report != nil {
		data, err := json.Marshal(a.Report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		report = pqtype.NullRawMessage{RawMessage: data, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, problem_id, title, difficulty, tags, passed, total, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ProblemID, a.Title, string(a.Difficulty), pq.Array(a.Tags),
		a.Passed, a.Total, report, a.CreatedAt,
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
		WHERE problem_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, problemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a          domain.Attempt
			difficulty string
			report     pqtype.NullRawMessage
		)
		if err := rows.Scan(&a.ID, &a.ProblemID, &a.Title, &difficulty,
			pq.Array(&a.Tags), &a.Passed, &a.Total, &report, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Difficulty = domain.Difficulty(difficulty)
		if report.Valid {
			a.Report = &domain.GradingReport{}
			if err := json.Unmarshal(report.RawMessage, a.Report); err != nil {
				return nil, fmt.Errorf("unmarshal report: %w", err)
			}
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

	var streak int
	// Consecutive activity days ending today or yesterday.
	err = s.db.QueryRowContext(ctx, `
		WITH days AS (
			SELECT DISTINCT date(created_at) AS day FROM attempts
		), ranked AS (
			SELECT day, day - (ROW_NUMBER() OVER (ORDER BY day))::int AS grp
			FROM days
		), runs AS (
			SELECT MIN(day) AS start_day, MAX(day) AS end_day, COUNT(*) AS len
			FROM ranked GROUP BY grp
		)
		SELECT COALESCE(MAX(len), 0) FROM runs
		WHERE end_day >= CURRENT_DATE - 1`).Scan(&streak)
	if err != nil {
		return nil, fmt.Errorf("compute streak: %w", err)
	}
	stats.CurrentStreak = streak
	return stats, nil
}

// Close closes the underlying database.
func (s *AttemptStore) Close() error {
	return s.db.Close()
}

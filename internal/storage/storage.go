// Package storage defines the attempt history interface implemented by the
// sqlite and postgres backends.
package storage

import (
	"context"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// AttemptStore records grading runs and answers history queries.
type AttemptStore interface {
	Record(ctx context.Context, attempt domain.Attempt) error
	ListByProblem(ctx context.Context, problemID string, limit int) ([]domain.Attempt, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	Close() error
}

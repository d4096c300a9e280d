package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// Producer publishes attempt events to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new event producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishAttempt publishes a finished attempt to the queue
func (p *Producer) PublishAttempt(ctx context.Context, attempt domain.Attempt) error {
	event := &AttemptEvent{
		ID:          uuid.New(),
		Attempt:     attempt,
		PublishedAt: time.Now(),
	}

	if err := p.conn.PublishJSON(ctx, AttemptQueueName, event); err != nil {
		return fmt.Errorf("publish attempt event: %w", err)
	}

	slog.Info("published attempt event",
		"event_id", event.ID,
		"attempt_id", attempt.ID,
		"problem_id", attempt.ProblemID,
		"passed", attempt.Passed,
		"total", attempt.Total,
	)

	return nil
}

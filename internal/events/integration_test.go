//go:build integration

package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/events"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func testAttempt() domain.Attempt {
	return domain.Attempt{
		ID:         uuid.New(),
		ProblemID:  "1",
		Title:      "Two Sum",
		Difficulty: domain.DifficultyEasy,
		Passed:     2,
		Total:      2,
		CreatedAt:  time.Now(),
	}
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := events.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := events.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Producer_PublishAttempt(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := events.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	producer := events.NewProducer(conn)

	if err := producer.PublishAttempt(context.Background(), testAttempt()); err != nil {
		t.Fatalf("failed to publish attempt: %v", err)
	}

	// Verify by checking the queue has a message
	ch := conn.Channel()
	q, err := ch.QueueInspect(events.AttemptQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}

	if q.Messages != 1 {
		t.Errorf("expected 1 message in queue, got %d", q.Messages)
	}
}

func TestIntegration_Consumer_RecordsAttempts(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := events.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	var received []uuid.UUID

	consumer := events.NewConsumer(conn, func(_ context.Context, event *events.AttemptEvent) error {
		mu.Lock()
		received = append(received, event.Attempt.ID)
		mu.Unlock()
		return nil
	}, events.DefaultConsumerConfig())

	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := events.NewProducer(conn)
	attempts := []domain.Attempt{testAttempt(), testAttempt(), testAttempt()}
	for _, a := range attempts {
		if err := producer.PublishAttempt(context.Background(), a); err != nil {
			t.Fatalf("failed to publish attempt: %v", err)
		}
	}

	deadline := time.After(10 * time.Second)
	for {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n == len(attempts) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("received %d of %d attempts before timeout", n, len(attempts))
		case <-time.After(100 * time.Millisecond):
		}
	}
}

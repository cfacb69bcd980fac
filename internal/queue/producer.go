package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ReviewMessage asks the worker to run the automated quality review for one
// contribution. Delivery is at-least-once; the consumer is idempotent because
// review results only ever apply to a contribution still in pending.
type ReviewMessage struct {
	ContributionID int64
	Attempt        int
	TraceID        *string
}

type Producer interface {
	Enqueue(ctx context.Context, msg ReviewMessage) error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg ReviewMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"contribution_id": msg.ContributionID,
		"attempt":         attempt,
	}

	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued review task",
		"contribution_id", msg.ContributionID, "attempt", attempt)
	return nil
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"guidex.app/curator/common/logger"
	"guidex.app/curator/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// RedisReclaimer sweeps the consumer group for tasks a dead worker read but
// never acked (XREADGROUP with no XACK), claims them, and runs them through
// the same processor the live worker uses.
type RedisReclaimer struct {
	client    *redis.Client
	cfg       RedisReclaimerConfig
	consumer  *queue.RedisConsumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer *queue.RedisConsumer, processor queue.MessageProcessor) *RedisReclaimer {
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the sweep loop. Blocks until Stop() is called.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "curator.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"stream", r.cfg.Stream,
		"group", r.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim sweep error", "error", err)
			}
		}
	}
}

// Stop signals the reclaimer to stop and waits for the loop to exit.
func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// sweep lists stale pending entries and processes each one it manages to
// claim. A failure on one entry does not stop the rest of the sweep.
func (r *RedisReclaimer) sweep(ctx context.Context) error {
	stale, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream,
		Group:  r.cfg.Group,
		Idle:   r.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "found stale review tasks", "count", len(stale))

	for _, entry := range stale {
		msgID := entry.ID
		entryCtx := logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

		task, claimed, err := r.claim(entryCtx, entry)
		if err != nil {
			slog.ErrorContext(entryCtx, "failed to claim stale task",
				"error", err,
				"original_consumer", entry.Consumer,
				"idle_time", entry.Idle)
			continue
		}
		if !claimed {
			continue
		}

		entryCtx = logger.WithLogFields(entryCtx, logger.LogFields{
			ContributionID: &task.ContributionID,
		})

		start := time.Now()
		if err := r.processor(entryCtx, task); err != nil {
			slog.ErrorContext(entryCtx, "failed to process reclaimed task", "error", err)
			continue
		}

		slog.InfoContext(entryCtx, "reclaimed task processed",
			"duration_ms", time.Since(start).Milliseconds())
	}

	return nil
}

// claim takes ownership of a stale entry. Returns claimed=false when another
// worker got there first, which is not an error.
func (r *RedisReclaimer) claim(ctx context.Context, entry redis.XPendingExt) (queue.Message, bool, error) {
	slog.InfoContext(ctx, "claiming stale review task",
		"original_consumer", entry.Consumer,
		"idle_time", entry.Idle,
		"retry_count", entry.RetryCount)

	messages, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Messages: []string{entry.ID},
	}).Result()
	if err != nil {
		return queue.Message{}, false, fmt.Errorf("xclaim: %w", err)
	}

	if len(messages) == 0 {
		slog.DebugContext(ctx, "task already reclaimed by another worker")
		return queue.Message{}, false, nil
	}

	raw := messages[0]
	task, err := queue.ParseMessage(raw)
	if err != nil {
		// Unparseable entries would be reclaimed forever, ack them away.
		slog.ErrorContext(ctx, "failed to parse reclaimed task, acknowledging to prevent loop",
			"error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw})
		return queue.Message{}, false, nil
	}

	return task, true, nil
}

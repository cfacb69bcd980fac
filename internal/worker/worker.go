// Package worker runs the automated review loop: it drains review tasks from
// the Redis stream, asks the reviewer for a verdict, and applies it through
// the contribution engine. Delivery is at-least-once, so everything here must
// tolerate seeing the same task twice.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guidex.app/curator/common/llm"
	"guidex.app/curator/common/logger"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/queue"
	"guidex.app/curator/internal/reviewer"
	"guidex.app/curator/internal/store"
)

// Consumer is the stream side the worker drives. Satisfied by
// *queue.RedisConsumer.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
	MaxAttempts() int
}

// ReviewApplier records an automated verdict. Satisfied by the contribution
// service; a false return means the result was dropped as stale.
type ReviewApplier interface {
	ApplyReviewResult(ctx context.Context, contributionID int64, review *model.AutomatedReview) (bool, error)
}

type Worker struct {
	consumer      Consumer
	contributions store.ContributionStore
	payloads      store.PayloadStore
	reviewer      reviewer.Reviewer
	applier       ReviewApplier

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(
	consumer Consumer,
	contributions store.ContributionStore,
	payloads store.PayloadStore,
	rev reviewer.Reviewer,
	applier ReviewApplier,
) *Worker {
	return &Worker{
		consumer:      consumer,
		contributions: contributions,
		payloads:      payloads,
		reviewer:      rev,
		applier:       applier,
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "review worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "review worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "review task failed",
				"error", err,
				"message_id", msg.ID,
				"contribution_id", msg.ContributionID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in review task",
				"panic", r,
				"message_id", msg.ID,
				"contribution_id", msg.ContributionID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one review task end to end. Exported so it can be
// reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ContributionID: &msg.ContributionID,
		MessageID:      &msg.ID,
	})

	slog.InfoContext(ctx, "processing review task", "attempt", msg.Attempt)

	contribution, err := w.contributions.GetByID(ctx, msg.ContributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Task outlived its contribution; nothing to review.
			slog.WarnContext(ctx, "contribution gone, dropping review task")
			return w.ack(ctx, msg)
		}
		return fmt.Errorf("fetching contribution: %w", err)
	}

	// Redelivery or a state change since enqueue. The engine re-checks this
	// under the conditional write; this early exit just avoids a wasted
	// reviewer call.
	if !contribution.Status.Reviewable() {
		slog.InfoContext(ctx, "contribution no longer pending, dropping review task",
			"status", string(contribution.Status))
		return w.ack(ctx, msg)
	}

	payload, err := w.payloads.Get(ctx, msg.ContributionID)
	if err != nil {
		return fmt.Errorf("fetching payload: %w", err)
	}

	review, err := w.reviewer.Review(ctx, contribution, *payload)
	if err != nil {
		return fmt.Errorf("running review: %w", err)
	}

	applied, err := w.applier.ApplyReviewResult(ctx, msg.ContributionID, review)
	if err != nil {
		return fmt.Errorf("applying review result: %w", err)
	}
	if !applied {
		slog.InfoContext(ctx, "review result dropped as stale")
	}

	return w.ack(ctx, msg)
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) error {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Message will be reclaimed and re-skipped, which is safe.
		slog.WarnContext(ctx, "failed to ACK message", "error", err, "message_id", msg.ID)
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if !llm.IsRetryable(ctx, err) || msg.Attempt >= w.consumer.MaxAttempts() {
		slog.ErrorContext(ctx, "sending review task to DLQ",
			"message_id", msg.ID,
			"contribution_id", msg.ContributionID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed review task",
		"message_id", msg.ID,
		"contribution_id", msg.ContributionID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}

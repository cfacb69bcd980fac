package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guidex.app/curator/common/id"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/search"
	"guidex.app/curator/internal/store"
)

// Publisher turns an approved contribution into a permanent guideline. The
// corpus insert and the status flip commit or fail together, so a contribution
// is never marked published without its guideline existing, and the guideline
// never exists for a contribution that failed to flip.
type Publisher interface {
	Publish(ctx context.Context, c *model.Contribution, p model.Payload, decision model.ModeratorDecision) (*model.Guideline, error)
}

type publisher struct {
	txRunner TxRunner
	indexer  search.Indexer
	logger   *slog.Logger
}

func NewPublisher(txRunner TxRunner, indexer search.Indexer, logger *slog.Logger) Publisher {
	if indexer == nil {
		indexer = search.NoopIndexer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &publisher{txRunner: txRunner, indexer: indexer, logger: logger}
}

// Location is where the published guideline is served from. Derived from the
// classification, so it is stable across republications of the same triple.
func Location(cl model.Classification) string {
	return fmt.Sprintf("guides/%s/%s/%s.json", cl.Topic, cl.Category, cl.Slug)
}

func (p *publisher) Publish(ctx context.Context, c *model.Contribution, payload model.Payload, decision model.ModeratorDecision) (*model.Guideline, error) {
	priorStatus := c.Status
	location := Location(c.Classification)

	guideline := &model.Guideline{
		ID:             id.New(),
		ContributionID: c.ID,
		Classification: c.Classification,
		Title:          payload.Title,
		Description:    payload.Description,
		Body:           payload.Body,
		Version:        payload.Version,
		Difficulty:     payload.Difficulty,
		Tags:           payload.Tags,
		Location:       location,
		PublishedAt:    time.Now().UTC(),
	}

	err := p.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		// The unique index on the triple is the authoritative check; Exists is
		// only here to fail fast with a clean error before the insert.
		taken, err := sp.Guidelines().Exists(ctx, c.Classification)
		if err != nil {
			return fmt.Errorf("checking published corpus: %w", err)
		}
		if taken {
			return &DuplicateClassificationError{Classification: c.Classification}
		}

		if err := sp.Guidelines().Create(ctx, guideline); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return &DuplicateClassificationError{Classification: c.Classification}
			}
			return fmt.Errorf("inserting guideline: %w", err)
		}

		updated := *c
		updated.Status = model.StatusPublished
		updated.ModeratorDecision = &decision
		updated.PublishedLocation = &location

		if err := sp.Contributions().UpdateIfStatus(ctx, c.ID, priorStatus, &updated); err != nil {
			if errors.Is(err, store.ErrConcurrencyConflict) {
				return ErrConcurrentModification
			}
			return fmt.Errorf("marking contribution published: %w", err)
		}

		*c = updated
		return nil
	})
	if err != nil {
		var dup *DuplicateClassificationError
		if errors.As(err, &dup) || errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		return nil, &PublishError{Err: err}
	}

	p.logger.InfoContext(ctx, "contribution published",
		"contribution_id", c.ID,
		"location", location,
		"moderator_id", decision.ModeratorID)

	// Indexing is derived state; never fail a publish over it.
	if err := p.indexer.IndexGuideline(ctx, guideline); err != nil {
		p.logger.WarnContext(ctx, "failed to index published guideline",
			"guideline_id", guideline.ID, "error", err)
	}

	return guideline, nil
}

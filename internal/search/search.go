// Package search maintains a derived full-text index of published guidelines.
// The index is best-effort: publish never fails because indexing failed, and
// the index can always be rebuilt from the guidelines table.
package search

import (
	"context"

	"guidex.app/curator/internal/model"
)

type Indexer interface {
	// IndexGuideline upserts a published guideline into the index.
	IndexGuideline(ctx context.Context, g *model.Guideline) error
}

// NoopIndexer is used when no search backend is configured.
type NoopIndexer struct{}

func (NoopIndexer) IndexGuideline(ctx context.Context, g *model.Guideline) error { return nil }

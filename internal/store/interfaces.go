package store

import (
	"context"
	"errors"

	"guidex.app/curator/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConcurrencyConflict is returned by conditional writes when the row's
// status no longer matches the expected value. The caller read stale state and
// must re-read before retrying.
var ErrConcurrencyConflict = errors.New("concurrent modification")

// ErrDuplicate is returned when a write collides with the unique index on the
// published classification triple.
var ErrDuplicate = errors.New("classification already published")

// ContributionStore is the metadata ledger: one mutable status record per
// contribution, mutated only through conditional writes.
type ContributionStore interface {
	Create(ctx context.Context, c *model.Contribution) error
	GetByID(ctx context.Context, id int64) (*model.Contribution, error)
	// UpdateIfStatus persists c only if the stored status still equals
	// expected, refreshing c.UpdatedAt from the row on success. Returns
	// ErrConcurrencyConflict otherwise.
	UpdateIfStatus(ctx context.Context, id int64, expected model.Status, c *model.Contribution) error
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Contribution, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Contribution, error)
}

// PayloadStore is the content store: the immutable submitted document,
// replaced wholesale on revision.
type PayloadStore interface {
	Put(ctx context.Context, contributionID int64, p model.Payload) error
	Get(ctx context.Context, contributionID int64) (*model.Payload, error)
}

// GuidelineStore is the published corpus. Rows are append-only and the triple
// is unique, which makes Create the authoritative duplicate check.
type GuidelineStore interface {
	Create(ctx context.Context, g *model.Guideline) error
	Exists(ctx context.Context, c model.Classification) (bool, error)
	GetByClassification(ctx context.Context, c model.Classification) (*model.Guideline, error)
	List(ctx context.Context, topic string) ([]model.Guideline, error)
}

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByWorkOSID(ctx context.Context, workosUserID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id int64) (*model.Session, error)
	Delete(ctx context.Context, id int64) error
}

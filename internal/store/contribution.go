package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"guidex.app/curator/core/db"
	"guidex.app/curator/internal/model"
)

type contributionStore struct {
	q db.Querier
}

const contributionColumns = `
	id, owner_id, topic, category, slug, status,
	automated_review, moderator_decision, published_location,
	created_at, updated_at`

func (s *contributionStore) Create(ctx context.Context, c *model.Contribution) error {
	review, decision, err := marshalReviewState(c)
	if err != nil {
		return err
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO contributions (
			id, owner_id, topic, category, slug, status,
			automated_review, moderator_decision, published_location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING`+contributionColumns,
		c.ID, c.OwnerID, c.Classification.Topic, c.Classification.Category,
		c.Classification.Slug, string(c.Status), review, decision, c.PublishedLocation,
	)

	created, err := scanContribution(row)
	if err != nil {
		return fmt.Errorf("creating contribution: %w", err)
	}
	*c = *created
	return nil
}

func (s *contributionStore) GetByID(ctx context.Context, id int64) (*model.Contribution, error) {
	row := s.q.QueryRow(ctx,
		`SELECT`+contributionColumns+` FROM contributions WHERE id = $1`, id)

	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateIfStatus is the only mutation path for a contribution record. The
// WHERE clause on the previously-read status turns every read-then-write into
// a compare-and-swap; a lost race surfaces as ErrConcurrencyConflict instead
// of silently overwriting the winner.
func (s *contributionStore) UpdateIfStatus(ctx context.Context, id int64, expected model.Status, c *model.Contribution) error {
	review, decision, err := marshalReviewState(c)
	if err != nil {
		return err
	}

	err = s.q.QueryRow(ctx, `
		UPDATE contributions
		SET status = $3,
		    automated_review = $4,
		    moderator_decision = $5,
		    published_location = $6,
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`,
		id, string(expected), string(c.Status), review, decision, c.PublishedLocation,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("updating contribution: %w", err)
	}
	return nil
}

func (s *contributionStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Contribution, error) {
	rows, err := s.q.Query(ctx,
		`SELECT`+contributionColumns+` FROM contributions WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing contributions by owner: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

func (s *contributionStore) ListByStatus(ctx context.Context, status model.Status) ([]model.Contribution, error) {
	rows, err := s.q.Query(ctx,
		`SELECT`+contributionColumns+` FROM contributions WHERE status = $1 ORDER BY updated_at ASC`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("listing contributions by status: %w", err)
	}
	defer rows.Close()

	return collectContributions(rows)
}

func marshalReviewState(c *model.Contribution) ([]byte, []byte, error) {
	var review, decision []byte
	var err error

	if c.AutomatedReview != nil {
		if review, err = json.Marshal(c.AutomatedReview); err != nil {
			return nil, nil, fmt.Errorf("marshaling automated review: %w", err)
		}
	}
	if c.ModeratorDecision != nil {
		if decision, err = json.Marshal(c.ModeratorDecision); err != nil {
			return nil, nil, fmt.Errorf("marshaling moderator decision: %w", err)
		}
	}
	return review, decision, nil
}

func scanContribution(row pgx.Row) (*model.Contribution, error) {
	var (
		c        model.Contribution
		status   string
		review   []byte
		decision []byte
	)

	err := row.Scan(
		&c.ID, &c.OwnerID,
		&c.Classification.Topic, &c.Classification.Category, &c.Classification.Slug,
		&status, &review, &decision, &c.PublishedLocation,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = model.Status(status)

	if len(review) > 0 {
		c.AutomatedReview = &model.AutomatedReview{}
		if err := json.Unmarshal(review, c.AutomatedReview); err != nil {
			return nil, fmt.Errorf("unmarshaling automated review: %w", err)
		}
	}
	if len(decision) > 0 {
		c.ModeratorDecision = &model.ModeratorDecision{}
		if err := json.Unmarshal(decision, c.ModeratorDecision); err != nil {
			return nil, fmt.Errorf("unmarshaling moderator decision: %w", err)
		}
	}

	return &c, nil
}

func collectContributions(rows pgx.Rows) ([]model.Contribution, error) {
	var out []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

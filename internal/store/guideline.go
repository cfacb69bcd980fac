package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"guidex.app/curator/core/db"
	"guidex.app/curator/internal/model"
)

type guidelineStore struct {
	q db.Querier
}

const guidelineColumns = `
	id, contribution_id, topic, category, slug, title, description,
	body, version, difficulty, tags, location, published_at`

// Create inserts a corpus entry. The unique index on (topic, category, slug)
// is the authoritative duplicate guard; a violation maps to ErrDuplicate so
// the publish transaction can roll back cleanly.
func (s *guidelineStore) Create(ctx context.Context, g *model.Guideline) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO guidelines (
			id, contribution_id, topic, category, slug, title, description,
			body, version, difficulty, tags, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING`+guidelineColumns,
		g.ID, g.ContributionID, g.Classification.Topic, g.Classification.Category,
		g.Classification.Slug, g.Title, g.Description, g.Body, g.Version,
		string(g.Difficulty), g.Tags, g.Location,
	)

	created, err := scanGuideline(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("creating guideline: %w", err)
	}
	*g = *created
	return nil
}

func (s *guidelineStore) Exists(ctx context.Context, c model.Classification) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM guidelines WHERE topic = $1 AND category = $2 AND slug = $3
		)`,
		c.Topic, c.Category, c.Slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking guideline existence: %w", err)
	}
	return exists, nil
}

func (s *guidelineStore) GetByClassification(ctx context.Context, c model.Classification) (*model.Guideline, error) {
	row := s.q.QueryRow(ctx,
		`SELECT`+guidelineColumns+` FROM guidelines WHERE topic = $1 AND category = $2 AND slug = $3`,
		c.Topic, c.Category, c.Slug)

	g, err := scanGuideline(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *guidelineStore) List(ctx context.Context, topic string) ([]model.Guideline, error) {
	query := `SELECT` + guidelineColumns + ` FROM guidelines ORDER BY topic, category, slug`
	args := []any{}
	if topic != "" {
		query = `SELECT` + guidelineColumns + ` FROM guidelines WHERE topic = $1 ORDER BY category, slug`
		args = append(args, topic)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing guidelines: %w", err)
	}
	defer rows.Close()

	var out []model.Guideline
	for rows.Next() {
		g, err := scanGuideline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func scanGuideline(row pgx.Row) (*model.Guideline, error) {
	var (
		g          model.Guideline
		difficulty string
	)
	err := row.Scan(
		&g.ID, &g.ContributionID,
		&g.Classification.Topic, &g.Classification.Category, &g.Classification.Slug,
		&g.Title, &g.Description, &g.Body, &g.Version, &difficulty,
		&g.Tags, &g.Location, &g.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Difficulty = model.Difficulty(difficulty)
	return &g, nil
}

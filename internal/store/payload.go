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

type payloadStore struct {
	q db.Querier
}

// Put writes the full document, replacing any previous version. Revisions
// always rewrite the payload wholesale; there is no partial update.
func (s *payloadStore) Put(ctx context.Context, contributionID int64, p model.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO contribution_payloads (contribution_id, payload)
		VALUES ($1, $2)
		ON CONFLICT (contribution_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		contributionID, body,
	)
	if err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

func (s *payloadStore) Get(ctx context.Context, contributionID int64) (*model.Payload, error) {
	var body []byte
	err := s.q.QueryRow(ctx,
		`SELECT payload FROM contribution_payloads WHERE contribution_id = $1`,
		contributionID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	var p model.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling payload: %w", err)
	}
	return &p, nil
}

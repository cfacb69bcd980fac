package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"guidex.app/curator/core/db"
	"guidex.app/curator/internal/model"
)

type sessionStore struct {
	q db.Querier
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO sessions (id, user_id, workos_session_id, expires_at)
		VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.WorkOSSessionID, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get returns the session whether or not it has expired. Expiry is enforced
// by the auth service, which also deletes the stale row.
func (s *sessionStore) Get(ctx context.Context, id int64) (*model.Session, error) {
	var session model.Session
	err := s.q.QueryRow(ctx, `
		SELECT id, user_id, workos_session_id, created_at, expires_at
		FROM sessions
		WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.UserID, &session.WorkOSSessionID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"guidex.app/curator/internal/store"
)

// Authorizer answers capability questions for the lifecycle engine. The engine
// never inspects roles directly; injecting this keeps the moderation policy
// swappable without touching transition logic.
type Authorizer interface {
	CanModerate(ctx context.Context, userID int64) (bool, error)
}

type roleAuthorizer struct {
	users store.UserStore
}

// NewRoleAuthorizer grants moderation to users carrying the moderator role.
func NewRoleAuthorizer(users store.UserStore) Authorizer {
	return &roleAuthorizer{users: users}
}

func (a *roleAuthorizer) CanModerate(ctx context.Context, userID int64) (bool, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("fetching user: %w", err)
	}
	return user.IsModerator(), nil
}

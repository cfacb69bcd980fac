package model

import "time"

// Role gates moderation. Submitters are members; the moderator role is the
// capability the engine consults before any terminal decision.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
)

type User struct {
	ID           int64     `json:"id"`
	WorkOSUserID string    `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

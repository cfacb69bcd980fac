package model

import "time"

// Session is a server-side login session backed by a cookie holding its ID.
type Session struct {
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	WorkOSSessionID *string   `json:"workos_session_id,omitempty"`
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

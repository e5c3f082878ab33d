package models

import "time"

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// UsableAt: сессия пригодна только если активна и ещё не истекла.
func (s *Session) UsableAt(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

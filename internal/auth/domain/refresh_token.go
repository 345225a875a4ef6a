package domain

import "time"

// RefreshToken is a persisted refresh token row. The raw token is never stored.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

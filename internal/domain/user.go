package domain

import "time"

// User represents an account that owns tasks.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

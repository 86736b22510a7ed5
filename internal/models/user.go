package models

import "time"

// User is an account record. Created on sign-up, immutable afterwards
// and never deleted in-app.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

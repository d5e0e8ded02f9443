package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	AccountID int64     `json:"account_id"`
	Email     string    `json:"email"`
	Tier      Tier      `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

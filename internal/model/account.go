package model

import "time"

// Tier is the account service level governing garment limits, check-in
// cadence and generation pricing.
type Tier string

const (
	TierFree Tier = "free"
	TierPlus Tier = "plus"
	TierPro  Tier = "pro"
)

// Account represents a user account with its credit balance.
// The balance is only ever mutated through conditional adjustments
// that cannot leave it negative.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Tier         Tier      `json:"tier"`
	Credits      int       `json:"credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package model

import "time"

// CheckinCadence is how often an account may check in for free credits.
type CheckinCadence string

const (
	CheckinDaily  CheckinCadence = "daily"
	CheckinWeekly CheckinCadence = "weekly"
)

// Checkin records one credit-awarding check-in for a period.
type Checkin struct {
	ID             int64          `json:"id"`
	AccountID      int64          `json:"account_id"`
	Cadence        CheckinCadence `json:"checkin_type"`
	Period         string         `json:"checkin_period"`
	CreditsAwarded int            `json:"credits_awarded"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CheckinStatus reports whether an account can check in right now.
type CheckinStatus struct {
	CanCheckin bool           `json:"can_checkin"`
	Cadence    CheckinCadence `json:"checkin_type"`
	Period     string         `json:"checkin_period"`
}

// CreditPackage is a purchasable credit bundle. Payment is settled
// offline; an admin applies the purchase afterwards.
type CreditPackage struct {
	Name         string `json:"name"`
	Price        int    `json:"price"`
	BaseCredits  int    `json:"base_credits"`
	BonusCredits int    `json:"bonus_credits"`
	TotalCredits int    `json:"total_credits"`
	Description  string `json:"description"`
}

// Purchase records an applied credit package purchase.
type Purchase struct {
	ID           int64     `json:"id"`
	AccountID    int64     `json:"account_id"`
	PackageName  string    `json:"package_name"`
	PackagePrice int       `json:"package_price"`
	BaseCredits  int       `json:"base_credits"`
	BonusCredits int       `json:"bonus_credits"`
	TotalCredits int       `json:"total_credits"`
	AdminNote    string    `json:"admin_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

package model

import "time"

// GarmentCategory is the detected type of a garment reference image.
type GarmentCategory string

const (
	CategoryTops        GarmentCategory = "tops"
	CategoryBottoms     GarmentCategory = "bottoms"
	CategoryUnderwear   GarmentCategory = "underwear"
	CategoryShoes       GarmentCategory = "shoes"
	CategoryAccessories GarmentCategory = "accessories"
)

// GenerationMode selects single vs batch billing.
type GenerationMode string

const (
	ModeSingle GenerationMode = "single"
	ModeBatch  GenerationMode = "batch"
)

// GenerationStatus is the lifecycle state of a generation record.
// A record is created pending and transitions exactly once to
// completed or failed; it is never deleted.
type GenerationStatus string

const (
	StatusPending   GenerationStatus = "pending"
	StatusCompleted GenerationStatus = "completed"
	StatusFailed    GenerationStatus = "failed"
)

// GenerationRecord is the persisted history row for one billed generation.
type GenerationRecord struct {
	ID           int64            `json:"id"`
	AccountID    int64            `json:"account_id"`
	CreditsUsed  int              `json:"credits_used"`
	GarmentCount int              `json:"garment_count"`
	Mode         GenerationMode   `json:"generation_type"`
	Status       GenerationStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// GenerationResult is the user-visible outcome of a successful generation.
type GenerationResult struct {
	Images         []string       `json:"images"`
	CreditsUsed    int            `json:"credits_used"`
	Mode           GenerationMode `json:"generation_type"`
	GeneratedCount int            `json:"generated_count"`
}

// Package tier holds the account tier policy: garment limits, check-in
// cadence and generation pricing. Pure lookup tables, no I/O.
package tier

import "vton-rest-api/internal/model"

// Limits describes what a tier permits and what its generations cost.
type Limits struct {
	MaxGarments    int                  `json:"max_garments"`
	CheckinCadence model.CheckinCadence `json:"checkin_type"`
	SingleCost     int                  `json:"single_cost"`
	BatchCost      int                  `json:"batch_cost"`
	CanBatch       bool                 `json:"can_batch"`
}

var limitsTable = map[model.Tier]Limits{
	model.TierFree: {
		MaxGarments:    1,
		CheckinCadence: model.CheckinWeekly,
		SingleCost:     2,
		BatchCost:      2,
		CanBatch:       false,
	},
	model.TierPlus: {
		MaxGarments:    3,
		CheckinCadence: model.CheckinDaily,
		SingleCost:     2,
		BatchCost:      2,
		CanBatch:       false,
	},
	model.TierPro: {
		MaxGarments:    10,
		CheckinCadence: model.CheckinDaily,
		SingleCost:     2,
		BatchCost:      20,
		CanBatch:       true,
	},
}

var displayNames = map[model.Tier]string{
	model.TierFree: "Free",
	model.TierPlus: "Plus",
	model.TierPro:  "Pro",
}

// ForTier returns the limits for a tier. Unknown tiers get the
// free-tier limits so the policy stays total.
func ForTier(t model.Tier) Limits {
	if l, ok := limitsTable[t]; ok {
		return l
	}
	return limitsTable[model.TierFree]
}

// RequiredCredits returns the cost of a generation for the given tier
// and garment count. Batch pricing applies only when the tier allows
// batch generation and more than one garment is supplied.
func RequiredCredits(t model.Tier, garmentCount int) int {
	l := ForTier(t)
	if l.CanBatch && garmentCount > 1 {
		return l.BatchCost
	}
	return l.SingleCost
}

// IsBatch reports whether a request resolves to batch mode.
func IsBatch(t model.Tier, garmentCount int) bool {
	return ForTier(t).CanBatch && garmentCount > 1
}

// IsValid reports whether t is a known tier.
func IsValid(t model.Tier) bool {
	_, ok := limitsTable[t]
	return ok
}

// DisplayName returns the human-readable tier name.
func DisplayName(t model.Tier) string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return displayNames[model.TierFree]
}

// Next returns the next tier on the upgrade path, or empty for pro.
func Next(t model.Tier) model.Tier {
	switch t {
	case model.TierFree:
		return model.TierPlus
	case model.TierPlus:
		return model.TierPro
	default:
		return ""
	}
}

package tier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vton-rest-api/internal/model"
)

func TestForTier(t *testing.T) {
	free := ForTier(model.TierFree)
	require.Equal(t, 1, free.MaxGarments)
	require.Equal(t, model.CheckinWeekly, free.CheckinCadence)
	require.False(t, free.CanBatch)

	plus := ForTier(model.TierPlus)
	require.Equal(t, 3, plus.MaxGarments)
	require.Equal(t, model.CheckinDaily, plus.CheckinCadence)
	require.False(t, plus.CanBatch)

	pro := ForTier(model.TierPro)
	require.Equal(t, 10, pro.MaxGarments)
	require.Equal(t, model.CheckinDaily, pro.CheckinCadence)
	require.True(t, pro.CanBatch)
}

func TestForTierUnknownFallsBackToFree(t *testing.T) {
	require.Equal(t, ForTier(model.TierFree), ForTier(model.Tier("vip")))
}

func TestRequiredCredits(t *testing.T) {
	tests := []struct {
		name  string
		tier  model.Tier
		count int
		want  int
	}{
		{"free single", model.TierFree, 1, 2},
		{"plus single", model.TierPlus, 1, 2},
		{"plus multi still single billing", model.TierPlus, 3, 2},
		{"pro single", model.TierPro, 1, 2},
		{"pro batch", model.TierPro, 3, 20},
		{"pro max batch", model.TierPro, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RequiredCredits(tt.tier, tt.count))
		})
	}
}

func TestIsBatch(t *testing.T) {
	require.False(t, IsBatch(model.TierFree, 1))
	require.False(t, IsBatch(model.TierPlus, 3))
	require.False(t, IsBatch(model.TierPro, 1))
	require.True(t, IsBatch(model.TierPro, 2))
}

func TestNext(t *testing.T) {
	require.Equal(t, model.TierPlus, Next(model.TierFree))
	require.Equal(t, model.TierPro, Next(model.TierPlus))
	require.Empty(t, Next(model.TierPro))
}

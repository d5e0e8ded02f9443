package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vton-rest-api/internal/model"
)

func newTestAccountRepo(t *testing.T) *SQLiteAccountRepository {
	t.Helper()
	repo, err := NewSQLiteAccountRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAndGetAccount(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, "a@example.com", "hash", 6)
	require.NoError(t, err)
	require.Equal(t, model.TierFree, acc.Tier)
	require.Equal(t, 6, acc.Credits)

	byEmail, err := repo.GetAccountByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, acc.ID, byEmail.ID)

	_, err = repo.GetAccountByID(ctx, 9999)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	_, err := repo.CreateAccount(ctx, "a@example.com", "hash", 6)
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, "a@example.com", "hash", 6)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAdjustCreditsNeverNegative(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, "a@example.com", "hash", 2)
	require.NoError(t, err)

	// Debit within balance succeeds.
	updated, err := repo.AdjustCredits(ctx, acc.ID, -2)
	require.NoError(t, err)
	require.Equal(t, 0, updated.Credits)

	// Debit below zero is rejected without mutation.
	_, err = repo.AdjustCredits(ctx, acc.ID, -1)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	current, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, 0, current.Credits)

	// Refund restores the balance.
	updated, err = repo.AdjustCredits(ctx, acc.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Credits)
}

func TestAdjustCreditsMissingAccount(t *testing.T) {
	repo := newTestAccountRepo(t)

	_, err := repo.AdjustCredits(context.Background(), 42, -1)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetTier(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, "a@example.com", "hash", 0)
	require.NoError(t, err)

	require.NoError(t, repo.SetTier(ctx, acc.ID, model.TierPro))

	updated, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, model.TierPro, updated.Tier)

	require.ErrorIs(t, repo.SetTier(ctx, 9999, model.TierPro), ErrAccountNotFound)
}

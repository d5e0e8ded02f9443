package repository

import (
	"context"
	"errors"

	"vton-rest-api/internal/model"
)

// ErrAccountNotFound is returned when an account id or email does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrInsufficientCredits is returned by AdjustCredits when the delta
// would drive the balance negative. No mutation happens in that case.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrDuplicateEmail is returned when registering an already-used email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrRecordNotFound is returned when a ledger row does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ErrAlreadyCheckedIn is returned when a check-in exists for the period.
var ErrAlreadyCheckedIn = errors.New("already checked in for this period")

// AccountRepository defines account data access methods.
type AccountRepository interface {
	// CreateAccount inserts a new free-tier account with the given
	// starting credit balance.
	CreateAccount(ctx context.Context, email, passwordHash string, credits int) (*model.Account, error)

	// GetAccountByID loads an account by id.
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)

	// GetAccountByEmail loads an account by email.
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// AdjustCredits applies delta to the balance as one atomic
	// conditional update: the write fails with ErrInsufficientCredits
	// if it would leave the balance negative. Returns the updated account.
	AdjustCredits(ctx context.Context, id int64, delta int) (*model.Account, error)

	// SetTier changes the account tier.
	SetTier(ctx context.Context, id int64, t model.Tier) error

	// Close closes the repository connection.
	Close() error
}

// LedgerRepository defines generation-history and credit-ledger access.
// Generation records are append-then-update: created pending, moved
// exactly once to a terminal status, never deleted.
type LedgerRepository interface {
	CreateGenerationRecord(ctx context.Context, accountID int64, creditsUsed, garmentCount int, mode model.GenerationMode) (*model.GenerationRecord, error)
	SetGenerationStatus(ctx context.Context, id int64, status model.GenerationStatus, errorMessage string) error
	ListGenerationHistory(ctx context.Context, accountID int64, limit int) ([]model.GenerationRecord, error)

	HasCheckin(ctx context.Context, accountID int64, period string) (bool, error)
	CreateCheckin(ctx context.Context, accountID int64, cadence model.CheckinCadence, period string, credits int) error
	ListCheckins(ctx context.Context, accountID int64, limit int) ([]model.Checkin, error)

	CreatePurchase(ctx context.Context, accountID int64, pkg model.CreditPackage, adminNote string) error
	ListPurchases(ctx context.Context, accountID int64, limit int) ([]model.Purchase, error)

	// GetStats returns counters for the admin endpoint.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

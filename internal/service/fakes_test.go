package service

import (
	"context"
	"sync"
	"time"

	"vton-rest-api/internal/model"
	"vton-rest-api/internal/repository"
)

// memAccountRepo is an in-memory AccountRepository for tests.
type memAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*model.Account

	failAdjust error // forced AdjustCredits error, when set
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{nextID: 1, accounts: make(map[int64]*model.Account)}
}

func (r *memAccountRepo) add(tier model.Tier, credits int) *model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc := &model.Account{
		ID:      r.nextID,
		Email:   "user@example.com",
		Tier:    tier,
		Credits: credits,
	}
	r.accounts[acc.ID] = acc
	r.nextID++
	return acc
}

func (r *memAccountRepo) balance(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id].Credits
}

func (r *memAccountRepo) CreateAccount(_ context.Context, email, passwordHash string, credits int) (*model.Account, error) {
	acc := r.add(model.TierFree, credits)
	acc.Email = email
	acc.PasswordHash = passwordHash
	return acc, nil
}

func (r *memAccountRepo) GetAccountByID(_ context.Context, id int64) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

func (r *memAccountRepo) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.Email == email {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (r *memAccountRepo) AdjustCredits(_ context.Context, id int64, delta int) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdjust != nil {
		return nil, r.failAdjust
	}
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if acc.Credits+delta < 0 {
		return nil, repository.ErrInsufficientCredits
	}
	acc.Credits += delta
	copied := *acc
	return &copied, nil
}

func (r *memAccountRepo) SetTier(_ context.Context, id int64, t model.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	acc.Tier = t
	return nil
}

func (r *memAccountRepo) Close() error { return nil }

// memLedgerRepo is an in-memory LedgerRepository for tests.
type memLedgerRepo struct {
	mu        sync.Mutex
	nextID    int64
	records   map[int64]*model.GenerationRecord
	checkins  map[int64]map[string]model.Checkin
	purchases []model.Purchase

	failCreateRecord error // forced CreateGenerationRecord error, when set
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		nextID:   1,
		records:  make(map[int64]*model.GenerationRecord),
		checkins: make(map[int64]map[string]model.Checkin),
	}
}

func (r *memLedgerRepo) record(id int64) model.GenerationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[id]
}

func (r *memLedgerRepo) recordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *memLedgerRepo) CreateGenerationRecord(_ context.Context, accountID int64, creditsUsed, garmentCount int, mode model.GenerationMode) (*model.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateRecord != nil {
		return nil, r.failCreateRecord
	}
	rec := &model.GenerationRecord{
		ID:           r.nextID,
		AccountID:    accountID,
		CreditsUsed:  creditsUsed,
		GarmentCount: garmentCount,
		Mode:         mode,
		Status:       model.StatusPending,
		CreatedAt:    time.Now(),
	}
	r.records[rec.ID] = rec
	r.nextID++
	copied := *rec
	return &copied, nil
}

func (r *memLedgerRepo) SetGenerationStatus(_ context.Context, id int64, status model.GenerationStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != model.StatusPending {
		return repository.ErrRecordNotFound
	}
	rec.Status = status
	rec.ErrorMessage = errorMessage
	now := time.Now()
	rec.CompletedAt = &now
	return nil
}

func (r *memLedgerRepo) ListGenerationHistory(_ context.Context, accountID int64, _ int) ([]model.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GenerationRecord
	for _, rec := range r.records {
		if rec.AccountID == accountID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) HasCheckin(_ context.Context, accountID int64, period string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.checkins[accountID][period]
	return ok, nil
}

func (r *memLedgerRepo) CreateCheckin(_ context.Context, accountID int64, cadence model.CheckinCadence, period string, credits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.checkins[accountID] == nil {
		r.checkins[accountID] = make(map[string]model.Checkin)
	}
	if _, ok := r.checkins[accountID][period]; ok {
		return repository.ErrAlreadyCheckedIn
	}
	r.checkins[accountID][period] = model.Checkin{
		AccountID:      accountID,
		Cadence:        cadence,
		Period:         period,
		CreditsAwarded: credits,
		CreatedAt:      time.Now(),
	}
	return nil
}

func (r *memLedgerRepo) ListCheckins(_ context.Context, accountID int64, _ int) ([]model.Checkin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Checkin
	for _, c := range r.checkins[accountID] {
		out = append(out, c)
	}
	return out, nil
}

func (r *memLedgerRepo) CreatePurchase(_ context.Context, accountID int64, pkg model.CreditPackage, adminNote string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases = append(r.purchases, model.Purchase{
		AccountID:    accountID,
		PackageName:  pkg.Name,
		PackagePrice: pkg.Price,
		BaseCredits:  pkg.BaseCredits,
		BonusCredits: pkg.BonusCredits,
		TotalCredits: pkg.TotalCredits,
		AdminNote:    adminNote,
		CreatedAt:    time.Now(),
	})
	return nil
}

func (r *memLedgerRepo) ListPurchases(_ context.Context, accountID int64, _ int) ([]model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.purchases {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) GetStats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (r *memLedgerRepo) Close() error { return nil }

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vton-rest-api/internal/model"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/tier"
	"vton-rest-api/pkg/apierror"
)

// CreditPackages is the fixed purchasable bundle table. Payment is
// settled offline; an admin applies the purchase afterwards.
var CreditPackages = []model.CreditPackage{
	{Name: "Starter Pack", Price: 6, BaseCredits: 10, BonusCredits: 2, TotalCredits: 12, Description: "New user trial"},
	{Name: "Basic Pack", Price: 30, BaseCredits: 50, BonusCredits: 15, TotalCredits: 65, Description: "Light usage"},
	{Name: "Popular Pack", Price: 98, BaseCredits: 170, BonusCredits: 50, TotalCredits: 220, Description: "Moderate usage"},
	{Name: "Professional Pack", Price: 198, BaseCredits: 350, BonusCredits: 100, TotalCredits: 450, Description: "Heavy usage"},
	{Name: "Business Pack", Price: 328, BaseCredits: 600, BonusCredits: 180, TotalCredits: 780, Description: "Business usage"},
	{Name: "Enterprise Pack", Price: 648, BaseCredits: 1300, BonusCredits: 400, TotalCredits: 1700, Description: "Enterprise usage"},
}

// CheckinResult is the outcome of a check-in.
type CheckinResult struct {
	CreditsAwarded int                  `json:"credits_awarded"`
	Cadence        model.CheckinCadence `json:"checkin_type"`
	Balance        int                  `json:"balance"`
}

// PurchaseResult is the outcome of an applied purchase.
type PurchaseResult struct {
	CreditsAdded int        `json:"credits_added"`
	NewTier      model.Tier `json:"new_tier"`
	Balance      int        `json:"balance"`
}

// CreditsService handles check-ins and offline credit purchases.
type CreditsService struct {
	accounts      repository.AccountRepository
	ledger        repository.LedgerRepository
	checkinAmount int
	now           func() time.Time
}

// NewCreditsService creates a new credits service.
func NewCreditsService(accounts repository.AccountRepository, ledger repository.LedgerRepository, checkinAmount int) *CreditsService {
	if checkinAmount == 0 {
		checkinAmount = 6
	}
	return &CreditsService{
		accounts:      accounts,
		ledger:        ledger,
		checkinAmount: checkinAmount,
		now:           time.Now,
	}
}

// CheckinPeriod returns the period key for a cadence: ISO week
// ("2026-W35") for weekly, calendar day ("2026-08-30") for daily.
func CheckinPeriod(cadence model.CheckinCadence, at time.Time) string {
	if cadence == model.CheckinWeekly {
		year, week := at.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return at.Format("2006-01-02")
}

// Checkin awards the check-in credits for the account's current
// period. Free accounts check in weekly, paid tiers daily. A second
// check-in within the same period is rejected without mutation.
func (s *CreditsService) Checkin(ctx context.Context, accountID int64) (*CheckinResult, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, apierror.InternalError("failed to load account")
	}

	cadence := tier.ForTier(account.Tier).CheckinCadence
	period := CheckinPeriod(cadence, s.now())

	exists, err := s.ledger.HasCheckin(ctx, accountID, period)
	if err != nil {
		return nil, apierror.InternalError("failed to check checkin status")
	}
	if exists {
		return nil, apierror.Conflict(alreadyCheckedInMessage(cadence))
	}

	// The unique (account, period) constraint backstops the read above
	// against concurrent check-ins.
	if err := s.ledger.CreateCheckin(ctx, accountID, cadence, period, s.checkinAmount); err != nil {
		if errors.Is(err, repository.ErrAlreadyCheckedIn) {
			return nil, apierror.Conflict(alreadyCheckedInMessage(cadence))
		}
		return nil, apierror.InternalError("failed to record checkin")
	}

	updated, err := s.accounts.AdjustCredits(ctx, accountID, s.checkinAmount)
	if err != nil {
		log.Printf("[CreditsService] LEDGER INTEGRITY: checkin recorded but credit award failed for account %d: %v", accountID, err)
		return nil, apierror.InternalError("failed to award credits")
	}

	return &CheckinResult{
		CreditsAwarded: s.checkinAmount,
		Cadence:        cadence,
		Balance:        updated.Credits,
	}, nil
}

// CheckinStatus reports whether the account can check in right now.
func (s *CreditsService) CheckinStatus(ctx context.Context, accountID int64) (*model.CheckinStatus, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, apierror.InternalError("failed to load account")
	}

	cadence := tier.ForTier(account.Tier).CheckinCadence
	period := CheckinPeriod(cadence, s.now())

	exists, err := s.ledger.HasCheckin(ctx, accountID, period)
	if err != nil {
		return nil, apierror.InternalError("failed to check checkin status")
	}

	return &model.CheckinStatus{
		CanCheckin: !exists,
		Cadence:    cadence,
		Period:     period,
	}, nil
}

// Packages returns the purchasable credit package table.
func (s *CreditsService) Packages() []model.CreditPackage {
	return CreditPackages
}

// ApplyPurchase credits a package bought offline, upgrades the account
// to pro, and records the transaction. Admin-only.
func (s *CreditsService) ApplyPurchase(ctx context.Context, accountID int64, packageName, adminNote string) (*PurchaseResult, error) {
	var pkg *model.CreditPackage
	for i := range CreditPackages {
		if CreditPackages[i].Name == packageName {
			pkg = &CreditPackages[i]
			break
		}
	}
	if pkg == nil {
		return nil, apierror.NotFound(fmt.Sprintf("credit package %q does not exist", packageName))
	}

	if _, err := s.accounts.GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, apierror.InternalError("failed to load account")
	}

	updated, err := s.accounts.AdjustCredits(ctx, accountID, pkg.TotalCredits)
	if err != nil {
		return nil, apierror.InternalError("failed to credit purchase")
	}

	if err := s.accounts.SetTier(ctx, accountID, model.TierPro); err != nil {
		log.Printf("[CreditsService] Purchase credited but tier upgrade failed for account %d: %v", accountID, err)
	}

	if err := s.ledger.CreatePurchase(ctx, accountID, *pkg, adminNote); err != nil {
		log.Printf("[CreditsService] LEDGER INTEGRITY: purchase credited but not recorded for account %d: %v", accountID, err)
	}

	return &PurchaseResult{
		CreditsAdded: pkg.TotalCredits,
		NewTier:      model.TierPro,
		Balance:      updated.Credits,
	}, nil
}

func alreadyCheckedInMessage(cadence model.CheckinCadence) string {
	if cadence == model.CheckinWeekly {
		return "already checked in this week"
	}
	return "already checked in today"
}

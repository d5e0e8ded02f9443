package handler

import (
	"net/http"

	"vton-rest-api/internal/middleware"
	"vton-rest-api/internal/model"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/service"
	"vton-rest-api/internal/tier"
	"vton-rest-api/pkg/apierror"
	"vton-rest-api/pkg/response"
)

// CreditsHandler handles check-in, balance and package HTTP requests.
type CreditsHandler struct {
	credits  *service.CreditsService
	accounts repository.AccountRepository
	ledger   repository.LedgerRepository
}

// NewCreditsHandler creates a new credits handler.
func NewCreditsHandler(credits *service.CreditsService, accounts repository.AccountRepository, ledger repository.LedgerRepository) *CreditsHandler {
	return &CreditsHandler{
		credits:  credits,
		accounts: accounts,
		ledger:   ledger,
	}
}

// Me handles GET /api/v1/user/me
func (h *CreditsHandler) Me(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	account, err := h.accounts.GetAccountByID(r.Context(), tokenData.AccountID)
	if err != nil {
		response.Error(w, apierror.NotFound("account not found"))
		return
	}

	limits := tier.ForTier(account.Tier)
	response.OK(w, map[string]interface{}{
		"account": account,
		"limits":  limits,
	})
}

// Stats handles GET /api/v1/user/stats
func (h *CreditsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	records, err := h.ledger.ListGenerationHistory(r.Context(), tokenData.AccountID, 200)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load generation history"))
		return
	}
	checkins, err := h.ledger.ListCheckins(r.Context(), tokenData.AccountID, 200)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load checkin history"))
		return
	}

	var completed, failed, creditsSpent, creditsEarned int
	for _, rec := range records {
		switch rec.Status {
		case model.StatusCompleted:
			completed++
			creditsSpent += rec.CreditsUsed
		case model.StatusFailed:
			failed++
		}
	}
	for _, c := range checkins {
		creditsEarned += c.CreditsAwarded
	}

	response.OK(w, map[string]interface{}{
		"generations_total":     len(records),
		"generations_completed": completed,
		"generations_failed":    failed,
		"credits_spent":         creditsSpent,
		"checkins":              len(checkins),
		"checkin_credits":       creditsEarned,
	})
}

// Checkin handles POST /api/v1/checkin
func (h *CreditsHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	result, err := h.credits.Checkin(r.Context(), tokenData.AccountID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// CheckinStatus handles GET /api/v1/checkin/status
func (h *CreditsHandler) CheckinStatus(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	status, err := h.credits.CheckinStatus(r.Context(), tokenData.AccountID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, status)
}

// Checkins handles GET /api/v1/checkin/history
func (h *CreditsHandler) Checkins(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	checkins, err := h.ledger.ListCheckins(r.Context(), tokenData.AccountID, queryLimit(r, 50))
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load checkin history"))
		return
	}

	response.OK(w, checkins)
}

// Packages handles GET /api/v1/credits/packages
func (h *CreditsHandler) Packages(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.credits.Packages())
}

// Purchases handles GET /api/v1/user/purchases
func (h *CreditsHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	purchases, err := h.ledger.ListPurchases(r.Context(), tokenData.AccountID, queryLimit(r, 50))
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load purchase history"))
		return
	}

	response.OK(w, purchases)
}

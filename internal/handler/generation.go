package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"vton-rest-api/internal/middleware"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/service"
	"vton-rest-api/pkg/apierror"
	"vton-rest-api/pkg/response"
)

// GenerationHandler handles try-on generation HTTP requests.
type GenerationHandler struct {
	generation *service.GenerationService
	ledger     repository.LedgerRepository
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(generation *service.GenerationService, ledger repository.LedgerRepository) *GenerationHandler {
	return &GenerationHandler{
		generation: generation,
		ledger:     ledger,
	}
}

// Generate handles POST /api/v1/generate
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req service.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	result, err := h.generation.Generate(r.Context(), tokenData.AccountID, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	message := fmt.Sprintf("Generated %d image(s), %d credits consumed.", result.GeneratedCount, result.CreditsUsed)
	response.JSONWithMessage(w, http.StatusOK, message, result)
}

// History handles GET /api/v1/user/history
func (h *GenerationHandler) History(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	records, err := h.ledger.ListGenerationHistory(r.Context(), tokenData.AccountID, queryLimit(r, 50))
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load generation history"))
		return
	}

	response.OK(w, records)
}

// queryLimit parses the ?limit= query parameter, clamped to [1, 200].
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > 200 {
		return 200
	}
	return n
}

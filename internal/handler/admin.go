package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/service"
	"vton-rest-api/pkg/apierror"
	"vton-rest-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests. All routes are
// guarded by the X-Login-Key middleware.
type AdminHandler struct {
	credits   *service.CreditsService
	ledger    repository.LedgerRepository
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(credits *service.CreditsService, ledger repository.LedgerRepository, dbType string) *AdminHandler {
	return &AdminHandler{
		credits:   credits,
		ledger:    ledger,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.ledger != nil {
		ledgerStats, err := h.ledger.GetStats(ctx)
		if err == nil {
			stats["ledger"] = ledgerStats
		} else {
			stats["ledger"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// PurchaseRequest represents the request body for applying an offline
// purchase to an account.
type PurchaseRequest struct {
	AccountID   int64  `json:"account_id"`
	PackageName string `json:"package_name"`
	AdminNote   string `json:"admin_note"`
}

// ApplyPurchase handles POST /api/v1/admin/purchase
func (h *AdminHandler) ApplyPurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.AccountID == 0 {
		response.Error(w, apierror.BadRequest("account_id is required"))
		return
	}
	if req.PackageName == "" {
		response.Error(w, apierror.BadRequest("package_name is required"))
		return
	}

	result, err := h.credits.ApplyPurchase(r.Context(), req.AccountID, req.PackageName, req.AdminNote)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

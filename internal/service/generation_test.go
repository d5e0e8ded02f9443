package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vton-rest-api/internal/ai"
	"vton-rest-api/internal/model"
	"vton-rest-api/pkg/apierror"
)

// upstreamScript fakes the inference endpoint. Classification calls
// (single user message) answer with a category letter; generation
// calls (system + user messages) are counted and answered from the
// script, repeating the last entry once exhausted.
type upstreamScript struct {
	classifyAnswer  string
	generationBody  []string
	generationCalls atomic.Int64
}

func (s *upstreamScript) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ai.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if len(req.Messages) == 1 {
			json.NewEncoder(w).Encode(chatReply(s.classifyAnswer))
			return
		}

		n := int(s.generationCalls.Add(1)) - 1
		if n >= len(s.generationBody) {
			n = len(s.generationBody) - 1
		}
		json.NewEncoder(w).Encode(chatReply(s.generationBody[n]))
	}))
}

func newGenerationService(t *testing.T, accounts *memAccountRepo, ledger *memLedgerRepo, srv *httptest.Server) *GenerationService {
	t.Helper()
	client := ai.NewClient(ai.Config{
		APIURL:  srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
	classifier := NewClassifier(client, 0.1, time.Second)
	return NewGenerationService(accounts, ledger, classifier, client, GenerationConfig{
		MaxRetries: 2,
		MaxTokens:  500,
	})
}

func singleRequest() GenerationRequest {
	return GenerationRequest{
		UserImage:      "aGVsbG8=",
		ClothingImages: []string{"Z2FybWVudA=="},
		GenerationType: "single",
	}
}

func TestGenerateSuccessFirstAttempt(t *testing.T) {
	script := &upstreamScript{
		classifyAnswer: "A",
		generationBody: []string{"![result](https://cdn.example.com/out.png)"},
	}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierFree, 2)

	svc := newGenerationService(t, accounts, ledger, srv)
	result, err := svc.Generate(context.Background(), acc.ID, singleRequest())
	require.NoError(t, err)

	require.Equal(t, []string{"https://cdn.example.com/out.png"}, result.Images)
	require.Equal(t, 2, result.CreditsUsed)
	require.Equal(t, model.ModeSingle, result.Mode)
	require.Equal(t, 1, result.GeneratedCount)

	require.Equal(t, 0, accounts.balance(acc.ID))
	require.Equal(t, model.StatusCompleted, ledger.record(1).Status)
	require.EqualValues(t, 1, script.generationCalls.Load())
}

func TestGenerateAllAttemptsFailRefundsExactly(t *testing.T) {
	script := &upstreamScript{
		classifyAnswer: "A",
		generationBody: []string{"I cannot comply with this request."},
	}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierPro, 25)

	svc := newGenerationService(t, accounts, ledger, srv)
	_, err := svc.Generate(context.Background(), acc.ID, GenerationRequest{
		UserImage:      "aGVsbG8=",
		ClothingImages: []string{"YQ==", "Yg==", "Yw=="},
	})
	require.Error(t, err)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UPSTREAM_ERROR", apiErr.Code)
	require.Contains(t, apiErr.Message, "refunded")
	require.Contains(t, apiErr.Message, "20")

	// Exactly 3 upstream generation calls: 1 initial + 2 retries.
	require.EqualValues(t, 3, script.generationCalls.Load())

	// Charge and refund cancel exactly.
	require.Equal(t, 25, accounts.balance(acc.ID))

	rec := ledger.record(1)
	require.Equal(t, model.StatusFailed, rec.Status)
	require.Equal(t, model.ModeBatch, rec.Mode)
	require.Equal(t, 20, rec.CreditsUsed)
	require.NotEmpty(t, rec.ErrorMessage)
}

func TestGenerateRecoversOnRetry(t *testing.T) {
	script := &upstreamScript{
		classifyAnswer: "B",
		generationBody: []string{
			"sorry, only the color was changed",
			"![result](data:image/jpeg;base64,b2s=)",
		},
	}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierPlus, 10)

	svc := newGenerationService(t, accounts, ledger, srv)
	result, err := svc.Generate(context.Background(), acc.ID, singleRequest())
	require.NoError(t, err)

	require.EqualValues(t, 2, script.generationCalls.Load())
	require.Equal(t, []string{"data:image/jpeg;base64,b2s="}, result.Images)
	require.Equal(t, 8, accounts.balance(acc.ID))
	require.Equal(t, model.StatusCompleted, ledger.record(1).Status)
}

func TestGenerateInsufficientCreditsNoSideEffects(t *testing.T) {
	script := &upstreamScript{classifyAnswer: "A", generationBody: []string{"unused"}}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierFree, 1)

	svc := newGenerationService(t, accounts, ledger, srv)
	_, err := svc.Generate(context.Background(), acc.ID, singleRequest())

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INSUFFICIENT_CREDITS", apiErr.Code)
	require.NotContains(t, apiErr.Message, "refund")

	require.Equal(t, 1, accounts.balance(acc.ID))
	require.Zero(t, ledger.recordCount())
	require.Zero(t, script.generationCalls.Load())
}

func TestGenerateLimitExceededNoSideEffects(t *testing.T) {
	script := &upstreamScript{classifyAnswer: "A", generationBody: []string{"unused"}}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierFree, 100)

	svc := newGenerationService(t, accounts, ledger, srv)
	_, err := svc.Generate(context.Background(), acc.ID, GenerationRequest{
		UserImage:      "aGVsbG8=",
		ClothingImages: []string{"YQ==", "Yg=="},
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "GENERATION_LIMIT_EXCEEDED", apiErr.Code)
	require.Contains(t, apiErr.Message, "Free")
	require.Contains(t, apiErr.Message, "1")
	require.Contains(t, apiErr.Message, "2")

	require.Equal(t, 100, accounts.balance(acc.ID))
	require.Zero(t, ledger.recordCount())
}

func TestGenerateValidationNoSideEffects(t *testing.T) {
	script := &upstreamScript{classifyAnswer: "A", generationBody: []string{"unused"}}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierFree, 10)

	svc := newGenerationService(t, accounts, ledger, srv)

	_, err := svc.Generate(context.Background(), acc.ID, GenerationRequest{
		UserImage:      "",
		ClothingImages: []string{"YQ=="},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	_, err = svc.Generate(context.Background(), acc.ID, GenerationRequest{
		UserImage:      "aGVsbG8=",
		ClothingImages: []string{"YQ=="},
		GenerationType: "bulk",
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	require.Equal(t, 10, accounts.balance(acc.ID))
	require.Zero(t, ledger.recordCount())
}

func TestGenerateUnknownAccount(t *testing.T) {
	script := &upstreamScript{classifyAnswer: "A", generationBody: []string{"unused"}}
	srv := script.server(t)
	defer srv.Close()

	svc := newGenerationService(t, newMemAccountRepo(), newMemLedgerRepo(), srv)
	_, err := svc.Generate(context.Background(), 42, singleRequest())

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestGenerateRecordAppendFailureCompensatesDebit(t *testing.T) {
	script := &upstreamScript{classifyAnswer: "A", generationBody: []string{"unused"}}
	srv := script.server(t)
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	ledger.failCreateRecord = errors.New("disk full")
	acc := accounts.add(model.TierFree, 2)

	svc := newGenerationService(t, accounts, ledger, srv)
	_, err := svc.Generate(context.Background(), acc.ID, singleRequest())

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INTERNAL_ERROR", apiErr.Code)

	// The debit was compensated before returning.
	require.Equal(t, 2, accounts.balance(acc.ID))
	require.Zero(t, script.generationCalls.Load())
}

func TestGenerateClassifierOutageDoesNotBlockGeneration(t *testing.T) {
	// Classification calls fail; generation calls succeed.
	var generationCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ai.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if len(req.Messages) == 1 {
			http.Error(w, "classifier down", http.StatusBadGateway)
			return
		}
		generationCalls.Add(1)
		json.NewEncoder(w).Encode(chatReply("![result](https://cdn.example.com/out.png)"))
	}))
	defer srv.Close()

	accounts := newMemAccountRepo()
	ledger := newMemLedgerRepo()
	acc := accounts.add(model.TierFree, 2)

	svc := newGenerationService(t, accounts, ledger, srv)
	result, err := svc.Generate(context.Background(), acc.ID, singleRequest())
	require.NoError(t, err)
	require.Len(t, result.Images, 1)
	require.EqualValues(t, 1, generationCalls.Load())
}

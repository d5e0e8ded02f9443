package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vton-rest-api/internal/ai"
	"vton-rest-api/internal/model"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/tier"
	"vton-rest-api/pkg/apierror"
)

// GenerationRequest is the transient input for one try-on generation.
type GenerationRequest struct {
	UserImage      string   `json:"userImage"`
	ClothingImages []string `json:"clothingImages"`
	GenerationType string   `json:"generationType"`
}

// GenerationConfig holds the orchestrator settings, injected at
// construction time.
type GenerationConfig struct {
	MaxRetries  int // retries after the first attempt
	MaxTokens   int
	Temperature float64
}

// GenerationService drives the generation transaction: validate,
// reserve credits, classify, prompt, call the upstream with bounded
// retries, extract images, and reconcile the ledger on every exit path.
type GenerationService struct {
	accounts   repository.AccountRepository
	ledger     repository.LedgerRepository
	classifier *Classifier
	ai         *ai.Client
	cfg        GenerationConfig
}

// NewGenerationService creates a new generation service.
func NewGenerationService(
	accounts repository.AccountRepository,
	ledger repository.LedgerRepository,
	classifier *Classifier,
	client *ai.Client,
	cfg GenerationConfig,
) *GenerationService {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	return &GenerationService{
		accounts:   accounts,
		ledger:     ledger,
		classifier: classifier,
		ai:         client,
		cfg:        cfg,
	}
}

// Generate runs one full generation transaction for an account.
//
// Failure semantics: validation and pricing errors never touch the
// ledger; every error after the credit reservation triggers exactly one
// refund before the error is returned.
func (s *GenerationService) Generate(ctx context.Context, accountID int64, req GenerationRequest) (*model.GenerationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, apierror.InternalError("failed to load account")
	}

	garmentCount := len(req.ClothingImages)
	limits := tier.ForTier(account.Tier)
	if garmentCount > limits.MaxGarments {
		return nil, apierror.LimitExceeded(tier.DisplayName(account.Tier), limits.MaxGarments, garmentCount)
	}

	cost := tier.RequiredCredits(account.Tier, garmentCount)
	mode := model.ModeSingle
	if tier.IsBatch(account.Tier, garmentCount) {
		mode = model.ModeBatch
	}

	if account.Credits < cost {
		return nil, apierror.InsufficientCredits(cost, account.Credits)
	}

	// Reserve: the conditional decrement closes the race between the
	// balance check above and the debit, so two concurrent requests
	// cannot drive the balance negative.
	if _, err := s.accounts.AdjustCredits(ctx, accountID, -cost); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, apierror.InsufficientCredits(cost, account.Credits)
		}
		return nil, apierror.InternalError("failed to reserve credits")
	}

	record, err := s.ledger.CreateGenerationRecord(ctx, accountID, cost, garmentCount, mode)
	if err != nil {
		// Debit happened but the record append did not: compensate.
		s.refund(ctx, accountID, cost)
		log.Printf("[GenerationService] Failed to append generation record for account %d: %v", accountID, err)
		return nil, apierror.InternalError("failed to record generation")
	}

	log.Printf("[GenerationService] Generation started: account=%d garments=%d mode=%s cost=%d record=%d",
		accountID, garmentCount, mode, cost, record.ID)

	images, genErr := s.generateWithRetry(ctx, req)
	if genErr != nil {
		log.Printf("[GenerationService] Generation failed terminally for record %d: %v", record.ID, genErr)

		s.refund(ctx, accountID, cost)
		if err := s.ledger.SetGenerationStatus(ctx, record.ID, model.StatusFailed, genErr.Error()); err != nil {
			log.Printf("[GenerationService] LEDGER INTEGRITY: failed to mark record %d failed: %v", record.ID, err)
		}

		return nil, apierror.Upstream(fmt.Sprintf(
			"generation failed: %v. Your %d credits have been refunded.", genErr, cost))
	}

	if err := s.ledger.SetGenerationStatus(ctx, record.ID, model.StatusCompleted, ""); err != nil {
		log.Printf("[GenerationService] LEDGER INTEGRITY: failed to mark record %d completed: %v", record.ID, err)
	}

	log.Printf("[GenerationService] Generation succeeded: account=%d record=%d images=%d", accountID, record.ID, len(images))

	return &model.GenerationResult{
		Images:         images,
		CreditsUsed:    cost,
		Mode:           mode,
		GeneratedCount: len(images),
	}, nil
}

// generateWithRetry runs the bounded attempt loop: 1 + MaxRetries
// upstream calls at most. The category is detected once and reused
// across retries; attempt index and last failure travel as loop-local
// parameters so the orchestration is re-entrant per request.
func (s *GenerationService) generateWithRetry(ctx context.Context, req GenerationRequest) ([]string, error) {
	category := s.classifier.DetectCategory(ctx, req.ClothingImages[0])
	log.Printf("[GenerationService] Detected garment category: %s", category)

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		images, err := s.generateOnce(ctx, req, category, attempt, FailureReason(lastErr))
		if err == nil {
			return images, nil
		}

		lastErr = err
		log.Printf("[GenerationService] Attempt %d/%d failed: %v", attempt+1, s.cfg.MaxRetries+1, err)
	}

	return nil, lastErr
}

// generateOnce issues a single upstream call and extracts images from
// the reply.
func (s *GenerationService) generateOnce(ctx context.Context, req GenerationRequest, category model.GarmentCategory, attempt int, lastFailureReason string) ([]string, error) {
	userPrompt := BuildUserPrompt(category, len(req.ClothingImages), attempt, lastFailureReason)

	content := []ai.ContentPart{
		ai.TextPart(userPrompt),
		ai.ImagePart(req.UserImage),
	}
	for _, garment := range req.ClothingImages {
		content = append(content, ai.ImagePart(garment))
	}

	resp, err := s.ai.ChatCompletion(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: []ai.ContentPart{ai.TextPart(SystemPrompt)}},
			{Role: ai.RoleUser, Content: content},
		},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	reply := resp.FirstContent()
	if reply == "" {
		return nil, errors.New("upstream returned an empty reply")
	}

	images := ExtractImageURLs(reply)
	if len(images) == 0 {
		return nil, errors.New("upstream did not produce a compliant image")
	}

	return images, nil
}

// refund restores exactly the reserved cost. A failed refund is a
// ledger-integrity incident needing manual remediation, so it is
// logged with its own marker and not retried.
func (s *GenerationService) refund(ctx context.Context, accountID int64, cost int) {
	if _, err := s.accounts.AdjustCredits(ctx, accountID, cost); err != nil {
		log.Printf("[GenerationService] LEDGER INTEGRITY: refund of %d credits to account %d failed: %v", cost, accountID, err)
	}
}

// validateRequest checks the request shape before any side effect.
func validateRequest(req GenerationRequest) error {
	var details []apierror.FieldError
	if req.UserImage == "" {
		details = append(details, apierror.FieldError{Field: "userImage", Message: "a user photo is required"})
	}
	if len(req.ClothingImages) == 0 {
		details = append(details, apierror.FieldError{Field: "clothingImages", Message: "at least one garment image is required"})
	}
	for i, img := range req.ClothingImages {
		if img == "" {
			details = append(details, apierror.FieldError{Field: fmt.Sprintf("clothingImages[%d]", i), Message: "garment image must not be empty"})
		}
	}
	if req.GenerationType != "" && req.GenerationType != string(model.ModeSingle) && req.GenerationType != string(model.ModeBatch) {
		details = append(details, apierror.FieldError{Field: "generationType", Message: "must be single or batch"})
	}

	if len(details) > 0 {
		return apierror.ValidationError("invalid generation request", details...)
	}
	return nil
}

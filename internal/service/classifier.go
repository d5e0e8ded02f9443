package service

import (
	"context"
	"log"
	"strings"
	"time"

	"vton-rest-api/internal/ai"
	"vton-rest-api/internal/model"
)

// classificationPrompt constrains the model to a single-letter answer
// so the reply is cheap and easy to parse.
const classificationPrompt = `Analyze the garment/item in this image and answer with exactly one letter:

A - tops (t-shirts, shirts, vests, jackets, sweaters, coats)
B - bottoms (trousers, skirts, shorts, pants)
C - underwear (bras, briefs, bodysuits)
D - shoes (sneakers, heels, boots, sandals)
E - accessories (hats, bags, watches, glasses, jewelry)

Answer only: A or B or C or D or E`

var answerToCategory = map[string]model.GarmentCategory{
	"A": model.CategoryTops,
	"B": model.CategoryBottoms,
	"C": model.CategoryUnderwear,
	"D": model.CategoryShoes,
	"E": model.CategoryAccessories,
}

// Classifier detects the category of a garment reference image with a
// single low-temperature inference call.
type Classifier struct {
	ai          *ai.Client
	temperature float64
	timeout     time.Duration
}

// NewClassifier creates a new garment classifier.
func NewClassifier(client *ai.Client, temperature float64, timeout time.Duration) *Classifier {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{ai: client, temperature: temperature, timeout: timeout}
}

// DetectCategory classifies one garment image. It never returns an
// error: a misclassification only changes which task template is used,
// so any failure (network, non-2xx, empty or unparseable reply) falls
// back to the tops category and generation proceeds. One outbound call,
// no retry.
func (c *Classifier) DetectCategory(ctx context.Context, garmentImage string) model.GarmentCategory {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temp := c.temperature
	resp, err := c.ai.ChatCompletion(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{
				Role: ai.RoleUser,
				Content: []ai.ContentPart{
					ai.TextPart(classificationPrompt),
					ai.ImagePart(garmentImage),
				},
			},
		},
		Temperature: &temp,
	})
	if err != nil {
		log.Printf("[Classifier] Detection failed, defaulting to tops: %v", err)
		return model.CategoryTops
	}

	answer := extractAnswer(resp.FirstContent())
	category, ok := answerToCategory[answer]
	if !ok {
		log.Printf("[Classifier] Unrecognized answer %q, defaulting to tops", resp.FirstContent())
		return model.CategoryTops
	}

	return category
}

// extractAnswer pulls the answer letter out of the reply. Exact
// single-letter replies match directly; otherwise the first valid
// letter anywhere in the normalized text is used.
func extractAnswer(content string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(content))

	if _, ok := answerToCategory[trimmed]; ok {
		return trimmed
	}

	for _, r := range trimmed {
		if r >= 'A' && r <= 'E' {
			return string(r)
		}
	}
	return ""
}

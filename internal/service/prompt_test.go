package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vton-rest-api/internal/model"
)

func TestBuildUserPromptSingleGarment(t *testing.T) {
	prompt := BuildUserPrompt(model.CategoryTops, 1, 0, "")

	require.Contains(t, prompt, "Replace the person's top")
	require.Contains(t, prompt, "image 2")
	require.NotContains(t, prompt, "images 2 through")
	require.NotContains(t, prompt, "previous attempt was rejected")
}

func TestBuildUserPromptMultipleGarments(t *testing.T) {
	prompt := BuildUserPrompt(model.CategoryShoes, 3, 0, "")

	require.Contains(t, prompt, "Replace the person's shoes")
	require.Contains(t, prompt, "images 2 through 4")
}

func TestBuildUserPromptRetryCarriesFailureReason(t *testing.T) {
	prompt := BuildUserPrompt(model.CategoryBottoms, 1, 1, "only the color changed, not the silhouette")

	require.Contains(t, prompt, "attempt 2")
	require.Contains(t, prompt, "The previous attempt was rejected because: only the color changed, not the silhouette")
}

func TestBuildUserPromptFirstAttemptIgnoresReason(t *testing.T) {
	prompt := BuildUserPrompt(model.CategoryBottoms, 1, 0, "stale reason")
	require.NotContains(t, prompt, "stale reason")
}

func TestBuildUserPromptUnknownCategoryFallsBackToTops(t *testing.T) {
	prompt := BuildUserPrompt(model.GarmentCategory("hats"), 1, 0, "")
	require.Contains(t, prompt, "Replace the person's top")
}

func TestCategoryInstructionCoversAllCategories(t *testing.T) {
	for _, category := range []model.GarmentCategory{
		model.CategoryTops, model.CategoryBottoms, model.CategoryUnderwear,
		model.CategoryShoes, model.CategoryAccessories,
	} {
		require.NotEmpty(t, CategoryInstruction(category))
	}
}

func TestFailureReason(t *testing.T) {
	require.Empty(t, FailureReason(nil))
	require.Equal(t, "the original sleeves/pattern were retained",
		FailureReason(errors.New("output kept the sleeve shape")))
	require.Equal(t, "only the color changed, not the silhouette",
		FailureReason(errors.New("only color was adjusted")))
	require.Equal(t, "the output did not follow the replacement requirements",
		FailureReason(errors.New("upstream did not produce a compliant image")))
}

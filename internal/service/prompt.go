package service

import (
	"fmt"
	"strings"

	"vton-rest-api/internal/model"
)

// SystemPrompt is the fixed instruction block sent with every
// generation call. It pins the editing contract: full replacement of
// the original item, reconstruction of uncovered regions, and strict
// prohibition on keeping any trait of the original garment.
const SystemPrompt = `Image generation: enabled.

You are a professional virtual try-on (VTON) engine. Task: use the FIRST image as the base person photo and the SUBSEQUENT images as garment/accessory references, then perform item replacement with faithful material, color and detail reproduction.

### Absolute rules (in priority order)
1. **Silhouette replacement first (highest)**: the reference item's cut, silhouette and shape take precedence; the original item must be fully replaced by the target item's characteristics
2. **Region reconstruction**: remove the original item and plausibly rebuild any body regions it covered (skin texture, muscle lines, body contour)
3. **Preserve the person**: keep only the person's face, hair, body shape, pose and background; fully replace the specified garment/accessory
4. **Material and color fidelity**: color, material and pattern must exactly match the reference item
5. **Natural fit**: the replacement must drape naturally with the pose, respecting light direction, folds and cast shadows

### Strictly forbidden
- Never merely recolor or overlay a decal on the original item
- Never keep any trait or detail of the original item
- Never alter the person's face, hair, pose or background
- Never add patterns or logos absent from the reference image

### Core behavior
- Generate the replaced image directly; never ask questions
- Never enter conversation mode; process the provided images immediately
- No explanations, no questions, just the replacement result

### Self-check before output
- [ ] The replacement item's cut and shape match the reference exactly
- [ ] The original item is fully gone and covered regions look natural
- [ ] Color, material and pattern match the reference precisely
- [ ] Edges blend naturally with body, hair and other items
- [ ] Light direction and intensity match the base photo

### Output format
Output the replaced image directly, in one of these forms:
- ![result](data:image/jpeg;base64,...)
- ![result](https://...)
- or the bare value: data:image/jpeg;base64,...

Generate the image now, with no additional text.`

// categoryInstructions keys the per-request task phrasing off the
// detected garment category.
var categoryInstructions = map[model.GarmentCategory]string{
	model.CategoryTops:        "Replace the person's top with the garment from the reference image",
	model.CategoryBottoms:     "Replace the person's pants/skirt with the bottoms from the reference image",
	model.CategoryUnderwear:   "Replace the person's underwear with the underwear from the reference image",
	model.CategoryShoes:       "Replace the person's shoes with the shoes from the reference image",
	model.CategoryAccessories: "Add or replace the accessory from the reference image on the person",
}

// CategoryInstruction returns the category-specific task sentence.
func CategoryInstruction(category model.GarmentCategory) string {
	instruction, ok := categoryInstructions[category]
	if !ok {
		instruction = categoryInstructions[model.CategoryTops]
	}
	return instruction + ". Follow the reference image's style, color and cut exactly, ensure a natural fit, and keep the person's original pose and features."
}

// BuildUserPrompt composes the per-request task prompt. attempt is
// zero-based; on retries the previous failure reason is surfaced as a
// visible correction block so the next call steers away from it.
// Pure string composition, no I/O.
func BuildUserPrompt(category model.GarmentCategory, garmentCount, attempt int, lastFailureReason string) string {
	referenceScope := "image 2"
	if garmentCount > 1 {
		referenceScope = fmt.Sprintf("images 2 through %d (produce a replacement result for each item)", garmentCount+1)
	}

	var b strings.Builder
	b.WriteString(CategoryInstruction(category))
	b.WriteString("\n\n### Task\n")
	b.WriteString("- Base: the first person photo\n")
	fmt.Fprintf(&b, "- Reference item(s): %s\n", referenceScope)
	b.WriteString("- Silhouette first: replace strictly according to the reference's cut, shape and size\n")
	b.WriteString("- Replacement requirement: a **complete replacement** driven by the target item; changing only the color or keeping original traits is forbidden\n")
	b.WriteString("\n### Must do\n")
	b.WriteString("1. **Remove the original item**: erase every trace of the original item\n")
	b.WriteString("2. **Rebuild covered regions**: naturally reconstruct body regions the original item covered (skin texture, body contour)\n")
	b.WriteString("3. **Fit and lighting**: the replacement drapes naturally and follows the base photo's light direction and shadows\n")
	b.WriteString("4. **Detail fidelity**: color, material, pattern and texture exactly match the reference, with no added elements\n")
	b.WriteString("5. **Preserve the person**: face, hair, body shape, pose and background stay untouched\n")
	b.WriteString("\n### Strictly forbidden\n")
	b.WriteString("- Changing only the color or overlaying a decal on the original item\n")
	b.WriteString("- Keeping any trait or detail of the original item\n")
	b.WriteString("- Altering the person's face, hair, pose or background\n")
	b.WriteString("- Adding patterns or logos absent from the reference image\n")

	if attempt > 0 && lastFailureReason != "" {
		fmt.Fprintf(&b, "\n### Important (attempt %d)\nThe previous attempt was rejected because: %s. Regenerate strictly per the requirements and make sure the replacement is fully correct.\n", attempt+1, lastFailureReason)
	}

	b.WriteString("\nOutput only the final image (data:image/... or an https link) with no explanatory text.")

	return b.String()
}

// FailureReason derives a human-readable retry hint from the previous
// attempt's error. Best-effort string matching; a UX steering hint,
// not a verified diagnosis.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "sleeve"):
		return "the original sleeves/pattern were retained"
	case strings.Contains(message, "color"):
		return "only the color changed, not the silhouette"
	default:
		return "the output did not follow the replacement requirements"
	}
}

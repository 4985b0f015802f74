package cookbook

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/ladle/internal/domain"
)

// Descriptions are user-entered and sometimes imported with markup
var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup and decodes entities
func plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// MapSummary converts a stub DTO to a domain summary
func MapSummary(dto recipeStubDTO) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:           dto.identifier(),
		Name:         plainText(dto.Name),
		Description:  plainText(dto.Description),
		PrepTime:     dto.PrepTime,
		TotalTime:    dto.TotalTime,
		Yield:        int(dto.RecipeYield),
		Keywords:     dto.Keywords,
		DateModified: dto.DateModified,
	}
}

// MapSummaries converts stub DTOs, preserving server order
func MapSummaries(dtos []recipeStubDTO) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, MapSummary(d))
	}
	return out
}

// MapRecipe converts a full recipe DTO
func MapRecipe(dto recipeDTO) *domain.RecipeDetail {
	detail := &domain.RecipeDetail{
		RecipeSummary: MapSummary(dto.recipeStubDTO),
		Category:      dto.RecipeCategory,
		URL:           dto.URL,
		Ingredients:   cleanList(dto.RecipeIngredient),
		Tools:         cleanList(dto.Tool),
	}

	steps := make([]string, 0, len(dto.RecipeInstructions))
	for _, s := range dto.RecipeInstructions {
		steps = append(steps, string(s))
	}
	detail.Instructions = cleanList(steps)
	return detail
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := plainText(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

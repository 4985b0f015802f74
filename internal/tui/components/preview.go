package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

// Preview shows the recipe under the list cursor: thumbnail, name, times
// and description
type Preview struct {
	recipe *domain.RecipeSummary
	image  imagecache.Handle
	thumbs *ThumbnailCache

	width  int
	height int
}

// NewPreview creates a preview rendering images through thumbs
func NewPreview(thumbs *ThumbnailCache) Preview {
	return Preview{thumbs: thumbs}
}

// SetSize updates the component dimensions
func (p *Preview) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetRecipe sets the recipe and its image handle (zero if none)
func (p *Preview) SetRecipe(r *domain.RecipeSummary, image imagecache.Handle) {
	p.recipe = r
	p.image = image
}

// View renders the preview
func (p Preview) View() string {
	style := lipgloss.NewStyle().Padding(1, 2)
	frameW, frameH := style.GetFrameSize()
	innerW := p.width - frameW
	innerH := p.height - frameH

	if p.recipe == nil || innerW <= 0 {
		return style.Width(p.width).Height(p.height).Render(styles.DimStyle.Render("No recipe selected"))
	}

	var sections []string

	thumbRows := min(innerH/2, innerW/2)
	if thumbRows >= 4 {
		if thumb, ok := p.thumbs.Render(p.image, thumbRows*2, thumbRows); ok {
			sections = append(sections, thumb, "")
		}
	}

	sections = append(sections, styles.TitleStyle.Render(wordWrap(p.recipe.Name, innerW)))
	if meta := p.recipe.Meta(); meta != "" {
		sections = append(sections, styles.SubtitleStyle.Render(meta))
	}
	if kws := p.recipe.KeywordList(); len(kws) > 0 {
		sections = append(sections, styles.AccentStyle.Render(styles.Truncate(strings.Join(kws, " · "), innerW)))
	}
	if p.recipe.Description != "" {
		sections = append(sections, "", wordWrap(p.recipe.Description, innerW))
	}

	// Width and Height include the padding
	return style.Width(p.width).Height(p.height).MaxHeight(p.height).Render(strings.Join(sections, "\n"))
}

// wordWrap wraps text at word boundaries
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

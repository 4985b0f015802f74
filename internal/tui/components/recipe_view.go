package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

// UnconfiguredText is shown in place of a recipe without a credential
const UnconfiguredText = "Please configure API settings first"

// imageRows is the height of the picture above the recipe text
const imageRows = 10

// RecipeView renders one recipe as markdown in a scrollable viewport
type RecipeView struct {
	viewport     viewport.Model
	glamourStyle string
	thumbs       *ThumbnailCache

	result       detail.Result
	configured   bool
	image        imagecache.Handle
	spinnerFrame int

	width  int
	height int
}

// NewRecipeView creates a recipe view. glamourStyle is a glamour standard
// style name or "auto".
func NewRecipeView(glamourStyle string, thumbs *ThumbnailCache) RecipeView {
	return RecipeView{
		viewport:     viewport.New(0, 0),
		glamourStyle: glamourStyle,
		thumbs:       thumbs,
		configured:   true,
	}
}

// SetSize updates the component dimensions and re-renders
func (v *RecipeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.refresh()
}

// SetConfigured records whether a credential is present
func (v *RecipeView) SetConfigured(configured bool) {
	v.configured = configured
	v.refresh()
}

// SetResult shows a fetch outcome and scrolls back to the top
func (v *RecipeView) SetResult(result detail.Result) {
	v.result = result
	v.image = imagecache.Handle{}
	v.refresh()
	v.viewport.GotoTop()
}

// SetImage sets the full-size picture for the current recipe
func (v *RecipeView) SetImage(h imagecache.Handle) {
	v.image = h
	v.refresh()
}

// SetSpinnerFrame advances the loading indicator
func (v *RecipeView) SetSpinnerFrame(frame int) {
	v.spinnerFrame = frame
	if v.result.State == detail.StateLoading {
		v.refresh()
	}
}

// Result returns the outcome being shown
func (v RecipeView) Result() detail.Result {
	return v.result
}

// Update scrolls the viewport
func (v RecipeView) Update(msg tea.Msg) (RecipeView, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the component
func (v RecipeView) View() string {
	return v.viewport.View()
}

func (v *RecipeView) refresh() {
	v.viewport.SetContent(v.render())
}

func (v RecipeView) render() string {
	if !v.configured {
		return v.centered(styles.DimStyle.Render(UnconfiguredText))
	}

	switch v.result.State {
	case detail.StateLoading:
		return v.centered(RenderSpinner(v.spinnerFrame) + " " + styles.DimStyle.Render("Loading recipe..."))
	case detail.StateNotFound, detail.StateFailed:
		return v.centered(styles.ErrorStyle.Render(v.result.Message()))
	case detail.StateLoaded:
	default:
		return ""
	}

	body, err := RenderMarkdown(RecipeMarkdown(v.result.Recipe), v.glamourStyle, v.width)
	if err != nil {
		body = RecipeMarkdown(v.result.Recipe)
	}

	if thumb, ok := v.thumbs.Render(v.image, imageRows*2, imageRows); ok {
		return lipgloss.NewStyle().PaddingLeft(2).Render(thumb) + "\n" + body
	}
	return body
}

func (v RecipeView) centered(s string) string {
	return lipgloss.Place(max(v.width, 1), max(v.height, 1), lipgloss.Center, lipgloss.Center, s)
}

// RecipeMarkdown renders a recipe as markdown: title, times, servings,
// description, ingredients and numbered instructions
func RecipeMarkdown(r *domain.RecipeDetail) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Name)

	if meta := r.Meta(); meta != "" {
		b.WriteString(meta)
		b.WriteString("\n\n")
	}
	if r.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n\n", r.Category)
	}

	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n\n")
	}

	if len(r.Ingredients) > 0 {
		b.WriteString("## Ingredients\n\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&b, "- %s\n", ing)
		}
		b.WriteString("\n")
	}

	if len(r.Instructions) > 0 {
		b.WriteString("## Instructions\n\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}

	if len(r.Tools) > 0 {
		b.WriteString("## Tools\n\n")
		for _, tool := range r.Tools {
			fmt.Fprintf(&b, "- %s\n", tool)
		}
		b.WriteString("\n")
	}

	if r.URL != "" {
		fmt.Fprintf(&b, "Source: <%s>\n", r.URL)
	}
	return b.String()
}

// RenderMarkdown renders markdown for the terminal with a glamour style
func RenderMarkdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 20))}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

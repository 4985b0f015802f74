package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/search"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

// Layout constants for the recipe list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Padding inside the border
	HorizontalPadding = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2

	// Breadcrumb line at top, page indicator at bottom
	BreadcrumbLines = 1
	PagerLines      = 1

	// Extra safety margin for item width calculations
	ItemWidthMargin = 2
)

// RecipeList shows one page of recipes with an optional local filter
type RecipeList struct {
	recipes []domain.RecipeSummary
	hasImage func(id string) bool

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	breadcrumb string
	pager      string
	emptyText  string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filtered     []search.FilterResult
}

// NewRecipeList creates a new recipe list
func NewRecipeList() RecipeList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return RecipeList{
		filterInput: ti,
		emptyText:   "No recipes",
	}
}

// SetRecipes replaces the rows. The cursor is kept on the same recipe
// when it is still present.
func (l *RecipeList) SetRecipes(recipes []domain.RecipeSummary) {
	selectedID := ""
	if r, ok := l.Selected(); ok {
		selectedID = r.ID
	}

	l.recipes = recipes
	l.cursor = 0
	l.offset = 0
	if l.filterActive {
		l.applyFilter()
	}
	for i := 0; i < l.itemCount(); i++ {
		if l.recipeAt(i).ID == selectedID {
			l.cursor = i
			l.ensureVisible()
			break
		}
	}
}

// SetImageLookup sets how rows learn whether a thumbnail is available
func (l *RecipeList) SetImageLookup(fn func(id string) bool) {
	l.hasImage = fn
}

// SetSize updates the component dimensions
func (l *RecipeList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
}

// SetBreadcrumb sets the line shown above the rows
func (l *RecipeList) SetBreadcrumb(crumb string) {
	l.breadcrumb = crumb
}

// SetPager sets the line shown below the rows, e.g. "Page 2 of 3"
func (l *RecipeList) SetPager(pager string) {
	l.pager = pager
}

// SetEmptyText sets the text shown when there are no rows
func (l *RecipeList) SetEmptyText(text string) {
	l.emptyText = text
}

// recalcMaxVisible accounts for breadcrumb, pager and filter bar
func (l *RecipeList) recalcMaxVisible() {
	interiorHeight := l.height - BorderHeight
	l.maxVisible = interiorHeight - ScrollIndicatorLines - BreadcrumbLines - PagerLines
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

// SetFocused sets the focus state
func (l *RecipeList) SetFocused(focused bool) {
	l.focused = focused
}

// Cursor returns the current cursor position
func (l RecipeList) Cursor() int {
	return l.cursor
}

// Selected returns the recipe under the cursor
func (l RecipeList) Selected() (domain.RecipeSummary, bool) {
	count := l.itemCount()
	if count == 0 || l.cursor >= count {
		return domain.RecipeSummary{}, false
	}
	return l.recipeAt(l.cursor), true
}

// Len returns the number of rows shown (after filtering)
func (l RecipeList) Len() int {
	return l.itemCount()
}

func (l RecipeList) itemCount() int {
	if l.filtered != nil {
		return len(l.filtered)
	}
	return len(l.recipes)
}

func (l RecipeList) recipeAt(i int) domain.RecipeSummary {
	if l.filtered != nil {
		return l.filtered[i].Recipe
	}
	return l.recipes[i]
}

// ensureVisible ensures the cursor is visible
func (l *RecipeList) ensureVisible() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

// StartFilter activates the filter input
func (l *RecipeList) StartFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter results are shown
func (l RecipeList) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true while the filter input has focus
func (l RecipeList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all rows
func (l *RecipeList) ClearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.filtered = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
}

// applyFilter narrows the rows to the current query
func (l *RecipeList) applyFilter() {
	query := l.filterInput.Value()
	l.filterQuery = query

	if strings.TrimSpace(query) == "" {
		l.filtered = nil
		return
	}
	l.filtered = search.FilterLocal(query, l.recipes)
	if l.filtered == nil {
		l.filtered = []search.FilterResult{}
	}

	l.cursor = 0
	l.offset = 0
}

// Update handles key messages
func (l RecipeList) Update(msg tea.Msg) (RecipeList, tea.Cmd) {
	if !l.focused {
		return l, nil
	}

	// Typing into the filter
	if l.IsFilterTyping() {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				l.ClearFilter()
				return l, nil
			case "enter":
				// Accept filter, blur input to allow navigation
				l.filterInput.Blur()
				return l, nil
			case "backspace":
				if l.filterInput.Value() == "" {
					l.ClearFilter()
					return l, nil
				}
			}
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return l, cmd
	}

	count := l.itemCount()
	if count == 0 {
		return l, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "j", "down":
			if l.cursor < count-1 {
				l.cursor++
				l.ensureVisible()
			}
		case "k", "up":
			if l.cursor > 0 {
				l.cursor--
				l.ensureVisible()
			}
		case "g", "home":
			l.cursor = 0
			l.offset = 0
		case "G", "end":
			l.cursor = count - 1
			l.ensureVisible()
		}
	}
	return l, nil
}

// View renders the component
func (l RecipeList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(l.width - frameW).
		Height(l.height - frameH).
		Render(l.renderList())
}

func (l RecipeList) renderList() string {
	itemWidth := l.width - BorderWidth - HorizontalPadding - ItemWidthMargin

	// Breadcrumb is always the first line, even when empty
	breadcrumbLine := " "
	if l.breadcrumb != "" {
		breadcrumbLine = styles.AccentStyle.Render(styles.Truncate(l.breadcrumb, itemWidth))
	}
	pagerLine := " "
	if l.pager != "" {
		pagerLine = styles.DimStyle.Render(l.pager)
	}

	count := l.itemCount()
	if count == 0 {
		empty := l.emptyText
		if l.filterActive && l.filterQuery != "" {
			empty = "No matches"
		}
		content := breadcrumbLine + "\n \n" + styles.DimStyle.Render(empty) + "\n \n" + pagerLine
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.recipeAt(i), i == l.cursor, itemWidth))
	}

	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := breadcrumbLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer + "\n" + pagerLine
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

// renderRow renders one recipe: image marker, name, times
func (l RecipeList) renderRow(r domain.RecipeSummary, selected bool, width int) string {
	marker := styles.NoImageChar
	markerFg := styles.DimGray
	if l.hasImage != nil && l.hasImage(r.ID) {
		marker = styles.ImageChar
		markerFg = styles.Basil
	}

	meta := ""
	if t := r.FormattedTotalTime(); t != "" {
		meta = " " + t
	}
	name := styles.Truncate(r.Name, width-lipgloss.Width(meta)-4)
	dimGray := styles.DimGray

	parts := []styles.RowPart{
		{Text: marker, Foreground: &markerFg},
		{Text: " " + name},
		{Text: meta, Foreground: &dimGray},
	}
	return styles.RenderListRow(parts, selected, width)
}

func (l RecipeList) renderFilterBar() string {
	input := l.filterInput.View()
	if l.filterQuery == "" {
		return input
	}
	return input + styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.itemCount(), len(l.recipes)))
}

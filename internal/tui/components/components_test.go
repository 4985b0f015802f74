package components

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestRenderThumbnail_Dimensions(t *testing.T) {
	img, err := DecodeImage(solidPNG(t, 64, 32))
	if err != nil {
		t.Fatalf("DecodeImage returned error: %v", err)
	}

	out := RenderThumbnail(img, 12, 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("thumbnail has %d lines, want 4", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 12 {
			t.Fatalf("line %d width = %d, want 12", i, w)
		}
	}
	if !strings.Contains(out, halfBlock) {
		t.Fatal("thumbnail drew no pixels")
	}
}

func TestDecodeImage_RejectsGarbage(t *testing.T) {
	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Fatal("DecodeImage returned nil error for garbage")
	}
}

func TestThumbnailCache_RevokedHandle(t *testing.T) {
	registry := imagecache.NewRegistry()
	cache := NewThumbnailCache(registry)
	h := registry.Create(solidPNG(t, 8, 8), "image/png")

	if _, ok := cache.Render(h, 4, 2); !ok {
		t.Fatal("Render failed for a live handle")
	}

	registry.Revoke(h)
	if _, ok := cache.Render(h, 4, 2); ok {
		t.Fatal("Render succeeded for a revoked handle")
	}
	if n := cache.Len(); n != 0 {
		t.Fatalf("cached renderings = %d after revoke, want 0", n)
	}
	if _, ok := cache.Render(imagecache.Handle{}, 4, 2); ok {
		t.Fatal("Render succeeded for the zero handle")
	}
}

func TestThumbnailCache_PruneDropsFreedHandles(t *testing.T) {
	registry := imagecache.NewRegistry()
	cache := NewThumbnailCache(registry)
	kept := registry.Create(solidPNG(t, 8, 8), "image/png")
	freed := registry.Create(solidPNG(t, 8, 8), "image/png")

	cache.Render(kept, 4, 2)
	cache.Render(freed, 4, 2)
	cache.Render(freed, 6, 3)
	if n := cache.Len(); n != 3 {
		t.Fatalf("cached renderings = %d, want 3", n)
	}

	registry.Revoke(freed)
	cache.Prune()
	if n := cache.Len(); n != 1 {
		t.Fatalf("cached renderings after Prune = %d, want 1", n)
	}
	if _, ok := cache.Render(kept, 4, 2); !ok {
		t.Fatal("Render failed for the live handle")
	}
}

func recipes(names ...string) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, len(names))
	for i, n := range names {
		out[i] = domain.RecipeSummary{ID: strings.ToLower(n), Name: n}
	}
	return out
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRecipeList_FilterAndSelect(t *testing.T) {
	l := NewRecipeList()
	l.SetSize(40, 20)
	l.SetFocused(true)
	l.SetRecipes(recipes("Tomato Soup", "Lemon Tart", "Tomato Salad"))

	l.StartFilter()
	for _, r := range "salad" {
		l, _ = l.Update(keyPress(string(r)))
	}
	if l.Len() != 1 {
		t.Fatalf("filtered rows = %d, want 1", l.Len())
	}
	got, ok := l.Selected()
	if !ok || got.Name != "Tomato Salad" {
		t.Fatalf("Selected = %v, %v, want Tomato Salad", got.Name, ok)
	}

	l, _ = l.Update(keyPress("esc"))
	if l.IsFiltering() || l.Len() != 3 {
		t.Fatalf("after esc: filtering=%v rows=%d, want false 3", l.IsFiltering(), l.Len())
	}
}

func TestRecipeList_SetRecipesKeepsSelection(t *testing.T) {
	l := NewRecipeList()
	l.SetSize(40, 20)
	l.SetFocused(true)
	l.SetRecipes(recipes("A", "B", "C"))
	l, _ = l.Update(keyPress("down"))
	l, _ = l.Update(keyPress("down"))

	l.SetRecipes(recipes("C", "A"))
	got, _ := l.Selected()
	if got.Name != "C" {
		t.Fatalf("Selected = %q, want C", got.Name)
	}

	l.SetRecipes(recipes("X"))
	if l.Cursor() != 0 {
		t.Fatalf("Cursor = %d, want 0", l.Cursor())
	}
}

func TestRecipeList_EmptyText(t *testing.T) {
	l := NewRecipeList()
	l.SetSize(60, 12)
	l.SetEmptyText("No recipes found")
	if !strings.Contains(l.View(), "No recipes found") {
		t.Fatal("empty list does not show its empty text")
	}
}

func TestRecipeMarkdown(t *testing.T) {
	r := &domain.RecipeDetail{
		RecipeSummary: domain.RecipeSummary{
			ID:        "1",
			Name:      "Pancakes",
			PrepTime:  "PT15M",
			TotalTime: "PT1H30M",
			Yield:     4,
		},
		Ingredients:  []string{"Flour", "Milk"},
		Instructions: []string{"Mix", "Fry"},
	}

	md := RecipeMarkdown(r)
	for _, want := range []string{"# Pancakes", "Prep: 15m", "Total: 1h 30m", "Serves: 4", "- Flour", "1. Mix", "2. Fry"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if RecipeMarkdown(nil) != "" {
		t.Fatal("RecipeMarkdown(nil) is not empty")
	}
}

func TestRecipeView_States(t *testing.T) {
	v := NewRecipeView("notty", nil)
	v.SetSize(80, 20)

	v.SetConfigured(false)
	if !strings.Contains(v.View(), UnconfiguredText) {
		t.Fatal("unconfigured view does not ask for settings")
	}

	v.SetConfigured(true)
	v.SetResult(detail.Result{ID: "9", State: detail.StateNotFound})
	if !strings.Contains(v.View(), "Recipe not found") {
		t.Fatal("not found view missing its message")
	}

	v.SetResult(detail.Result{ID: "1", State: detail.StateLoaded, Recipe: &domain.RecipeDetail{
		RecipeSummary: domain.RecipeSummary{ID: "1", Name: "Pancakes", Yield: 2},
		Ingredients:   []string{"Flour"},
	}})
	if out := v.View(); !strings.Contains(out, "Serves: 2") || !strings.Contains(out, "Flour") {
		t.Fatalf("loaded view = %q", out)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		status  domain.ConnectionStatus
		version string
		want    string
	}{
		{domain.StatusConnected, "0.10.2", "v0.10.2"},
		{domain.StatusError, "", "Connection Error"},
		{domain.StatusDisconnected, "", "Not Connected"},
	}
	for _, tt := range tests {
		if got := StatusText(tt.status, tt.version); got != tt.want {
			t.Fatalf("StatusText(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestSettingsModal_Submit(t *testing.T) {
	m := NewSettingsModal()
	m.Show("https://cloud.example.com/apps/cookbook/", "")

	var submitted bool
	m, _, submitted = m.Update(keyPress("enter"))
	if submitted {
		t.Fatal("enter on the URL field submitted")
	}
	for _, r := range "tok" {
		m, _, _ = m.Update(keyPress(string(r)))
	}
	m, _, submitted = m.Update(keyPress("enter"))
	if !submitted {
		t.Fatal("enter on the token field did not submit")
	}

	url, token := m.Values()
	if url != "https://cloud.example.com/apps/cookbook" || token != "tok" {
		t.Fatalf("Values = %q, %q", url, token)
	}
}

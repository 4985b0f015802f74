package domain

import (
	"fmt"
	"strings"
)

// Credential is the (URL, token) pair that authenticates the client
type Credential struct {
	BaseURL string // Cookbook API base, e.g. https://cloud.example.com/apps/cookbook
	Token   string // Value placed after "Basic " in the Authorization header
}

// Configured returns true if both fields are set
func (c Credential) Configured() bool {
	return c.BaseURL != "" && c.Token != ""
}

// ConnectionStatus is the tri-state result of the last probe
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnected
	StatusError
)

// String returns a human-readable representation of the status
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "Not Connected"
	case StatusConnected:
		return "Connected"
	case StatusError:
		return "Connection Error"
	default:
		return "Unknown"
	}
}

// UnknownVersion is reported when the server omits cookbook_version
const UnknownVersion = "Unknown"

// RecipeSummary is the metadata-only view of a recipe used in lists
type RecipeSummary struct {
	ID           string // Server-assigned identifier
	Name         string // Display name
	Description  string // Plain-text description (may be empty)
	PrepTime     string // ISO-8601 duration, e.g. "PT0H15M0S"
	TotalTime    string // ISO-8601 duration
	Yield        int    // Servings (0 = unknown)
	Keywords     string // Comma-separated keywords
	DateModified string // Server timestamp, passed through untouched
}

// FormattedPrepTime returns the prep time as "1h 30m"
func (r RecipeSummary) FormattedPrepTime() string {
	return FormatDuration(r.PrepTime)
}

// FormattedTotalTime returns the total time as "1h 30m"
func (r RecipeSummary) FormattedTotalTime() string {
	return FormatDuration(r.TotalTime)
}

// KeywordList splits Keywords into trimmed, non-empty entries
func (r RecipeSummary) KeywordList() []string {
	if r.Keywords == "" {
		return nil
	}
	parts := strings.Split(r.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Meta returns the secondary line shown under a recipe name
func (r RecipeSummary) Meta() string {
	var parts []string
	if t := r.FormattedPrepTime(); t != "" {
		parts = append(parts, "Prep: "+t)
	}
	if t := r.FormattedTotalTime(); t != "" {
		parts = append(parts, "Total: "+t)
	}
	if r.Yield > 0 {
		parts = append(parts, fmt.Sprintf("Serves: %d", r.Yield))
	}
	return strings.Join(parts, "  ")
}

// RecipeDetail is a full recipe record
type RecipeDetail struct {
	RecipeSummary

	Category     string
	URL          string   // Source URL of the original recipe
	Ingredients  []string // Ordered as returned by the server
	Instructions []string // Ordered steps
	Tools        []string
}

// IsEmpty reports whether the record carries no identifying data
func (d *RecipeDetail) IsEmpty() bool {
	return d == nil || (d.ID == "" && d.Name == "")
}

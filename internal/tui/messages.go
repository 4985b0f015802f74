package tui

import (
	"github.com/mmcdole/ladle/internal/connection"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ConnectionStatusMsg carries a status change from the connection monitor
type ConnectionStatusMsg struct {
	Status  domain.ConnectionStatus
	Version string
}

// ProbeDoneMsg signals that a probe, and any fetch it triggered, finished
type ProbeDoneMsg struct {
	Result connection.ProbeResult
}

// RecipesLoadedMsg follows every directory fetch. Err is nil on success.
type RecipesLoadedMsg struct {
	Err error
}

// RefreshDoneMsg signals that a user-requested reload finished
type RefreshDoneMsg struct {
	Err error
}

// ImageSource tells which owner announced an image
type ImageSource int

const (
	ImageSourceList ImageSource = iota
	ImageSourceDetail
)

// ImageReadyMsg signals that a recipe image handle became available
type ImageReadyMsg struct {
	Source    ImageSource
	RecipeID  string
	HandleURL string
}

// DetailLoadedMsg carries the outcome of a recipe detail fetch
type DetailLoadedMsg struct {
	Result detail.Result
}

// SearchResultsMsg signals that server search results are ready
type SearchResultsMsg struct {
	Query       string
	Results     []domain.RecipeSummary
	Suggestions []string // Local names close to Query when Results is empty
	Err         error
}

// SettingsSavedMsg signals the credential pair was persisted and re-probed
type SettingsSavedMsg struct {
	Result connection.ProbeResult
	Err    error
}

// LoggedOutMsg signals the stored credential was cleared
type LoggedOutMsg struct {
	Err error
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

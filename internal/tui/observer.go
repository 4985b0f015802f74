package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/ladle/internal/domain"
)

// ChannelObserver adapts session and image notifications to a channel for
// Bubble Tea.
type ChannelObserver struct {
	ch     chan<- tea.Msg
	source ImageSource
}

// NewChannelObserver creates a channel-based observer. source tags the
// images it forwards.
func NewChannelObserver(ch chan<- tea.Msg, source ImageSource) *ChannelObserver {
	return &ChannelObserver{ch: ch, source: source}
}

// OnStatus forwards a connection status change
func (o *ChannelObserver) OnStatus(status domain.ConnectionStatus, version string) {
	o.send(ConnectionStatusMsg{Status: status, Version: version})
}

// OnRecipes forwards the outcome of a directory fetch
func (o *ChannelObserver) OnRecipes(err error) {
	o.send(RecipesLoadedMsg{Err: err})
}

// OnImage forwards a newly available image handle
func (o *ChannelObserver) OnImage(recipeID, handleURL string) {
	o.send(ImageReadyMsg{Source: o.source, RecipeID: recipeID, HandleURL: handleURL})
}

// send is non-blocking if the channel is full
func (o *ChannelObserver) send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	default:
	}
}

// ListenCmd waits for the next forwarded notification
func ListenCmd(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

// StatusText is the header's connection label: "v{version}" when
// connected, otherwise the status name
func StatusText(status domain.ConnectionStatus, version string) string {
	if status == domain.StatusConnected {
		return "v" + version
	}
	return status.String()
}

// Header is the one-line title bar
type Header struct {
	title   string
	status  domain.ConnectionStatus
	version string
	width   int
}

// NewHeader creates a header with the application title
func NewHeader(title string) Header {
	return Header{title: title}
}

// SetStatus updates the connection label
func (h *Header) SetStatus(status domain.ConnectionStatus, version string) {
	h.status = status
	h.version = version
}

// SetWidth updates the component width
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header
func (h Header) View() string {
	left := styles.HeaderStyle.Render(h.title)

	var statusStyle lipgloss.Style
	switch h.status {
	case domain.StatusConnected:
		statusStyle = styles.StatusConnectedStyle
	case domain.StatusError:
		statusStyle = styles.StatusErrorStyle
	default:
		statusStyle = styles.StatusIdleStyle
	}
	right := statusStyle.Render(StatusText(h.status, h.version))

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	fill := lipgloss.NewStyle().Background(styles.SlateDark).Render(strings.Repeat(" ", gap))
	return left + fill + right
}

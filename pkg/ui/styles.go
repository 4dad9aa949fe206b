package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light and dark terminals. Light values are tuned for
// contrast on white backgrounds.
var (
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorPrimary     = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo        = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess     = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger      = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Styles groups the pre-computed row styles so View does not rebuild them
// per frame.
type Styles struct {
	Header     lipgloss.Style
	HeaderRule lipgloss.Style
	Item       lipgloss.Style
	Cursor     lipgloss.Style
	Dragging   lipgloss.Style
	Selected   lipgloss.Style
	Sticky     lipgloss.Style
	Count      lipgloss.Style
	Status     lipgloss.Style
	StatusErr  lipgloss.Style
	Empty      lipgloss.Style
}

// DefaultStyles returns the styles used by the list view.
func DefaultStyles() Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		HeaderRule: lipgloss.NewStyle().Foreground(ColorMuted),
		Item:       lipgloss.NewStyle().Foreground(ColorText),
		Cursor:     lipgloss.NewStyle().Background(ColorBgHighlight).Bold(true),
		Dragging:   lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
		Selected:   lipgloss.NewStyle().Foreground(ColorInfo),
		Sticky:     lipgloss.NewStyle().Foreground(ColorPrimary).Background(ColorBgSubtle).Bold(true),
		Count:      lipgloss.NewStyle().Foreground(ColorMuted),
		Status:     lipgloss.NewStyle().Foreground(ColorSuccess),
		StatusErr:  lipgloss.NewStyle().Foreground(ColorDanger).Bold(true),
		Empty:      lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),
	}
}

package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorPurple  = lipgloss.AdaptiveColor{Dark: "#9F7AEA", Light: "#6B46C1"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// ColorAccent is the header and selection color. Use changes it.
var ColorAccent = ColorBlue

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle lipgloss.Style

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle lipgloss.Style

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

var (
	DimmedStyle  = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	OverdueStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	DueDateStyle = lipgloss.NewStyle().Foreground(ColorGray)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	BadgeStyle   = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorRed).Bold(true).Padding(0, 1)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite).MarginBottom(1)
)

func init() {
	Use("default")
}

// Use switches the accent palette. Unknown names select the default.
func Use(name string) {
	switch name {
	case "purple":
		ColorAccent = ColorPurple
	case "green":
		ColorAccent = ColorGreen
	default:
		ColorAccent = ColorBlue
	}

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorAccent).
		Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(ColorAccent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorAccent)
}

// StatusStyle returns a color-coded style for a work item status.
func StatusStyle(status model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status.Lane() {
	case model.StatusTodo:
		return base.Foreground(ColorBlue)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusClientChecking:
		return base.Foreground(ColorMagenta)
	case model.StatusCompleted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorYellow)
	}
}

// AlertStyle returns the border style of an on-screen alert.
func AlertStyle(level int) lipgloss.Style {
	colors := []lipgloss.AdaptiveColor{ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorRed}
	c := ColorBlue
	if level >= 0 && level < len(colors) {
		c = colors[level]
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1)
}

// LaneStyle frames one board column.
func LaneStyle(width int, focused bool) lipgloss.Style {
	border := ColorBorder
	if focused {
		border = ColorAccent
	}
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

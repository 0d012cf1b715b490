package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/notify"
	"github.com/nhle/worktrack/internal/theme"
)

// maxAlerts is how many alerts are drawn at once; older ones wait.
const maxAlerts = 3

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title on the left and
// badges on the right.
func (l Layout) RenderHeader(title string, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	rightRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(right)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		rightRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderAlerts stacks the newest alerts, right-aligned.
func (l Layout) RenderAlerts(alerts []notify.Alert) string {
	if len(alerts) == 0 {
		return ""
	}
	if len(alerts) > maxAlerts {
		alerts = alerts[len(alerts)-maxAlerts:]
	}

	width := l.Width / 3
	if width < 30 {
		width = 30
	}

	boxes := make([]string, 0, len(alerts))
	for _, a := range alerts {
		body := lipgloss.NewStyle().Bold(true).Render(a.Title)
		if a.Message != "" {
			body += "\n" + a.Message
		}
		boxes = append(boxes, theme.AlertStyle(int(a.Level)).Width(width).Render(body))
	}

	return lipgloss.PlaceHorizontal(l.Width, lipgloss.Right, strings.Join(boxes, "\n"))
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar. Alerts, when present, are
// drawn above the status bar and take space from the content.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	alerts string,
	statusBar string,
) string {
	if alerts != "" {
		lines := strings.Split(content, "\n")
		keep := l.ContentHeight() - lipgloss.Height(alerts)
		if keep < 0 {
			keep = 0
		}
		if len(lines) > keep {
			lines = lines[:keep]
		}
		content = lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), alerts)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

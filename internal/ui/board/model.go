// Package board draws work items as one column per status lane.
package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/theme"
	"github.com/nhle/worktrack/internal/ui/itemlist"
	"github.com/nhle/worktrack/internal/view"
)

// Model is the board view. The focused lane and row move with the arrow
// keys; the selected item follows its id across refreshes.
type Model struct {
	keys   *keys.KeyMap
	lanes  [][]itemlist.Item
	titles []string
	lane   int
	rows   []int
	width  int
	height int
}

// New creates an empty board.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetLanes replaces the board content.
func (m *Model) SetLanes(lanes []view.Lane, names itemlist.Namer, now time.Time) {
	current, hadCurrent := m.SelectedID()

	m.lanes = make([][]itemlist.Item, len(lanes))
	m.titles = make([]string, len(lanes))
	if len(m.rows) != len(lanes) {
		m.rows = make([]int, len(lanes))
	}
	for i, l := range lanes {
		m.titles[i] = fmt.Sprintf("%s (%d)", l.Status.Label(), len(l.Items))
		m.lanes[i] = make([]itemlist.Item, len(l.Items))
		for j, w := range l.Items {
			m.lanes[i][j] = itemlist.Item{
				WorkItem: w,
				Project:  names.ProjectName(w.ProjectID),
				Service:  names.ServiceName(w.ServiceID),
				Assignee: names.AssigneeLabel(w.AssignedTo),
				Now:      now,
			}
			if hadCurrent && w.ID == current {
				m.lane, m.rows[i] = i, j
			}
		}
		if m.rows[i] >= len(l.Items) {
			m.rows[i] = max(len(l.Items)-1, 0)
		}
	}
	if m.lane >= len(lanes) {
		m.lane = 0
	}
}

// SelectedID returns the id of the focused item.
func (m Model) SelectedID() (string, bool) {
	if m.lane >= len(m.lanes) {
		return "", false
	}
	items := m.lanes[m.lane]
	row := m.rows[m.lane]
	if row >= len(items) {
		return "", false
	}
	return items[row].WorkItem.ID, true
}

// Update handles navigation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(m.lanes) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Left):
		if m.lane > 0 {
			m.lane--
		}
	case key.Matches(km, m.keys.Right):
		if m.lane < len(m.lanes)-1 {
			m.lane++
		}
	case key.Matches(km, m.keys.Up):
		if m.rows[m.lane] > 0 {
			m.rows[m.lane]--
		}
	case key.Matches(km, m.keys.Down):
		if m.rows[m.lane] < len(m.lanes[m.lane])-1 {
			m.rows[m.lane]++
		}
	case key.Matches(km, m.keys.Select):
		if id, ok := m.SelectedID(); ok {
			return m, func() tea.Msg { return itemlist.SelectedMsg{ID: id} }
		}
	}
	return m, nil
}

// View renders the lanes side by side.
func (m Model) View() string {
	if len(m.lanes) == 0 {
		return ""
	}

	colWidth := m.width/len(m.lanes) - 4
	if colWidth < 16 {
		colWidth = 16
	}
	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}

	cols := make([]string, len(m.lanes))
	for i, items := range m.lanes {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.titles[i]))
		b.WriteString("\n")

		start := 0
		if m.rows[i] >= visible {
			start = m.rows[i] - visible + 1
		}
		for j := start; j < len(items) && j < start+visible; j++ {
			line := itemlist.RenderLine(items[j], i == m.lane && j == m.rows[i])
			b.WriteString(lipgloss.NewStyle().MaxWidth(colWidth).Render(line))
			b.WriteString("\n")
		}
		if len(items) == 0 {
			b.WriteString(theme.HelpStyle.Render("empty"))
		}

		cols[i] = theme.LaneStyle(colWidth, i == m.lane).
			Height(m.height - 2).
			Render(b.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

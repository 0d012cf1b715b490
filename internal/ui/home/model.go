// Package home renders the dashboard: badge counts, the personal work queue
// and a preview of items assigned to the signed-in user.
package home

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
	"github.com/nhle/worktrack/internal/ui/itemlist"
	"github.com/nhle/worktrack/internal/view"
)

// QueueMsg asks the parent to change the work queue selection.
type QueueMsg struct {
	Tab model.WorkTab
	Sub model.WorkSubfilter
}

var subfilters = []model.WorkSubfilter{
	model.WorkToday,
	model.WorkOverdue,
	model.WorkNext,
	model.WorkUnscheduled,
}

func subLabel(s model.WorkSubfilter) string {
	switch s {
	case model.WorkOverdue:
		return "Overdue"
	case model.WorkNext:
		return "Next"
	case model.WorkUnscheduled:
		return "Unscheduled"
	}
	return "Today"
}

// Model is the dashboard.
type Model struct {
	keys     *keys.KeyMap
	badges   view.Badges
	queue    []itemlist.Item
	assigned []itemlist.Item
	tab      model.WorkTab
	sub      model.WorkSubfilter
	cursor   int
	width    int
	height   int
}

// New creates an empty dashboard.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		tab:    model.WorkTabTodo,
		sub:    model.WorkToday,
		width:  width,
		height: height,
	}
}

// SetData replaces the dashboard content.
func (m *Model) SetData(p view.Projection, vs model.ViewState, names itemlist.Namer, now time.Time) {
	m.badges = p.Badges
	m.tab, m.sub = vs.WorkTab, vs.WorkSub
	m.queue = toItems(p.Queue, names, now)
	m.assigned = toItems(p.Assigned, names, now)
	if m.cursor >= len(m.queue) {
		m.cursor = max(len(m.queue)-1, 0)
	}
}

func toItems(items []model.WorkItem, names itemlist.Namer, now time.Time) []itemlist.Item {
	out := make([]itemlist.Item, len(items))
	for i, w := range items {
		out[i] = itemlist.Item{
			WorkItem: w,
			Project:  names.ProjectName(w.ProjectID),
			Service:  names.ServiceName(w.ServiceID),
			Assignee: names.AssigneeLabel(w.AssignedTo),
			Now:      now,
		}
	}
	return out
}

// SelectedID returns the work item under the cursor.
func (m Model) SelectedID() (string, bool) {
	if m.cursor >= len(m.queue) {
		return "", false
	}
	return m.queue[m.cursor].WorkItem.ID, true
}

// Update handles dashboard keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, m.keys.Down):
		if m.cursor < len(m.queue)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.CycleTab):
		tab := model.WorkTabDone
		if m.tab == model.WorkTabDone {
			tab = model.WorkTabTodo
		}
		m.cursor = 0
		return m, queue(tab, m.sub)
	case key.Matches(km, m.keys.CycleQuick):
		if m.tab != model.WorkTabTodo {
			return m, nil
		}
		next := model.WorkToday
		for i, s := range subfilters {
			if s == m.sub {
				next = subfilters[(i+1)%len(subfilters)]
			}
		}
		m.cursor = 0
		return m, queue(m.tab, next)
	case key.Matches(km, m.keys.Select):
		if id, ok := m.SelectedID(); ok {
			return m, func() tea.Msg { return itemlist.SelectedMsg{ID: id} }
		}
	}
	return m, nil
}

func queue(tab model.WorkTab, sub model.WorkSubfilter) tea.Cmd {
	return func() tea.Msg { return QueueMsg{Tab: tab, Sub: sub} }
}

// View renders the dashboard.
func (m Model) View() string {
	b := m.badges
	stat := func(label string, n int) string {
		return theme.BadgeStyle.Render(fmt.Sprintf("%s %d", label, n))
	}
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Today", b.Today), " ",
		stat("Upcoming", b.Upcoming), " ",
		stat("In progress", b.InProgress), " ",
		stat("Overdue", b.Overdue), " ",
		stat("Done", b.Completed), " ",
		theme.HelpStyle.Render(fmt.Sprintf("%d%% complete", b.CompletionRate)),
	)

	var q strings.Builder
	q.WriteString(m.renderTabs())
	q.WriteString("\n\n")
	if len(m.queue) == 0 {
		q.WriteString(theme.HelpStyle.Render("Nothing here."))
	}
	for i, it := range m.queue {
		q.WriteString(itemlist.RenderLine(it, i == m.cursor))
		q.WriteString("\n")
	}

	var a strings.Builder
	a.WriteString(theme.TitleStyle.Render("Assigned to me"))
	a.WriteString("\n")
	if len(m.assigned) == 0 {
		a.WriteString(theme.HelpStyle.Render("No open assignments."))
	}
	for _, it := range m.assigned {
		a.WriteString(itemlist.RenderLine(it, false))
		a.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			theme.TitleStyle.Render("Home"),
			stats,
			"",
			q.String(),
			a.String(),
		),
	)
}

func (m Model) renderTabs() string {
	tab := func(label string, on bool) string {
		if on {
			return theme.SelectedItemStyle.Render(label)
		}
		return theme.HelpStyle.Render(label)
	}
	parts := []string{
		tab("My Work", m.tab == model.WorkTabTodo),
		tab("Done", m.tab == model.WorkTabDone),
	}
	if m.tab == model.WorkTabTodo {
		parts = append(parts, theme.HelpStyle.Render("|"))
		for _, s := range subfilters {
			parts = append(parts, tab(subLabel(s), s == m.sub))
		}
	}
	return strings.Join(parts, " ")
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

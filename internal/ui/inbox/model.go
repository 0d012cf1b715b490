// Package inbox renders notifications and assigned work in one list.
package inbox

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

// FilterMsg asks the parent to switch the inbox filter.
type FilterMsg struct {
	Filter model.InboxFilter
}

// MarkReadMsg asks the parent to mark a notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the parent to mark every notification read.
type MarkAllReadMsg struct{}

// DismissMsg asks the parent to dismiss a notification.
type DismissMsg struct {
	ID string
}

var filters = []model.InboxFilter{
	model.InboxAll,
	model.InboxDeadlines,
	model.InboxAssigned,
	model.InboxUnread,
}

// Model is the inbox view.
type Model struct {
	keys    *keys.KeyMap
	entries []view.InboxEntry
	counts  view.InboxCounts
	filter  model.InboxFilter
	cursor  int
	width   int
	height  int
}

// New creates an empty inbox.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, filter: model.InboxAll, width: width, height: height}
}

// SetEntries replaces the inbox rows, keeping the cursor on the same entry.
func (m *Model) SetEntries(entries []view.InboxEntry, counts view.InboxCounts, filter model.InboxFilter) {
	var current string
	if m.cursor < len(m.entries) {
		current = m.entries[m.cursor].ID()
	}
	m.entries, m.counts, m.filter = entries, counts, filter

	m.cursor = min(m.cursor, max(len(entries)-1, 0))
	for i, e := range entries {
		if e.ID() == current {
			m.cursor = i
			break
		}
	}
}

func (m Model) selected() (view.InboxEntry, bool) {
	if m.cursor >= len(m.entries) {
		return view.InboxEntry{}, false
	}
	return m.entries[m.cursor], true
}

func nextFilter(f model.InboxFilter) model.InboxFilter {
	for i, x := range filters {
		if x == f {
			return filters[(i+1)%len(filters)]
		}
	}
	return model.InboxAll
}

// Update handles inbox keys.
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
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.CycleTab):
		next := nextFilter(m.filter)
		return m, func() tea.Msg { return FilterMsg{Filter: next} }
	case key.Matches(km, m.keys.MarkAllRead):
		return m, func() tea.Msg { return MarkAllReadMsg{} }
	case key.Matches(km, m.keys.MarkRead):
		if e, ok := m.selected(); ok && e.Notification != nil && !e.Read {
			id := e.Notification.ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }
		}
	case key.Matches(km, m.keys.Dismiss):
		if e, ok := m.selected(); ok && e.Notification != nil {
			id := e.Notification.ID
			return m, func() tea.Msg { return DismissMsg{ID: id} }
		}
	case key.Matches(km, m.keys.Select):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, open(e)
	}
	return m, nil
}

// open jumps to the entry's work item, marking a notification read on the
// way.
func open(e view.InboxEntry) tea.Cmd {
	var cmds []tea.Cmd
	itemID := ""
	if e.WorkItem != nil {
		itemID = e.WorkItem.ID
	}
	if n := e.Notification; n != nil {
		itemID = n.WorkItemID
		if !n.Read {
			id := n.ID
			cmds = append(cmds, func() tea.Msg { return MarkReadMsg{ID: id} })
		}
	}
	if itemID != "" {
		cmds = append(cmds, func() tea.Msg { return itemlist.SelectedMsg{ID: itemID} })
	}
	return tea.Batch(cmds...)
}

// View renders the filter tabs and entries.
func (m Model) View() string {
	var b strings.Builder

	tabs := []struct {
		f model.InboxFilter
		n int
	}{
		{model.InboxAll, m.counts.All},
		{model.InboxDeadlines, m.counts.Deadlines},
		{model.InboxAssigned, m.counts.Assigned},
		{model.InboxUnread, m.counts.Unread},
	}
	var rendered []string
	for _, t := range tabs {
		label := fmt.Sprintf(" %s %s ", strings.ToUpper(string(t.f[:1]))+string(t.f[1:]), view.Label(t.n))
		if t.f == m.filter {
			rendered = append(rendered, theme.HeaderStyle.Render(label))
		} else {
			rendered = append(rendered, theme.HelpStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(theme.HelpStyle.Render("Nothing here. You're all caught up."))
	}
	for i, e := range m.entries {
		line := renderEntry(e)
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func renderEntry(e view.InboxEntry) string {
	marker := " "
	if !e.Read {
		marker = theme.OverdueStyle.Render("•")
	}
	when := theme.DueDateStyle.Render(relativeTime(e.Timestamp))

	if n := e.Notification; n != nil {
		title := n.Title
		if n.Urgent {
			title = theme.OverdueStyle.Render(title)
		}
		return fmt.Sprintf("%s %s  %s  %s", marker, title, n.Message, when)
	}
	w := e.WorkItem
	return fmt.Sprintf("%s %s %s  %s",
		marker, theme.StatusStyle(w.Status).Render(w.Status.Label()), w.Title, when)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// SetSize updates the inbox dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

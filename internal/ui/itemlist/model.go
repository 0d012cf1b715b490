package itemlist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
)

// SelectedMsg is sent when a user opens a work item.
type SelectedMsg struct {
	ID string
}

// Namer resolves the display names of an item's references.
type Namer interface {
	ProjectName(id string) string
	ServiceName(id string) string
	AssigneeLabel(a model.Assignment) string
}

// Model is a scrollable list of work items.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	empty  string
	width  int
	height int
}

// New creates a new work item list.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		empty:  "No tasks found.\n\nPress n to create one.",
		width:  width,
		height: height,
	}
}

// SetTitle changes the list heading.
func (m *Model) SetTitle(title string) {
	m.list.Title = title
	m.list.Styles.Title = theme.HeaderStyle
}

// SetEmptyText changes the text shown when there is nothing to list.
func (m *Model) SetEmptyText(text string) {
	m.empty = text
}

// SetItems replaces the listed items, keeping the cursor on the same item
// when it is still present.
func (m *Model) SetItems(items []model.WorkItem, names Namer, now time.Time) tea.Cmd {
	current, hadCurrent := m.SelectedID()

	out := make([]list.Item, len(items))
	cursor := -1
	for i, w := range items {
		out[i] = Item{
			WorkItem: w,
			Project:  names.ProjectName(w.ProjectID),
			Service:  names.ServiceName(w.ServiceID),
			Assignee: names.AssigneeLabel(w.AssignedTo),
			Now:      now,
		}
		if hadCurrent && w.ID == current {
			cursor = i
		}
	}

	cmd := m.list.SetItems(out)
	if cursor >= 0 {
		m.list.Select(cursor)
	}
	return cmd
}

// SelectedID returns the id of the item under the cursor.
func (m Model) SelectedID() (string, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return "", false
	}
	return it.WorkItem.ID, true
}

// Update handles messages for the list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Select) {
		id, ok := m.SelectedID()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedMsg{ID: id} }
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(m.empty)
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

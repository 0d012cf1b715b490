package detail

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
)

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// ActionMsg asks the parent to act on the shown item.
type ActionMsg struct {
	Action Action
	ID     string

	// Index is the checklist line for ActionChecklist.
	Index int
}

// Action is something the detail view can request.
type Action int

const (
	ActionEdit Action = iota
	ActionDelete
	ActionToggleComplete
	ActionChecklist
	ActionMoveLeft
	ActionMoveRight
)

// Names are the resolved display names of the item's references.
type Names struct {
	Project  string
	Service  string
	Assignee string
	Owner    string
}

// Model is the work item detail view.
type Model struct {
	item     *model.WorkItem
	names    Names
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// ItemID returns the id of the shown item.
func (m Model) ItemID() string {
	if m.item == nil {
		return ""
	}
	return m.item.ID
}

// SetItem shows w. Scroll position is kept when the same item is refreshed.
func (m *Model) SetItem(w model.WorkItem, names Names) {
	same := m.item != nil && m.item.ID == w.ID
	m.item = &w
	m.names = names
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.viewport.GotoTop()
	}
}

// Clear removes the shown item, for example after it was deleted.
func (m *Model) Clear() {
	m.item = nil
	m.viewport.SetContent("")
}

func (m Model) action(a Action, index int) tea.Cmd {
	msg := ActionMsg{Action: a, ID: m.item.ID, Index: index}
	return func() tea.Msg { return msg }
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.item == nil {
			return m, nil
		}

		switch {
		case key.Matches(km, m.keys.Edit):
			return m, m.action(ActionEdit, 0)
		case key.Matches(km, m.keys.Delete):
			return m, m.action(ActionDelete, 0)
		case key.Matches(km, m.keys.Complete):
			return m, m.action(ActionToggleComplete, 0)
		case key.Matches(km, m.keys.MoveLeft):
			return m, m.action(ActionMoveLeft, 0)
		case key.Matches(km, m.keys.MoveRight):
			return m, m.action(ActionMoveRight, 0)
		}

		if n, err := strconv.Atoi(km.String()); err == nil && n >= 1 && n <= len(m.item.Checklist) {
			return m, m.action(ActionChecklist, n-1)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Task no longer exists")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	w := m.item
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(w.Title))

	statusBadge := theme.StatusStyle(w.Status).Render(w.Status.Label())
	priBadge := theme.PriorityStyle(w.Priority).Render(priorityName(w.Priority))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", priBadge), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value != "" {
			sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
		}
	}

	row("Project", m.names.Project)
	row("Service", m.names.Service)
	row("Assigned", m.names.Assignee)
	row("Owner", m.names.Owner)
	if w.DueDate != nil {
		row("Due", w.DueDate.Local().Format("2006-01-02 15:04"))
	}
	if len(w.Tags) > 0 {
		row("Tags", strings.Join(w.Tags, ", "))
	}
	if !w.CreatedAt.IsZero() {
		row("Created", w.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "", separator, "")

	sections = append(sections, theme.TitleStyle.Render("Description"))
	body := w.Description
	if body == "" {
		body = theme.HelpStyle.Render("No description")
	}
	sections = append(sections, body)

	if len(w.Checklist) > 0 {
		done, total := w.ChecklistProgress()
		sections = append(sections, "", separator, "",
			theme.TitleStyle.Render(fmt.Sprintf("Checklist (%d/%d)", done, total)))
		for i, c := range w.Checklist {
			box := "[ ]"
			text := c.Text
			if c.Completed {
				box = "[x]"
				text = theme.DimmedStyle.Render(text)
			}
			sections = append(sections, fmt.Sprintf("%d %s %s", i+1, box, text))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.item != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// priorityName returns a human-readable name for the priority.
func priorityName(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "High"
	case model.PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

package itemlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
)

// Item wraps a model.WorkItem with the display names it needs so it can be
// used in a bubbles/list.
type Item struct {
	WorkItem model.WorkItem
	Project  string
	Service  string
	Assignee string
	Now      time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.WorkItem.Title }

// Title returns the item title for the list.
func (i Item) Title() string { return i.WorkItem.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	parts := []string{
		i.Project + " / " + i.Service,
		i.WorkItem.Status.Label(),
		i.Assignee,
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering work items.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, RenderLine(it, index == m.Index()))
}

// RenderLine draws one work item the way lists and board lanes show it.
func RenderLine(it Item, selected bool) string {
	wi := it.WorkItem

	prefix := "○"
	if wi.IsCompleted() {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(wi.Status).Render(wi.Status.Label())
	priBadge := theme.PriorityStyle(wi.Priority).Render(priorityLabel(wi.Priority))

	dueDateStr := ""
	if wi.DueDate != nil {
		dueDateStr = theme.DueDateStyle.Render(" " + wi.DueDate.Local().Format("Jan 02"))
	}

	overdueStr := ""
	if wi.IsOverdue(it.Now) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	checklist := ""
	if done, total := wi.ChecklistProgress(); total > 0 {
		checklist = theme.DueDateStyle.Render(fmt.Sprintf(" [%d/%d]", done, total))
	}

	assignee := ""
	if it.Assignee != "" {
		assignee = theme.DueDateStyle.Render(" @" + it.Assignee)
	}

	line := fmt.Sprintf(
		"%s %s %s %s%s%s%s%s",
		prefix, statusBadge, priBadge, wi.Title,
		checklist, assignee, dueDateStr, overdueStr,
	)

	if wi.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityLow:
		return "!"
	default:
		return "!!"
	}
}

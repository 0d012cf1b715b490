package model

import "time"

// Status is the board lane of a work item.
type Status string

const (
	StatusTodo           Status = "todo"
	StatusInProgress     Status = "inProgress"
	StatusClientChecking Status = "clientChecking"
	StatusCompleted      Status = "completed"
)

// Lanes is the fixed left-to-right order of the status board.
var Lanes = []Status{StatusTodo, StatusInProgress, StatusClientChecking, StatusCompleted}

// Effective treats an absent status as todo.
func (s Status) Effective() Status {
	if s == "" {
		return StatusTodo
	}
	return s
}

// Lane returns the board lane an item with this status is drawn in.
// Unrecognized statuses fall into the todo lane.
func (s Status) Lane() Status {
	switch s {
	case StatusInProgress, StatusClientChecking, StatusCompleted:
		return s
	}
	return StatusTodo
}

// Label is the human-readable lane title.
func (s Status) Label() string {
	switch s.Lane() {
	case StatusInProgress:
		return "In Progress"
	case StatusClientChecking:
		return "Client Checking"
	case StatusCompleted:
		return "Completed"
	}
	return "To Do"
}

// Priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for display, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	}
	return 1
}

// ChecklistEntry is one line of a work item checklist.
type ChecklistEntry struct {
	Text      string `mapstructure:"text" json:"text"`
	Completed bool   `mapstructure:"completed" json:"completed"`
}

// WorkItem is a unit of tracked work.
type WorkItem struct {
	ID          string           `mapstructure:"id"`
	Title       string           `mapstructure:"title"`
	Description string           `mapstructure:"description"`
	DueDate     *time.Time       `mapstructure:"dueDate"`
	Priority    Priority         `mapstructure:"priority"`
	Status      Status           `mapstructure:"status"`
	ProjectID   string           `mapstructure:"projectId"`
	ServiceID   string           `mapstructure:"serviceId"`
	AssignedTo  Assignment       `mapstructure:"assignedTo"`
	Watchers    []string         `mapstructure:"watchers"`
	Checklist   []ChecklistEntry `mapstructure:"checklist"`
	Tags        []string         `mapstructure:"tags"`
	OwnerUserID string           `mapstructure:"userId"`
	CreatedAt   time.Time        `mapstructure:"createdAt"`
	UpdatedAt   time.Time        `mapstructure:"updatedAt"`
}

// IsCompleted reports whether the item sits in the completed lane.
func (w WorkItem) IsCompleted() bool {
	return w.Status == StatusCompleted
}

// IsOverdue reports whether an incomplete item was due before the start of
// now's calendar day.
func (w WorkItem) IsOverdue(now time.Time) bool {
	if w.DueDate == nil || w.IsCompleted() {
		return false
	}
	return w.DueDate.Before(StartOfDay(now))
}

// ChecklistProgress returns the completed and total checklist counts.
func (w WorkItem) ChecklistProgress() (done, total int) {
	for _, c := range w.Checklist {
		if c.Completed {
			done++
		}
	}
	return done, len(w.Checklist)
}

// Fields encodes the writable fields for the document store. Server
// timestamps and the id are not included.
func (w WorkItem) Fields() map[string]any {
	checklist := make([]map[string]any, 0, len(w.Checklist))
	for _, c := range w.Checklist {
		checklist = append(checklist, map[string]any{"text": c.Text, "completed": c.Completed})
	}
	var due any
	if w.DueDate != nil {
		due = FormatTime(*w.DueDate)
	}
	priority := w.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return map[string]any{
		"title":       w.Title,
		"description": w.Description,
		"dueDate":     due,
		"priority":    string(priority),
		"status":      string(w.Status.Effective()),
		"projectId":   w.ProjectID,
		"serviceId":   w.ServiceID,
		"assignedTo":  w.AssignedTo.Encode(),
		"watchers":    nonNil(w.Watchers),
		"checklist":   checklist,
		"tags":        nonNil(w.Tags),
		"userId":      w.OwnerUserID,
	}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

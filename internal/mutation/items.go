package mutation

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/notify"
)

// Draft is the user-editable content of a work item.
type Draft struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority
	ProjectID   string
	ServiceID   string
	AssignedTo  model.Assignment
	Watchers    []string
	Checklist   []model.ChecklistEntry
	Tags        []string
}

// DraftOf returns the editable content of an existing item.
func DraftOf(w model.WorkItem) Draft {
	return Draft{
		Title:       w.Title,
		Description: w.Description,
		DueDate:     w.DueDate,
		Priority:    w.Priority,
		ProjectID:   w.ProjectID,
		ServiceID:   w.ServiceID,
		AssignedTo:  w.AssignedTo,
		Watchers:    w.Watchers,
		Checklist:   w.Checklist,
		Tags:        w.Tags,
	}
}

// Validate checks the fields every work item needs.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return ErrTitleRequired
	case d.ProjectID == "":
		return ErrProjectRequired
	case d.ServiceID == "":
		return ErrServiceRequired
	}
	return nil
}

func (d Draft) item(id string) model.WorkItem {
	return model.WorkItem{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		DueDate:     d.DueDate,
		Priority:    d.Priority,
		ProjectID:   d.ProjectID,
		ServiceID:   d.ServiceID,
		AssignedTo:  d.AssignedTo,
		Watchers:    d.Watchers,
		Checklist:   d.Checklist,
		Tags:        d.Tags,
	}
}

// CreateWorkItem creates an item owned by actor in the todo lane. Every
// assignee other than the actor is notified once the write succeeds.
func (c *Coordinator) CreateWorkItem(actor Actor, d Draft) (tea.Cmd, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("creating work item: %w", err)
	}

	id := c.newID()
	w := d.item(id)
	w.OwnerUserID = actor.UserID
	w.Status = model.StatusTodo

	recipients := notify.NewlyAssigned(model.Unassigned(), w.AssignedTo, actor.UserID, c.cache.UserIDs())
	notes := notify.AssignmentNotifications(notify.AssignmentEvent{
		Item:       w,
		ActorEmail: actor.Email,
		Recipients: recipients,
		Created:    true,
	}, c.clock(), c.newID)

	fields := w.Fields()
	return c.write(OpCreate, model.CollectionWorkItems, id, func(ctx context.Context) error {
		_, err := c.writer.Create(ctx, model.CollectionWorkItems, id, fields)
		return err
	}, func(msg *WriteResultMsg) { msg.Notifications = notes }), nil
}

// UpdateWorkItem rewrites an item's editable content. Users newly added to
// the assignment, other than the actor, are notified once the write
// succeeds. Status and owner are left untouched.
func (c *Coordinator) UpdateWorkItem(actor Actor, id string, d Draft) (tea.Cmd, error) {
	prev, ok := c.cache.WorkItem(id)
	if !ok {
		return nil, fmt.Errorf("updating %s: %w", id, ErrUnknownRecord)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("updating %s: %w", id, err)
	}

	w := d.item(id)
	recipients := notify.NewlyAssigned(prev.AssignedTo, w.AssignedTo, actor.UserID, c.cache.UserIDs())
	notes := notify.AssignmentNotifications(notify.AssignmentEvent{
		Item:       w,
		ActorEmail: actor.Email,
		Recipients: recipients,
	}, c.clock(), c.newID)

	fields := w.Fields()
	delete(fields, "status")
	delete(fields, "userId")

	return c.write(OpUpdate, model.CollectionWorkItems, id, func(ctx context.Context) error {
		return c.writer.Update(ctx, model.CollectionWorkItems, id, fields)
	}, func(msg *WriteResultMsg) { msg.Notifications = notes }), nil
}

// ToggleChecklistEntry flips one checklist line of an item.
func (c *Coordinator) ToggleChecklistEntry(id string, index int) (tea.Cmd, error) {
	w, ok := c.cache.WorkItem(id)
	if !ok {
		return nil, fmt.Errorf("toggling checklist of %s: %w", id, ErrUnknownRecord)
	}
	if index < 0 || index >= len(w.Checklist) {
		return nil, fmt.Errorf("toggling checklist of %s: no entry %d", id, index)
	}

	checklist := make([]map[string]any, len(w.Checklist))
	for i, e := range w.Checklist {
		done := e.Completed
		if i == index {
			done = !done
		}
		checklist[i] = map[string]any{"text": e.Text, "completed": done}
	}
	fields := map[string]any{"checklist": checklist}
	return c.write(OpUpdate, model.CollectionWorkItems, id, func(ctx context.Context) error {
		return c.writer.Update(ctx, model.CollectionWorkItems, id, fields)
	}, nil), nil
}

// DeleteWorkItem removes an item.
func (c *Coordinator) DeleteWorkItem(id string) tea.Cmd {
	return c.write(OpDelete, model.CollectionWorkItems, id, func(ctx context.Context) error {
		return c.writer.Delete(ctx, model.CollectionWorkItems, id)
	}, nil)
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

// Write operations reported in WriteResultMsg.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// WriteResultMsg is a tea.Msg reporting a durable notification write.
type WriteResultMsg struct {
	Op  string
	ID  string
	Err error
}

// expectation is a write issued but not yet seen in a snapshot.
type expectation struct {
	present bool
	note    model.Notification
}

// Notifier writes durable notifications and mirrors them to the alert
// queue. It is used from the application's update loop only.
type Notifier struct {
	writer  docstore.Writer
	alerts  *Alerts
	policy  Policy
	timeout time.Duration
	newID   func() string

	expected map[string]expectation
}

// NewNotifier creates a Notifier writing through writer.
func NewNotifier(writer docstore.Writer, alerts *Alerts, policy Policy, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		writer:   writer,
		alerts:   alerts,
		policy:   policy,
		timeout:  timeout,
		newID:    func() string { return uuid.New().String() },
		expected: map[string]expectation{},
	}
}

// NewID returns an opaque notification id.
func (n *Notifier) NewID() string {
	return n.newID()
}

// Reset forgets pending expectations.
func (n *Notifier) Reset() {
	n.expected = map[string]expectation{}
}

// Emit writes each notification and mirrors it to the alert queue.
func (n *Notifier) Emit(notes ...model.Notification) tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2*len(notes))
	for _, note := range notes {
		cmds = append(cmds, n.alert(note), n.create(note))
	}
	return tea.Batch(cmds...)
}

func (n *Notifier) alert(note model.Notification) tea.Cmd {
	level := LevelInfo
	switch {
	case note.Type == model.NotificationDeadline && note.Urgent:
		level = LevelUrgent
	case note.Type == model.NotificationDeadline:
		level = LevelWarning
	}
	return n.alerts.Push(note.Title, note.Message, level)
}

// Reconcile plans deadline notifications for recipient against the cached
// notifications overlaid with writes still in flight, records the new
// expectations and returns the commands performing the writes.
func (n *Notifier) Reconcile(items []model.WorkItem, cached []model.Notification, recipient string, now time.Time) tea.Cmd {
	n.Observe(cached)

	plan := n.policy.Plan(items, n.overlay(cached), recipient, now)
	if plan.Empty() {
		return nil
	}

	var cmds []tea.Cmd
	for _, note := range plan.Create {
		n.expected[note.ID] = expectation{present: true, note: note}
		cmds = append(cmds, n.alert(note), n.create(note))
	}
	for _, note := range plan.Update {
		n.expected[note.ID] = expectation{present: true, note: note}
		cmds = append(cmds, n.alert(note), n.update(note.ID, map[string]any{
			"title":   note.Title,
			"message": note.Message,
			"urgent":  note.Urgent,
			"read":    false,
		}))
	}
	for _, id := range plan.Remove {
		n.expected[id] = expectation{}
		cmds = append(cmds, n.delete(id))
	}
	return tea.Batch(cmds...)
}

// Observe drops expectations a snapshot has confirmed.
func (n *Notifier) Observe(cached []model.Notification) {
	seen := make(map[string]model.Notification, len(cached))
	for _, c := range cached {
		seen[c.ID] = c
	}
	for id, exp := range n.expected {
		got, ok := seen[id]
		switch {
		case exp.present && ok && got.Urgent == exp.note.Urgent:
			delete(n.expected, id)
		case !exp.present && !ok:
			delete(n.expected, id)
		}
	}
}

// Resolve handles a write result. A failed write drops its expectation so
// the next reconciliation retries it.
func (n *Notifier) Resolve(msg WriteResultMsg) {
	if msg.Err == nil {
		return
	}
	log.Printf("notify: %s %s failed: %v", msg.Op, msg.ID, msg.Err)
	delete(n.expected, msg.ID)
}

// Pending reports whether a write for id awaits confirmation.
func (n *Notifier) Pending(id string) bool {
	_, ok := n.expected[id]
	return ok
}

func (n *Notifier) overlay(cached []model.Notification) []model.Notification {
	if len(n.expected) == 0 {
		return cached
	}
	out := make([]model.Notification, 0, len(cached)+len(n.expected))
	for _, c := range cached {
		if _, ok := n.expected[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	for _, exp := range n.expected {
		if exp.present {
			out = append(out, exp.note)
		}
	}
	return out
}

// MarkRead marks one notification as read.
func (n *Notifier) MarkRead(id string) tea.Cmd {
	return n.update(id, map[string]any{"read": true})
}

// MarkAllRead marks every unread notification of recipient as read.
func (n *Notifier) MarkAllRead(cached []model.Notification, recipient string) tea.Cmd {
	var cmds []tea.Cmd
	for _, c := range cached {
		if c.RecipientID == recipient && !c.Read {
			cmds = append(cmds, n.MarkRead(c.ID))
		}
	}
	return tea.Batch(cmds...)
}

// Dismiss hides a notification. Deadline notifications are flagged rather
// than deleted so reconciliation does not recreate them.
func (n *Notifier) Dismiss(note model.Notification) tea.Cmd {
	if note.Type == model.NotificationDeadline {
		return n.update(note.ID, map[string]any{"dismissed": true, "read": true})
	}
	return n.delete(note.ID)
}

func (n *Notifier) create(note model.Notification) tea.Cmd {
	writer, timeout := n.writer, n.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_, err := writer.Create(ctx, model.CollectionNotifications, note.ID, note.Fields())
		if errors.Is(err, docstore.ErrAlreadyExists) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("creating notification %s: %w", note.ID, err)
		}
		return WriteResultMsg{Op: OpCreate, ID: note.ID, Err: err}
	}
}

func (n *Notifier) update(id string, fields map[string]any) tea.Cmd {
	writer, timeout := n.writer, n.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := writer.Update(ctx, model.CollectionNotifications, id, fields)
		if err != nil {
			err = fmt.Errorf("updating notification %s: %w", id, err)
		}
		return WriteResultMsg{Op: OpUpdate, ID: id, Err: err}
	}
}

func (n *Notifier) delete(id string) tea.Cmd {
	writer, timeout := n.writer, n.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := writer.Delete(ctx, model.CollectionNotifications, id)
		if errors.Is(err, docstore.ErrNotFound) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("deleting notification %s: %w", id, err)
		}
		return WriteResultMsg{Op: OpDelete, ID: id, Err: err}
	}
}

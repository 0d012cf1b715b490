// Package mutation applies user edits to the local cache immediately and
// performs the matching remote writes in the background.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/worktrack/internal/cache"
	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrProjectRequired = errors.New("project is required")
	ErrServiceRequired = errors.New("service is required")
	ErrNameRequired    = errors.New("name is required")
	ErrUnknownStatus   = errors.New("unknown status")
	ErrUnknownRecord   = errors.New("record not in cache")
)

// Write operations reported in WriteResultMsg.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpStatus = "status"
)

// WriteResultMsg is a tea.Msg reporting a remote write.
type WriteResultMsg struct {
	Op         string
	Collection string
	ID         string

	// Status is the value a status write tried to store.
	Status model.Status

	Err error

	// Notifications are to be emitted once the write has succeeded.
	Notifications []model.Notification
}

// Actor is the signed-in user performing edits.
type Actor struct {
	UserID string
	Email  string
}

// Coordinator performs optimistic edits. It must be used from the
// application's update loop only.
type Coordinator struct {
	cache   *cache.Cache
	writer  docstore.Writer
	timeout time.Duration
	clock   func() time.Time
	newID   func() string

	// pending holds the speculative status per work item awaiting its
	// write. A newer edit replaces the older one.
	pending map[string]model.Status
}

// New creates a Coordinator editing c and writing through w.
func New(c *cache.Cache, w docstore.Writer, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Coordinator{
		cache:   c,
		writer:  w,
		timeout: timeout,
		clock:   time.Now,
		newID:   func() string { return uuid.New().String() },
		pending: map[string]model.Status{},
	}
}

// Pending returns the speculative status of an item awaiting its write.
func (c *Coordinator) Pending(id string) (model.Status, bool) {
	s, ok := c.pending[id]
	return s, ok
}

// Reset forgets pending edits.
func (c *Coordinator) Reset() {
	c.pending = map[string]model.Status{}
}

func validStatus(s model.Status) bool {
	for _, l := range model.Lanes {
		if s == l {
			return true
		}
	}
	return false
}

// MoveLane moves an item to another board lane. The cache changes at once;
// the returned command performs the remote write.
func (c *Coordinator) MoveLane(id string, status model.Status) (tea.Cmd, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("moving %s: %w %q", id, ErrUnknownStatus, status)
	}
	if !c.cache.SetWorkItemStatus(id, status) {
		return nil, fmt.Errorf("moving %s: %w", id, ErrUnknownRecord)
	}
	c.pending[id] = status

	fields := map[string]any{"status": string(status)}
	return c.write(OpStatus, model.CollectionWorkItems, id, func(ctx context.Context) error {
		return c.writer.Update(ctx, model.CollectionWorkItems, id, fields)
	}, func(msg *WriteResultMsg) { msg.Status = status }), nil
}

// ToggleComplete flips an item between completed and todo.
func (c *Coordinator) ToggleComplete(id string) (tea.Cmd, error) {
	w, ok := c.cache.WorkItem(id)
	if !ok {
		return nil, fmt.Errorf("toggling %s: %w", id, ErrUnknownRecord)
	}
	next := model.StatusCompleted
	if w.IsCompleted() {
		next = model.StatusTodo
	}
	return c.MoveLane(id, next)
}

// Resolve settles a write result. A failed write is returned as an error
// for the user; the cache keeps the speculative value until the next
// snapshot replaces it.
func (c *Coordinator) Resolve(msg WriteResultMsg) error {
	if msg.Op == OpStatus {
		if s, ok := c.pending[msg.ID]; ok && s == msg.Status {
			delete(c.pending, msg.ID)
		}
	}
	if msg.Err != nil {
		return msg.Err
	}
	return nil
}

// write wraps a remote call in a command with its own timeout.
func (c *Coordinator) write(op, collection, id string, call func(context.Context) error, decorate func(*WriteResultMsg)) tea.Cmd {
	timeout := c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg := WriteResultMsg{Op: op, Collection: collection, ID: id}
		if decorate != nil {
			decorate(&msg)
		}
		if err := call(ctx); err != nil {
			msg.Err = fmt.Errorf("%s %s %s: %w", op, strings.TrimSuffix(collection, "s"), id, err)
			msg.Notifications = nil
		}
		return msg
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/cache"
	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/identity"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/mutation"
	"github.com/nhle/worktrack/internal/notify"
	"github.com/nhle/worktrack/internal/sync"
	"github.com/nhle/worktrack/internal/view"
)

// deadlineInterval is how often deadlines are re-evaluated while nothing
// changes, so that items drift into the notification window.
const deadlineInterval = time.Minute

// userRecordMsg reports the outcome of ensuring the signed-in user's record.
type userRecordMsg struct {
	created bool
	err     error
}

// deadlineTickMsg triggers a periodic deadline pass. gen ties it to the
// session that scheduled it.
type deadlineTickMsg struct {
	gen int
}

// State is the single owner of a signed-in session: the cache, the
// subscriptions feeding it, pending writes, alerts and the current
// projection. It is driven from the Bubble Tea update loop only.
type State struct {
	store   docstore.Store
	manager *sync.Manager
	timeout time.Duration
	clock   func() time.Time

	cache    *cache.Cache
	alerts   *notify.Alerts
	notifier *notify.Notifier
	coord    *mutation.Coordinator

	session *identity.Session
	gen     int
	view    model.ViewState
	proj    view.Projection
	lastErr string

	// waiting is set while a WaitForNext command is outstanding. The
	// command outlives a sign-out, so it is never issued twice.
	waiting bool
}

// NewState wires the engine around store. Snapshots arrive through manager.
func NewState(store docstore.Store, manager *sync.Manager, cfg *model.AppConfig) *State {
	c := cache.New()
	alerts := notify.NewAlerts(cfg.Notify.AlertTTL())
	timeout := cfg.Sync.WriteTimeout()
	return &State{
		store:    store,
		manager:  manager,
		timeout:  timeout,
		clock:    time.Now,
		cache:    c,
		alerts:   alerts,
		notifier: notify.NewNotifier(store, alerts, notify.PolicyFromConfig(cfg.Notify), timeout),
		coord:    mutation.New(c, store, timeout),
		view:     model.DefaultViewState(),
	}
}

// Session returns the signed-in session, if any.
func (s *State) Session() (identity.Session, bool) {
	if s.session == nil {
		return identity.Session{}, false
	}
	return *s.session, true
}

func (s *State) actor() mutation.Actor {
	if s.session == nil {
		return mutation.Actor{}
	}
	return mutation.Actor{UserID: s.session.UserID, Email: s.session.Email}
}

// Queries returns the subscriptions a session for actor opens.
func Queries(actor string) []docstore.Query {
	newest := &docstore.Order{Field: docstore.FieldCreatedAt, Desc: true}
	return []docstore.Query{
		{Collection: model.CollectionWorkItems, OrderBy: newest},
		{Collection: model.CollectionProjects, OrderBy: newest},
		{Collection: model.CollectionServices, OrderBy: newest},
		{Collection: model.CollectionUsers, OrderBy: newest},
		{
			Collection: model.CollectionNotifications,
			Where:      []docstore.Filter{{Field: "recipientUid", Value: actor}},
			OrderBy:    &docstore.Order{Field: "timestamp", Desc: true},
		},
	}
}

// Start begins a session: it ensures the user record exists and subscribes
// to every collection. A running session is stopped first.
func (s *State) Start(sess identity.Session) tea.Cmd {
	if s.session != nil {
		s.Stop()
	}
	s.session = &sess
	s.gen++
	s.view = model.DefaultViewState()
	s.lastErr = ""
	s.reproject()

	for _, q := range Queries(sess.UserID) {
		if _, err := s.manager.Subscribe(q); err != nil {
			s.lastErr = fmt.Sprintf("subscribing to %s: %v", q.Collection, err)
			log.Printf("app: %s", s.lastErr)
		}
	}

	store, timeout := s.store, s.timeout
	ensure := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		created, err := identity.EnsureUserRecord(ctx, store, sess)
		return userRecordMsg{created: created, err: err}
	}
	return tea.Batch(ensure, s.listen(), s.scheduleDeadlines())
}

// Stop ends the session. Every subscription is detached before the cache is
// cleared, so a snapshot delivered late is discarded.
func (s *State) Stop() {
	s.manager.UnsubscribeAll()
	s.cache.Reset()
	s.alerts.Clear()
	s.notifier.Reset()
	s.coord.Reset()
	s.session = nil
	s.gen++
	s.proj = view.Projection{}
	s.lastErr = ""
}

// Shutdown stops the session and every subscription for good.
func (s *State) Shutdown() {
	s.Stop()
	s.manager.Close()
}

func (s *State) listen() tea.Cmd {
	if s.waiting {
		return nil
	}
	s.waiting = true
	return s.manager.WaitForNext()
}

func (s *State) scheduleDeadlines() tea.Cmd {
	gen := s.gen
	return tea.Tick(deadlineInterval, func(time.Time) tea.Msg {
		return deadlineTickMsg{gen: gen}
	})
}

// Update handles engine messages. It reports false for messages it does not
// own.
func (s *State) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sync.SnapshotMsg:
		s.waiting = false
		return tea.Batch(s.listen(), s.applySnapshot(msg)), true

	case sync.SubscriptionErrorMsg:
		s.waiting = false
		cmds := []tea.Cmd{s.listen()}
		if s.session != nil && s.manager.Active(msg.SubscriptionID) {
			s.lastErr = fmt.Sprintf("%s unavailable: %v", msg.Collection, msg.Err)
			log.Printf("app: subscription %d failed: %v", msg.SubscriptionID, msg.Err)
			cmds = append(cmds, s.alerts.Push("Sync Error", s.lastErr, notify.LevelError))
		}
		return tea.Batch(cmds...), true

	case mutation.WriteResultMsg:
		return s.resolveWrite(msg), true

	case mutation.CascadeResultMsg:
		return s.resolveCascade(msg), true

	case notify.WriteResultMsg:
		s.notifier.Resolve(msg)
		if msg.Err != nil {
			log.Printf("app: notification %s %s: %v", msg.Op, msg.ID, msg.Err)
		}
		s.manager.Refresh(model.CollectionNotifications)
		return nil, true

	case notify.AlertExpiredMsg:
		s.alerts.Expire(msg.ID)
		return nil, true

	case userRecordMsg:
		if msg.err != nil {
			s.lastErr = msg.err.Error()
			log.Printf("app: %v", msg.err)
			return nil, true
		}
		if msg.created {
			s.manager.Refresh(model.CollectionUsers)
		}
		return nil, true

	case deadlineTickMsg:
		if msg.gen != s.gen || s.session == nil {
			return nil, true
		}
		cmd := s.reconcile()
		s.reproject()
		return tea.Batch(cmd, s.scheduleDeadlines()), true
	}
	return nil, false
}

func (s *State) applySnapshot(msg sync.SnapshotMsg) tea.Cmd {
	if s.session == nil || !s.manager.Active(msg.SubscriptionID) {
		return nil
	}

	sig, err := s.cache.Apply(msg.Collection, msg.Documents)
	if err != nil {
		log.Printf("app: %v", err)
		return nil
	}

	var cmds []tea.Cmd
	if sig != nil && sig.Collection == model.CollectionWorkItems {
		cmds = append(cmds, s.alerts.Push(
			"New Task Created",
			fmt.Sprintf("%q has been added to your tasks", sig.Title),
			notify.LevelInfo,
		))
	}
	if msg.Collection == model.CollectionWorkItems || msg.Collection == model.CollectionNotifications {
		cmds = append(cmds, s.reconcile())
	}
	s.reproject()
	return tea.Batch(cmds...)
}

func (s *State) reconcile() tea.Cmd {
	return s.notifier.Reconcile(s.cache.WorkItems(), s.cache.Notifications(), s.session.UserID, s.clock())
}

func (s *State) resolveWrite(msg mutation.WriteResultMsg) tea.Cmd {
	s.manager.Refresh(msg.Collection)
	if err := s.coord.Resolve(msg); err != nil {
		return s.fail("Save Failed", err)
	}
	if len(msg.Notifications) > 0 && s.session != nil {
		return s.notifier.Emit(msg.Notifications...)
	}
	return nil
}

func (s *State) resolveCascade(msg mutation.CascadeResultMsg) tea.Cmd {
	for _, coll := range []string{model.CollectionProjects, model.CollectionServices, model.CollectionWorkItems} {
		s.manager.Refresh(coll)
	}
	if msg.Err == nil {
		return s.alerts.Push("Deleted", fmt.Sprintf("%d records removed", msg.Deleted), notify.LevelSuccess)
	}
	if msg.Deleted == 0 {
		return s.fail("Delete Failed", msg.Err)
	}
	return s.fail("Delete Incomplete", fmt.Errorf("%d of %d records could not be deleted: %w",
		msg.Failed, msg.Failed+msg.Deleted, msg.Err))
}

// fail records a recoverable error for the status bar and raises an alert.
func (s *State) fail(title string, err error) tea.Cmd {
	s.lastErr = err.Error()
	log.Printf("app: %s: %v", title, err)
	return s.alerts.Push(title, err.Error(), notify.LevelError)
}

func (s *State) reproject() {
	if s.session == nil {
		s.proj = view.Projection{View: s.view.Active}
		return
	}
	s.proj = view.Project(s.view, view.Input{
		Items:         s.cache.WorkItems(),
		Services:      s.cache.Services(),
		Notifications: s.cache.Notifications(),
		Actor:         s.session.UserID,
		Now:           s.clock(),
	})
}

// Projection returns what the active view renders.
func (s *State) Projection() view.Projection { return s.proj }

// ViewState returns the current view selection.
func (s *State) ViewState() model.ViewState { return s.view }

// SetViewState changes the view selection and re-projects.
func (s *State) SetViewState(vs model.ViewState) {
	s.view = vs
	s.reproject()
}

// Cache exposes the record cache for lookups.
func (s *State) Cache() *cache.Cache { return s.cache }

// Alerts returns the on-screen alerts.
func (s *State) Alerts() []notify.Alert { return s.alerts.Active() }

// ClearAlerts removes every on-screen alert.
func (s *State) ClearAlerts() { s.alerts.Clear() }

// LastError returns the most recent recoverable error, if any.
func (s *State) LastError() string { return s.lastErr }

// ClearError forgets the last error.
func (s *State) ClearError() { s.lastErr = "" }

// Refresh asks every subscription to poll now.
func (s *State) Refresh() {
	for _, coll := range model.Collections {
		s.manager.Refresh(coll)
	}
}

// edit runs a cache-changing mutation and re-projects.
func (s *State) edit(cmd tea.Cmd, err error) tea.Cmd {
	if err != nil {
		return s.fail("Invalid Edit", err)
	}
	s.reproject()
	return cmd
}

// MoveLane moves an item to another lane.
func (s *State) MoveLane(id string, status model.Status) tea.Cmd {
	return s.edit(s.coord.MoveLane(id, status))
}

// ShiftLane moves an item one lane left (-1) or right (+1).
func (s *State) ShiftLane(id string, dir int) tea.Cmd {
	w, ok := s.cache.WorkItem(id)
	if !ok {
		return nil
	}
	lane := w.Status.Lane()
	for i, l := range model.Lanes {
		if l != lane {
			continue
		}
		next := i + dir
		if next < 0 || next >= len(model.Lanes) {
			return nil
		}
		return s.MoveLane(id, model.Lanes[next])
	}
	return nil
}

// ToggleComplete flips an item between completed and todo.
func (s *State) ToggleComplete(id string) tea.Cmd {
	return s.edit(s.coord.ToggleComplete(id))
}

// ToggleChecklistEntry flips one checklist line.
func (s *State) ToggleChecklistEntry(id string, index int) tea.Cmd {
	return s.edit(s.coord.ToggleChecklistEntry(id, index))
}

// CreateWorkItem creates an item as the signed-in user.
func (s *State) CreateWorkItem(d mutation.Draft) tea.Cmd {
	return s.edit(s.coord.CreateWorkItem(s.actor(), d))
}

// UpdateWorkItem rewrites an item's editable content.
func (s *State) UpdateWorkItem(id string, d mutation.Draft) tea.Cmd {
	return s.edit(s.coord.UpdateWorkItem(s.actor(), id, d))
}

// DeleteWorkItem removes an item.
func (s *State) DeleteWorkItem(id string) tea.Cmd {
	return s.coord.DeleteWorkItem(id)
}

// CreateProject creates a project.
func (s *State) CreateProject(name, color string) tea.Cmd {
	return s.edit(s.coord.CreateProject(s.actor(), name, color))
}

// CreateService creates a service under a project.
func (s *State) CreateService(projectID, name, description string) tea.Cmd {
	return s.edit(s.coord.CreateService(s.actor(), projectID, name, description))
}

// DeleteProject deletes a project with its services and items.
func (s *State) DeleteProject(id string) tea.Cmd {
	return s.coord.DeleteProject(id)
}

// DeleteService deletes a service with its items.
func (s *State) DeleteService(id string) tea.Cmd {
	return s.coord.DeleteService(id)
}

// MarkRead marks one notification read.
func (s *State) MarkRead(id string) tea.Cmd {
	return s.notifier.MarkRead(id)
}

// MarkAllRead marks every notification of the signed-in user read.
func (s *State) MarkAllRead() tea.Cmd {
	if s.session == nil {
		return nil
	}
	return s.notifier.MarkAllRead(s.cache.Notifications(), s.session.UserID)
}

// ErrNotDismissable is returned when an inbox entry has no notification.
var ErrNotDismissable = errors.New("only notifications can be dismissed")

// Dismiss removes a notification from the inbox.
func (s *State) Dismiss(id string) tea.Cmd {
	note, ok := s.cache.Notification(id)
	if !ok {
		return s.fail("Dismiss Failed", fmt.Errorf("dismissing %s: %w", id, ErrNotDismissable))
	}
	return s.notifier.Dismiss(note)
}

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/identity"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/mutation"
	"github.com/nhle/worktrack/internal/sync"
	"github.com/nhle/worktrack/internal/ui/command"
	"github.com/nhle/worktrack/internal/ui/signin"
	"github.com/nhle/worktrack/tests/testutil"
)

var session = identity.Session{UserID: "u1", Email: "dev@example.com"}

func newState(t *testing.T) (*State, *sync.Manager, *docstore.SQLStore) {
	t.Helper()
	store := testutil.NewTestStore(t)
	mgr := sync.New(store, time.Hour)
	t.Cleanup(mgr.Close)

	s := NewState(store, mgr, model.DefaultAppConfig())
	s.clock = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, mgr, store
}

func next(t *testing.T, m *sync.Manager) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- m.WaitForNext()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// deliver feeds n subscription messages into s.
func deliver(t *testing.T, s *State, m *sync.Manager, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, handled := s.Update(next(t, m))
		require.True(t, handled)
	}
}

func seedItem(t *testing.T, store docstore.Writer, w model.WorkItem) {
	t.Helper()
	_, err := store.Create(context.Background(), model.CollectionWorkItems, w.ID, w.Fields())
	require.NoError(t, err)
}

func TestSnapshotsDriveProjectionAndNewItemAlert(t *testing.T) {
	s, mgr, store := newState(t)
	seedItem(t, store, model.WorkItem{ID: "t1", Title: "Existing", AssignedTo: model.AssignTo("u1")})

	s.Start(session)
	deliver(t, s, mgr, len(Queries(session.UserID)))

	p := s.Projection()
	assert.Equal(t, model.ViewHome, p.View)
	assert.Equal(t, 1, p.Badges.All)
	assert.Equal(t, 1, p.Badges.IncompleteAssigned)
	assert.Empty(t, s.Alerts(), "the first snapshot is a baseline")

	seedItem(t, store, model.WorkItem{ID: "t2", Title: "Fresh"})
	mgr.Refresh(model.CollectionWorkItems)
	deliver(t, s, mgr, 1)

	require.Len(t, s.Alerts(), 1)
	assert.Equal(t, "New Task Created", s.Alerts()[0].Title)
	assert.Equal(t, `"Fresh" has been added to your tasks`, s.Alerts()[0].Message)
	assert.Equal(t, 2, s.Projection().Badges.All)
}

func TestSnapshotAfterStopIsDiscarded(t *testing.T) {
	s, mgr, store := newState(t)
	seedItem(t, store, model.WorkItem{ID: "t1", Title: "Existing"})

	s.Start(session)
	late := next(t, mgr)
	s.Stop()

	_, handled := s.Update(late)
	assert.True(t, handled)
	assert.Empty(t, s.Cache().WorkItems())
	assert.Zero(t, s.Projection().Badges.All)
	_, ok := s.Session()
	assert.False(t, ok)
}

func TestFailedWriteIsReported(t *testing.T) {
	s, mgr, store := newState(t)
	seedItem(t, store, model.WorkItem{ID: "t1", Title: "Existing"})
	s.Start(session)
	deliver(t, s, mgr, len(Queries(session.UserID)))

	_, handled := s.Update(mutation.WriteResultMsg{
		Op:         mutation.OpStatus,
		Collection: model.CollectionWorkItems,
		ID:         "t1",
		Status:     model.StatusCompleted,
		Err:        errors.New("offline"),
	})
	assert.True(t, handled)
	assert.Equal(t, "offline", s.LastError())
	require.NotEmpty(t, s.Alerts())
	assert.Equal(t, "Save Failed", s.Alerts()[len(s.Alerts())-1].Title)
}

func TestShiftLaneStopsAtTheEdges(t *testing.T) {
	s, mgr, store := newState(t)
	seedItem(t, store, model.WorkItem{ID: "t1", Title: "Existing"})
	s.Start(session)
	deliver(t, s, mgr, len(Queries(session.UserID)))

	assert.Nil(t, s.ShiftLane("t1", -1))
	require.NotNil(t, s.ShiftLane("t1", 1))
	w, ok := s.Cache().WorkItem("t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusInProgress, w.Status)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestSignInCommandsAndSignOut(t *testing.T) {
	s, _, _ := newState(t)
	provider := identity.NewProvider(keyring.NewArrayKeyring(nil), nil)
	m := New(s, provider)

	m, _ = update(t, m, m.Init()())
	assert.Equal(t, ScreenSignIn, m.Screen())

	m, cmd := update(t, m, signin.SubmittedMsg{Email: "dev@example.com"})
	sessions := testutil.MsgsOf[sessionMsg](testutil.RunCmd(cmd))
	require.Len(t, sessions, 1)
	require.NoError(t, sessions[0].err)

	m, _ = update(t, m, sessions[0])
	assert.Equal(t, ScreenMain, m.Screen())
	sess, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, identity.SubjectID("dev@example.com"), sess.UserID)

	m, _ = update(t, m, command.Parse("status client checking"))
	assert.Equal(t, model.ViewEverything, s.ViewState().Active)
	assert.Equal(t, model.StatusClientChecking, s.ViewState().Filters.Status)

	m, _ = update(t, m, command.Parse("assignee me"))
	assert.Equal(t, sess.UserID, s.ViewState().Filters.Assignee)

	m, _ = update(t, m, command.Parse("clear"))
	assert.True(t, s.ViewState().Filters.IsZero())

	m, _ = update(t, m, command.Parse("teleport"))
	assert.Contains(t, s.LastError(), "unknown command")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, ScreenSignIn, m.Screen())
	_, ok = s.Session()
	assert.False(t, ok)
	_, err := provider.Current()
	assert.ErrorIs(t, err, identity.ErrNoSession)
}

package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/tests/testutil"
)

// quiet is long enough that the ticker never fires during a test.
const quiet = time.Hour

func next(t *testing.T, m *Manager) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- m.WaitForNext()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription message")
		return nil
	}
}

func expectSilence(t *testing.T, m *Manager) {
	t.Helper()
	select {
	case msg := <-m.resultCh:
		t.Fatalf("unexpected message %#v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func snapshotIDs(t *testing.T, msg tea.Msg) []string {
	t.Helper()
	snap, ok := msg.(SnapshotMsg)
	require.True(t, ok, "expected SnapshotMsg, got %T", msg)
	out := make([]string, len(snap.Documents))
	for i, d := range snap.Documents {
		out[i] = d.ID
	}
	return out
}

func TestSubscribeDeliversInitialAndChangedSnapshots(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	_, err := store.Create(ctx, "projects", "p1", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	m := New(store, quiet)
	t.Cleanup(m.Close)

	sub, err := m.Subscribe(docstore.Query{Collection: "projects"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, snapshotIDs(t, next(t, m)))

	_, err = store.Create(ctx, "projects", "p2", map[string]any{"name": "Beta"})
	require.NoError(t, err)
	m.Refresh("projects")

	msg := next(t, m)
	assert.Equal(t, []string{"p1", "p2"}, snapshotIDs(t, msg))
	assert.Equal(t, sub.ID(), msg.(SnapshotMsg).SubscriptionID)
}

func TestRefreshWithoutChangesDeliversNothing(t *testing.T) {
	store := testutil.NewTestStore(t)
	m := New(store, quiet)
	t.Cleanup(m.Close)

	_, err := m.Subscribe(docstore.Query{Collection: "users"})
	require.NoError(t, err)
	assert.Empty(t, snapshotIDs(t, next(t, m)))

	m.Refresh("users")
	m.Refresh("projects")
	expectSilence(t, m)
}

func TestMissingIndexFallsBackToClientOrdering(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	for id, ts := range map[string]string{
		"n1": "2024-03-01T08:00:00.000000000Z",
		"n2": "2024-03-01T10:00:00.000000000Z",
		"n3": "2024-03-01T09:00:00.000000000Z",
	} {
		_, err := store.Create(ctx, "notifications", id, map[string]any{"recipientUid": "u1", "timestamp": ts})
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, "notifications", "other", map[string]any{"recipientUid": "u2"})
	require.NoError(t, err)

	m := New(store, quiet)
	t.Cleanup(m.Close)

	_, err = m.Subscribe(docstore.Query{
		Collection: "notifications",
		Where:      []docstore.Filter{{Field: "recipientUid", Value: "u1"}},
		OrderBy:    &docstore.Order{Field: "timestamp", Desc: true},
	})
	require.NoError(t, err)

	msg := next(t, m)
	assert.Equal(t, []string{"n2", "n3", "n1"}, snapshotIDs(t, msg))
	assert.True(t, msg.(SnapshotMsg).Fallback)
}

type failingReader struct {
	mu      gosync.Mutex
	queries int
}

var errBackend = errors.New("permission denied")

func (r *failingReader) Query(context.Context, docstore.Query) ([]docstore.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	return nil, errBackend
}

func (r *failingReader) Revision(context.Context, string) (int64, error) {
	return 1, nil
}

func TestTerminalErrorSurfacesOnce(t *testing.T) {
	reader := &failingReader{}
	m := New(reader, 10*time.Millisecond)
	t.Cleanup(m.Close)

	sub, err := m.Subscribe(docstore.Query{Collection: "tasks"})
	require.NoError(t, err)

	msg := next(t, m)
	errMsg, ok := msg.(SubscriptionErrorMsg)
	require.True(t, ok, "expected SubscriptionErrorMsg, got %T", msg)
	assert.ErrorIs(t, errMsg.Err, errBackend)
	assert.Equal(t, sub.ID(), errMsg.SubscriptionID)

	m.Refresh("tasks")
	expectSilence(t, m)

	reader.mu.Lock()
	assert.Equal(t, 1, reader.queries)
	reader.mu.Unlock()
}

func TestUnsubscribeIsIdempotentAndDetaches(t *testing.T) {
	store := testutil.NewTestStore(t)
	m := New(store, quiet)
	t.Cleanup(m.Close)

	sub, err := m.Subscribe(docstore.Query{Collection: "tasks"})
	require.NoError(t, err)
	next(t, m)
	assert.True(t, m.Active(sub.ID()))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.False(t, m.Active(sub.ID()))

	_, err = store.Create(context.Background(), "tasks", "", map[string]any{"title": "late"})
	require.NoError(t, err)
	m.Refresh("tasks")
	expectSilence(t, m)
}

func TestUnsubscribeAllUnblocksPendingSends(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	m := New(store, quiet)

	// More subscriptions than the result buffer holds, none consumed.
	for i := 0; i < 20; i++ {
		_, err := m.Subscribe(docstore.Query{Collection: "tasks"})
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, "tasks", "", map[string]any{"title": "x"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	_, err = m.Subscribe(docstore.Query{Collection: "tasks"})
	assert.ErrorIs(t, err, ErrClosed)
}

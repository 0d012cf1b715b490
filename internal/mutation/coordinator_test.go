package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/cache"
	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/tests/testutil"
)

var errOffline = errors.New("offline")

var actor = Actor{UserID: "u0", Email: "lead@example.com"}

// load mirrors every collection of store into a fresh cache.
func load(t *testing.T, store docstore.Reader) *cache.Cache {
	t.Helper()
	c := cache.New()
	reload(t, store, c)
	return c
}

func reload(t *testing.T, store docstore.Reader, c *cache.Cache) {
	t.Helper()
	for _, coll := range model.Collections {
		docs, err := store.Query(context.Background(), docstore.Query{Collection: coll})
		require.NoError(t, err)
		_, err = c.Apply(coll, docs)
		require.NoError(t, err)
	}
}

func seed(t *testing.T, store docstore.Writer, collection, id string, fields map[string]any) {
	t.Helper()
	_, err := store.Create(context.Background(), collection, id, fields)
	require.NoError(t, err)
}

func TestFailedLaneMoveKeepsSpeculativeStatus(t *testing.T) {
	store := testutil.NewTestStore(t)
	seed(t, store, model.CollectionWorkItems, "t1", map[string]any{"title": "Ship", "status": "todo"})
	c := load(t, store)

	writer := testutil.NewFlakyWriter(store)
	writer.FailOn(model.CollectionWorkItems, "t1", errOffline)
	coord := New(c, writer, time.Second)

	cmd, err := coord.MoveLane("t1", model.StatusCompleted)
	require.NoError(t, err)

	w, _ := c.WorkItem("t1")
	assert.Equal(t, model.StatusCompleted, w.Status, "applied before the write")

	msg, ok := cmd().(WriteResultMsg)
	require.True(t, ok)
	err = coord.Resolve(msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errOffline)

	w, _ = c.WorkItem("t1")
	assert.Equal(t, model.StatusCompleted, w.Status, "no rollback on failure")
	_, pending := coord.Pending("t1")
	assert.False(t, pending)

	reload(t, store, c)
	w, _ = c.WorkItem("t1")
	assert.Equal(t, model.StatusTodo, w.Status, "next snapshot is authoritative")
}

func TestSecondEditReplacesPendingValue(t *testing.T) {
	store := testutil.NewTestStore(t)
	seed(t, store, model.CollectionWorkItems, "t1", map[string]any{"status": "todo"})
	c := load(t, store)
	coord := New(c, store, time.Second)

	first, err := coord.MoveLane("t1", model.StatusInProgress)
	require.NoError(t, err)
	second, err := coord.MoveLane("t1", model.StatusClientChecking)
	require.NoError(t, err)

	s, ok := coord.Pending("t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusClientChecking, s)

	require.NoError(t, coord.Resolve(first().(WriteResultMsg)))
	s, ok = coord.Pending("t1")
	require.True(t, ok, "an older result does not clear a newer edit")
	assert.Equal(t, model.StatusClientChecking, s)

	require.NoError(t, coord.Resolve(second().(WriteResultMsg)))
	_, ok = coord.Pending("t1")
	assert.False(t, ok)

	reload(t, store, c)
	w, _ := c.WorkItem("t1")
	assert.Equal(t, model.StatusClientChecking, w.Status)
}

func TestMoveLaneRejectsBadInput(t *testing.T) {
	coord := New(cache.New(), testutil.NewFlakyWriter(nil), time.Second)

	_, err := coord.MoveLane("t1", "archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = coord.MoveLane("missing", model.StatusTodo)
	assert.ErrorIs(t, err, ErrUnknownRecord)

	_, err = coord.ToggleComplete("missing")
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestToggleComplete(t *testing.T) {
	store := testutil.NewTestStore(t)
	seed(t, store, model.CollectionWorkItems, "t1", map[string]any{"status": "inProgress"})
	c := load(t, store)
	coord := New(c, store, time.Second)

	cmd, err := coord.ToggleComplete("t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, cmd().(WriteResultMsg).Status)

	cmd, err = coord.ToggleComplete("t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusTodo, cmd().(WriteResultMsg).Status)
}

func usersFixture(t *testing.T, store docstore.Writer) {
	t.Helper()
	for _, uid := range []string{"u0", "u1", "u2"} {
		seed(t, store, model.CollectionUsers, uid, map[string]any{"uid": uid, "email": uid + "@example.com"})
	}
}

func TestCreateWorkItemRoundTrip(t *testing.T) {
	store := testutil.NewTestStore(t)
	usersFixture(t, store)
	c := load(t, store)
	coord := New(c, store, time.Second)

	due := time.Date(2024, 4, 1, 17, 0, 0, 0, time.UTC)
	draft := Draft{
		Title:      "  Draft brief ",
		DueDate:    &due,
		Priority:   model.PriorityHigh,
		ProjectID:  "p1",
		ServiceID:  "s1",
		AssignedTo: model.AssignTo("u0", "u1", "u2"),
		Checklist:  []model.ChecklistEntry{{Text: "outline"}},
		Tags:       []string{"copy"},
	}
	cmd, err := coord.CreateWorkItem(actor, draft)
	require.NoError(t, err)

	msg := cmd().(WriteResultMsg)
	require.NoError(t, msg.Err)
	require.Len(t, msg.Notifications, 2)
	assert.Equal(t, "u1", msg.Notifications[0].RecipientID)
	assert.Equal(t, "u2", msg.Notifications[1].RecipientID)
	assert.Equal(t, msg.ID, msg.Notifications[0].WorkItemID)

	reload(t, store, c)
	w, ok := c.WorkItem(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "Draft brief", w.Title)
	assert.Equal(t, model.StatusTodo, w.Status)
	assert.Equal(t, "u0", w.OwnerUserID)
	assert.Equal(t, model.PriorityHigh, w.Priority)
	require.NotNil(t, w.DueDate)
	assert.True(t, due.Equal(*w.DueDate))
	assert.True(t, w.AssignedTo.Equal(draft.AssignedTo))
	assert.Equal(t, draft.Checklist, w.Checklist)
	assert.Equal(t, []string{"copy"}, w.Tags)
	assert.False(t, w.CreatedAt.IsZero())
}

func TestCreateWorkItemValidation(t *testing.T) {
	coord := New(cache.New(), testutil.NewFlakyWriter(nil), time.Second)

	_, err := coord.CreateWorkItem(actor, Draft{ProjectID: "p", ServiceID: "s"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = coord.CreateWorkItem(actor, Draft{Title: "x", ServiceID: "s"})
	assert.ErrorIs(t, err, ErrProjectRequired)
	_, err = coord.CreateWorkItem(actor, Draft{Title: "x", ProjectID: "p"})
	assert.ErrorIs(t, err, ErrServiceRequired)
}

func TestFailedCreateCarriesNoNotifications(t *testing.T) {
	store := testutil.NewTestStore(t)
	usersFixture(t, store)
	c := load(t, store)

	writer := testutil.NewFlakyWriter(store)
	writer.FailOn(model.CollectionWorkItems, "", errOffline)
	coord := New(c, writer, time.Second)

	cmd, err := coord.CreateWorkItem(actor, Draft{Title: "x", ProjectID: "p", ServiceID: "s", AssignedTo: model.AssignTo("u1")})
	require.NoError(t, err)

	msg := cmd().(WriteResultMsg)
	assert.ErrorIs(t, msg.Err, errOffline)
	assert.Empty(t, msg.Notifications)
}

func TestUpdateNotifiesOnlyNewAssignees(t *testing.T) {
	store := testutil.NewTestStore(t)
	usersFixture(t, store)
	seed(t, store, model.CollectionWorkItems, "t1", map[string]any{
		"title": "Ship", "status": "inProgress", "userId": "owner", "projectId": "p", "serviceId": "s",
		"assignedTo": []string{"u1"},
	})
	c := load(t, store)
	coord := New(c, store, time.Second)

	prev, _ := c.WorkItem("t1")
	draft := DraftOf(prev)
	draft.AssignedTo = model.AssignTo("u1", "u2")

	cmd, err := coord.UpdateWorkItem(actor, "t1", draft)
	require.NoError(t, err)
	msg := cmd().(WriteResultMsg)
	require.NoError(t, msg.Err)
	require.Len(t, msg.Notifications, 1)
	assert.Equal(t, "u2", msg.Notifications[0].RecipientID)
	assert.Equal(t, "Task Assigned to You", msg.Notifications[0].Title)

	reload(t, store, c)
	w, _ := c.WorkItem("t1")
	assert.Equal(t, model.StatusInProgress, w.Status)
	assert.Equal(t, "owner", w.OwnerUserID)
	assert.True(t, w.AssignedTo.Includes("u2"))
}

func TestToggleChecklistEntry(t *testing.T) {
	store := testutil.NewTestStore(t)
	seed(t, store, model.CollectionWorkItems, "t1", map[string]any{
		"checklist": []any{map[string]any{"text": "a", "completed": false}, map[string]any{"text": "b", "completed": true}},
	})
	c := load(t, store)
	coord := New(c, store, time.Second)

	cmd, err := coord.ToggleChecklistEntry("t1", 0)
	require.NoError(t, err)
	require.NoError(t, cmd().(WriteResultMsg).Err)

	_, err = coord.ToggleChecklistEntry("t1", 5)
	assert.Error(t, err)

	reload(t, store, c)
	w, _ := c.WorkItem("t1")
	done, total := w.ChecklistProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
}

func cascadeFixture(t *testing.T, store docstore.Writer) {
	t.Helper()
	seed(t, store, model.CollectionProjects, "p1", map[string]any{"name": "Acme"})
	seed(t, store, model.CollectionProjects, "p2", map[string]any{"name": "Beta"})
	seed(t, store, model.CollectionServices, "s1", map[string]any{"projectId": "p1"})
	seed(t, store, model.CollectionServices, "s2", map[string]any{"projectId": "p1"})
	seed(t, store, model.CollectionServices, "s3", map[string]any{"projectId": "p2"})
	seed(t, store, model.CollectionWorkItems, "i1", map[string]any{"projectId": "p1", "serviceId": "s1"})
	seed(t, store, model.CollectionWorkItems, "i2", map[string]any{"projectId": "p1", "serviceId": "s2"})
	seed(t, store, model.CollectionWorkItems, "i3", map[string]any{"projectId": "p2", "serviceId": "s3"})
	seed(t, store, model.CollectionWorkItems, "i4", map[string]any{"projectId": "p2", "serviceId": "s1"})
}

func ids[T any](recs []T, id func(T) string) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = id(r)
	}
	return out
}

func TestDeleteProjectCascades(t *testing.T) {
	store := testutil.NewTestStore(t)
	cascadeFixture(t, store)
	c := load(t, store)
	coord := New(c, store, time.Second)

	res := coord.DeleteProject("p1")().(CascadeResultMsg)
	require.NoError(t, res.Err)
	assert.Equal(t, 6, res.Deleted)

	reload(t, store, c)
	assert.Equal(t, []string{"p2"}, ids(c.Projects(), func(p model.Project) string { return p.ID }))
	assert.Equal(t, []string{"s3"}, ids(c.Services(), func(s model.Service) string { return s.ID }))
	assert.Equal(t, []string{"i3"}, ids(c.WorkItems(), func(w model.WorkItem) string { return w.ID }))
}

func TestDeleteServiceCascades(t *testing.T) {
	store := testutil.NewTestStore(t)
	cascadeFixture(t, store)
	c := load(t, store)
	coord := New(c, store, time.Second)

	res := coord.DeleteService("s1")().(CascadeResultMsg)
	require.NoError(t, res.Err)

	reload(t, store, c)
	assert.Equal(t, []string{"s2", "s3"}, ids(c.Services(), func(s model.Service) string { return s.ID }))
	assert.Equal(t, []string{"i2", "i3"}, ids(c.WorkItems(), func(w model.WorkItem) string { return w.ID }))
}

func TestCascadePartialFailureDoesNotRollBack(t *testing.T) {
	store := testutil.NewTestStore(t)
	cascadeFixture(t, store)
	c := load(t, store)

	writer := testutil.NewFlakyWriter(store)
	writer.FailOn(model.CollectionWorkItems, "i2", errOffline)
	coord := New(c, writer, time.Second)

	res := coord.DeleteProject("p1")().(CascadeResultMsg)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, errOffline)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 5, res.Deleted)

	reload(t, store, c)
	assert.Equal(t, []string{"i2", "i3"}, ids(c.WorkItems(), func(w model.WorkItem) string { return w.ID }))
	_, ok := c.Project("p1")
	assert.False(t, ok)
}

func TestCascadeStopsWhenParentFails(t *testing.T) {
	store := testutil.NewTestStore(t)
	cascadeFixture(t, store)
	c := load(t, store)

	writer := testutil.NewFlakyWriter(store)
	writer.FailOn(model.CollectionProjects, "p1", errOffline)
	coord := New(c, writer, time.Second)

	res := coord.DeleteProject("p1")().(CascadeResultMsg)
	assert.ErrorIs(t, res.Err, errOffline)
	assert.Zero(t, res.Deleted)
	assert.Len(t, writer.Calls(), 1)
}

func TestCreateProjectAndService(t *testing.T) {
	store := testutil.NewTestStore(t)
	c := cache.New()
	coord := New(c, store, time.Second)

	_, err := coord.CreateProject(actor, " ", "")
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = coord.CreateService(actor, "", "Design", "")
	assert.ErrorIs(t, err, ErrProjectRequired)

	cmd, err := coord.CreateProject(actor, "Acme", "#ff0000")
	require.NoError(t, err)
	pmsg := cmd().(WriteResultMsg)
	require.NoError(t, pmsg.Err)

	cmd, err = coord.CreateService(actor, pmsg.ID, "Design", "logos")
	require.NoError(t, err)
	require.NoError(t, cmd().(WriteResultMsg).Err)

	reload(t, store, c)
	p, ok := c.Project(pmsg.ID)
	require.True(t, ok)
	assert.Equal(t, "Acme", p.Name)
	assert.Equal(t, "u0", p.OwnerID)
	require.Len(t, c.ServicesByProject(pmsg.ID), 1)
	assert.Equal(t, "logos", c.ServicesByProject(pmsg.ID)[0].Description)
}

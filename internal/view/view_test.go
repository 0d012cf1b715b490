package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/model"
)

// now is mid-afternoon so "today" and "tomorrow" are unambiguous.
var now = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func due(days int) *time.Time {
	d := model.StartOfDay(now).AddDate(0, 0, days)
	return &d
}

func item(id string, mod func(*model.WorkItem)) model.WorkItem {
	w := model.WorkItem{ID: id, Title: id, CreatedAt: now.Add(-time.Hour)}
	if mod != nil {
		mod(&w)
	}
	return w
}

func ids(items []model.WorkItem) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.ID
	}
	return out
}

func fixture() []model.WorkItem {
	return []model.WorkItem{
		item("a", func(w *model.WorkItem) {
			w.Title = "Logo for ACME Corp"
			w.ProjectID = "p1"
			w.AssignedTo = model.AssignTo("u1")
			w.CreatedAt = now.Add(-3 * time.Hour)
			w.DueDate = due(0)
		}),
		item("b", func(w *model.WorkItem) {
			w.Description = "call acme back"
			w.ProjectID = "p2"
			w.Status = model.StatusInProgress
			w.CreatedAt = now.Add(-1 * time.Hour)
			w.DueDate = due(1)
		}),
		item("c", func(w *model.WorkItem) {
			w.ProjectID = "p1"
			w.Status = model.StatusCompleted
			w.AssignedTo = model.AssignEveryone()
			w.CreatedAt = now.Add(-2 * time.Hour)
		}),
		item("d", func(w *model.WorkItem) {
			w.Status = "archived"
			w.CreatedAt = now.Add(-2 * time.Hour)
			w.DueDate = due(-2)
		}),
	}
}

func TestMatchCriteria(t *testing.T) {
	items := fixture()

	assert.Equal(t, []string{"b", "a"}, ids(List(items, model.Filters{Client: "  AcMe "})))
	assert.Equal(t, []string{"c", "a"}, ids(List(items, model.Filters{ProjectID: "p1"})))
	assert.Equal(t, []string{"c", "a"}, ids(List(items, model.Filters{Assignee: "u1"})))
	assert.Equal(t, []string{"b", "d"}, ids(List(items, model.Filters{Assignee: model.UnassignedFilter})))
	assert.Equal(t, []string{"a"}, ids(List(items, model.Filters{Status: model.StatusTodo})))
	assert.Equal(t, []string{"a"}, ids(List(items, model.Filters{ProjectID: "p1", Status: model.StatusTodo})))
}

func TestListIsNewestFirstWithStableTies(t *testing.T) {
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(List(fixture(), model.Filters{})))
}

func TestBoardLanesUnionEqualsList(t *testing.T) {
	items := fixture()
	for _, f := range []model.Filters{{}, {ProjectID: "p1"}, {Client: "acme"}, {Assignee: model.UnassignedFilter}} {
		lanes := Board(items, f)
		require.Len(t, lanes, 4)

		var union []string
		for _, l := range lanes {
			union = append(union, ids(l.Items)...)
		}
		assert.ElementsMatch(t, ids(List(items, f)), union)
	}

	lanes := Board(items, model.Filters{})
	assert.Equal(t, model.StatusTodo, lanes[0].Status)
	assert.Equal(t, []string{"d", "a"}, ids(lanes[0].Items), "unknown status falls into todo")
	assert.Equal(t, []string{"b"}, ids(lanes[1].Items))
	assert.Empty(t, lanes[2].Items)
	assert.Equal(t, []string{"c"}, ids(lanes[3].Items))
}

func TestQuickFilters(t *testing.T) {
	items := fixture()
	assert.Equal(t, []string{"a"}, ids(ApplyQuick(items, model.QuickToday, now)))
	assert.Equal(t, []string{"b"}, ids(ApplyQuick(items, model.QuickUpcoming, now)))
	assert.Equal(t, []string{"c"}, ids(ApplyQuick(items, model.QuickCompleted, now)))
	assert.Len(t, ApplyQuick(items, model.QuickAll, now), 4)
}

func TestWorkQueue(t *testing.T) {
	items := append(fixture(), item("e", nil))

	assert.Equal(t, []string{"a"}, ids(WorkQueue(items, model.WorkTabTodo, model.WorkToday, now)))
	assert.Equal(t, []string{"d"}, ids(WorkQueue(items, model.WorkTabTodo, model.WorkOverdue, now)))
	assert.Equal(t, []string{"b"}, ids(WorkQueue(items, model.WorkTabTodo, model.WorkNext, now)))
	assert.Equal(t, []string{"e"}, ids(WorkQueue(items, model.WorkTabTodo, model.WorkUnscheduled, now)))
	assert.Equal(t, []string{"c"}, ids(WorkQueue(items, model.WorkTabDone, model.WorkToday, now)))
}

func TestAssignedToMe(t *testing.T) {
	items := append(fixture(), item("f", func(w *model.WorkItem) { w.AssignedTo = model.AssignEveryone() }))
	assert.Equal(t, []string{"a", "f"}, ids(AssignedToMe(items, "u1", 0)))
	assert.Equal(t, []string{"f"}, ids(AssignedToMe(items, "u2", 0)))
	assert.Equal(t, []string{"a"}, ids(AssignedToMe(items, "u1", 1)))
}

func TestCountBadges(t *testing.T) {
	notes := []model.Notification{
		{ID: "n1"},
		{ID: "n2", Read: true},
		{ID: "n3", Dismissed: true},
	}
	b := Count(fixture(), notes, "u1", now)

	assert.Equal(t, 4, b.All)
	assert.Equal(t, 1, b.Today)
	assert.Equal(t, 1, b.Upcoming)
	assert.Equal(t, 1, b.Completed)
	assert.Equal(t, 1, b.InProgress)
	assert.Equal(t, 1, b.Overdue)
	assert.Equal(t, 25, b.CompletionRate)
	assert.Equal(t, 1, b.UnreadNotifications)
	assert.Equal(t, 1, b.IncompleteAssigned)
	assert.Equal(t, 2, b.Inbox)
	assert.Equal(t, "2", b.InboxLabel())
}

func TestBadgeLabelCap(t *testing.T) {
	assert.Equal(t, "", Label(0))
	assert.Equal(t, "99", Label(99))
	assert.Equal(t, "99+", Label(100))
}

func TestInbox(t *testing.T) {
	notes := []model.Notification{
		{ID: "n-dead", Type: model.NotificationDeadline, Timestamp: now.Add(-30 * time.Minute)},
		{ID: "n-asg", Type: model.NotificationAssigned, Read: true, Timestamp: now.Add(-10 * time.Minute)},
		{ID: "n-gone", Type: model.NotificationDeadline, Dismissed: true, Timestamp: now},
	}
	items := fixture()

	entries, counts := Inbox(notes, items, "u1", model.InboxAll)
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.ID()
	}
	assert.Equal(t, []string{"n-asg", "n-dead", "task-c", "task-a"}, got)
	assert.Equal(t, InboxCounts{All: 4, Deadlines: 1, Assigned: 3, Unread: 2}, counts)

	entries, _ = Inbox(notes, items, "u1", model.InboxUnread)
	require.Len(t, entries, 1)
	assert.Equal(t, "n-dead", entries[0].ID())

	entries, _ = Inbox(notes, items, "u1", model.InboxDeadlines)
	require.Len(t, entries, 1)

	entries, _ = Inbox(notes, items, "u1", model.InboxAssigned)
	assert.Len(t, entries, 3)
}

func TestProjectDispatchesOnActiveView(t *testing.T) {
	in := Input{
		Items:    fixture(),
		Services: []model.Service{{ID: "s1", ProjectID: "p1"}, {ID: "s2", ProjectID: "p2"}},
		Actor:    "u1",
		Now:      now,
	}
	state := model.DefaultViewState()

	p := Project(state, in)
	assert.Equal(t, []string{"a"}, ids(p.Queue))
	assert.Equal(t, []string{"a"}, ids(p.Assigned))
	assert.Equal(t, 4, p.Badges.All)

	state.Active = model.ViewBoard
	state.Quick = model.QuickCompleted
	p = Project(state, in)
	assert.Equal(t, []string{"c"}, ids(p.Items))
	assert.Equal(t, []string{"c"}, ids(p.Lanes[3].Items))

	state.Active = model.ViewEverything
	state.Filters = model.Filters{ProjectID: "p1"}
	p = Project(state, in)
	assert.Nil(t, p.Lanes)
	state.Layout = model.LayoutBoard
	p = Project(state, in)
	assert.Len(t, p.Lanes, 4)

	state.Active = model.ViewProjectBoard
	state.ProjectID = "p1"
	p = Project(state, in)
	assert.Equal(t, []string{"c", "a"}, ids(p.Items))
	require.Len(t, p.Services, 1)
	assert.Equal(t, "s1", p.Services[0].Service.ID)
}

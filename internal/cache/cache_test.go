package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func doc(collection, id string, fields map[string]any) docstore.Document {
	return docstore.Document{ID: id, Collection: collection, Fields: fields, CreatedAt: t0, UpdatedAt: t0}
}

func task(id string, fields map[string]any) docstore.Document {
	return doc(model.CollectionWorkItems, id, fields)
}

func TestApplyDecodesLegacyShapes(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t1", map[string]any{
			"title":      "Legacy",
			"dueDate":    "2024-03-05",
			"assignedTo": "u1",
			"tags":       "design, , urgent",
			"checklist":  []any{map[string]any{"text": "a", "completed": true}},
		}),
		task("t2", map[string]any{
			"title":      "Modern",
			"dueDate":    "",
			"assignedTo": model.EveryoneSentinel,
			"tags":       []any{"x"},
			"status":     "inProgress",
		}),
		task("t3", map[string]any{"title": "Bare"}),
	})
	require.NoError(t, err)

	t1, ok := c.WorkItem("t1")
	require.True(t, ok)
	require.NotNil(t, t1.DueDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *t1.DueDate)
	assert.Equal(t, model.AssignSingle, t1.AssignedTo.Kind())
	assert.Equal(t, []string{"design", "urgent"}, t1.Tags)
	assert.Equal(t, []model.ChecklistEntry{{Text: "a", Completed: true}}, t1.Checklist)
	assert.Equal(t, t0, t1.CreatedAt)

	t2, _ := c.WorkItem("t2")
	assert.Nil(t, t2.DueDate)
	assert.True(t, t2.AssignedTo.IsEveryone())
	assert.Equal(t, model.StatusInProgress, t2.Status)

	t3, _ := c.WorkItem("t3")
	assert.True(t, t3.AssignedTo.IsEmpty())
	assert.Equal(t, model.StatusTodo, t3.Status.Effective())
}

func TestApplyReplacesCollectionAndIndexes(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t1", map[string]any{"projectId": "p1", "serviceId": "s1", "assignedTo": []any{"u1", "u2"}}),
		task("t2", map[string]any{"projectId": "p1", "serviceId": "s2", "assignedTo": model.EveryoneSentinel}),
		task("t3", map[string]any{"projectId": "p2", "assignedTo": "u2"}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t2"}, itemIDs(c.ByProject("p1")))
	assert.Equal(t, []string{"t2"}, itemIDs(c.ByService("s2")))
	assert.Equal(t, []string{"t1", "t2"}, itemIDs(c.ByAssignee("u1")))
	assert.Equal(t, []string{"t1", "t2", "t3"}, itemIDs(c.ByAssignee("u2")))
	assert.Equal(t, []string{"t2"}, itemIDs(c.ByAssignee("nobody")))

	_, err = c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t3", map[string]any{"projectId": "p2"}),
	})
	require.NoError(t, err)

	assert.Empty(t, c.ByProject("p1"))
	assert.Empty(t, c.ByAssignee("u2"))
	_, ok := c.WorkItem("t1")
	assert.False(t, ok)
}

func TestUsersDedupeLastSeenWins(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionUsers, []docstore.Document{
		doc(model.CollectionUsers, "d1", map[string]any{"uid": "u1", "email": "old@example.com"}),
		doc(model.CollectionUsers, "d2", map[string]any{"uid": "u2", "email": "b@example.com"}),
		doc(model.CollectionUsers, "d3", map[string]any{"uid": "u1", "email": "new@example.com"}),
		doc(model.CollectionUsers, "u4", map[string]any{"email": "nouid@example.com"}),
	})
	require.NoError(t, err)

	users := c.Users()
	require.Len(t, users, 3)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "new@example.com", users[0].Email)
	assert.Equal(t, "u4", users[2].ID)
	assert.Equal(t, []string{"u1", "u2", "u4"}, c.UserIDs())
}

func TestNewRecordSignal(t *testing.T) {
	c := New()

	sig, err := c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t1", map[string]any{"title": "One"}),
	})
	require.NoError(t, err)
	assert.Nil(t, sig, "first snapshot is the baseline")

	// Two records arrive together; the snapshot is newest first.
	sig, err = c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t3", map[string]any{"title": "Three"}),
		task("t2", map[string]any{"title": "Two"}),
		task("t1", map[string]any{"title": "One"}),
	})
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, "t3", sig.RecordID)
	assert.Equal(t, "Three", sig.Title)
	assert.Equal(t, 1, sig.Previous)
	assert.Equal(t, 3, sig.Count)

	// Replacing one record with another keeps the count and stays silent.
	sig, err = c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t4", map[string]any{"title": "Four"}),
		task("t2", map[string]any{"title": "Two"}),
		task("t1", map[string]any{"title": "One"}),
	})
	require.NoError(t, err)
	assert.Nil(t, sig)

	c.Reset()
	sig, err = c.Apply(model.CollectionWorkItems, []docstore.Document{task("t5", nil)})
	require.NoError(t, err)
	assert.Nil(t, sig, "reset clears the baseline")
}

func TestOptimisticStatusIsOverwrittenBySnapshot(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t1", map[string]any{"status": "todo"}),
	})
	require.NoError(t, err)

	assert.True(t, c.SetWorkItemStatus("t1", model.StatusCompleted))
	assert.False(t, c.SetWorkItemStatus("missing", model.StatusCompleted))
	w, _ := c.WorkItem("t1")
	assert.Equal(t, model.StatusCompleted, w.Status)

	_, err = c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("t1", map[string]any{"status": "todo"}),
	})
	require.NoError(t, err)
	w, _ = c.WorkItem("t1")
	assert.Equal(t, model.StatusTodo, w.Status)
}

func TestUndecodableRecordsAreSkipped(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionWorkItems, []docstore.Document{
		task("bad", map[string]any{"dueDate": "not a date"}),
		task("good", map[string]any{"title": "ok"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, itemIDs(c.WorkItems()))
}

func TestApplyUnknownCollection(t *testing.T) {
	_, err := New().Apply("widgets", nil)
	assert.ErrorContains(t, err, "unknown collection")
}

func TestDisplayNamesDegrade(t *testing.T) {
	c := New()
	_, err := c.Apply(model.CollectionProjects, []docstore.Document{
		doc(model.CollectionProjects, "p1", map[string]any{"name": "Acme"}),
	})
	require.NoError(t, err)
	_, err = c.Apply(model.CollectionUsers, []docstore.Document{
		doc(model.CollectionUsers, "d1", map[string]any{"uid": "u1", "displayName": "Ann"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", c.ProjectName("p1"))
	assert.Equal(t, "Unknown", c.ProjectName("gone"))
	assert.Equal(t, "Unknown", c.ServiceName("s1"))
	assert.Equal(t, "Unassigned", c.AssigneeLabel(model.Unassigned()))
	assert.Equal(t, "Everyone", c.AssigneeLabel(model.AssignEveryone()))
	assert.Equal(t, "Ann, Unknown", c.AssigneeLabel(model.AssignTo("u1", "u9")))
}

func itemIDs(items []model.WorkItem) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.ID
	}
	return out
}

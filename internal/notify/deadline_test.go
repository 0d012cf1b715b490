package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/worktrack/internal/model"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func dueIn(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func withPlan(existing []model.Notification, p Plan) []model.Notification {
	removed := map[string]bool{}
	for _, id := range p.Remove {
		removed[id] = true
	}
	replaced := map[string]model.Notification{}
	for _, n := range p.Update {
		replaced[n.ID] = n
	}
	var out []model.Notification
	for _, n := range existing {
		if removed[n.ID] {
			continue
		}
		if r, ok := replaced[n.ID]; ok {
			n = r
		}
		out = append(out, n)
	}
	return append(out, p.Create...)
}

func TestDeadlineLifecycle(t *testing.T) {
	policy := DefaultPolicy()
	item := model.WorkItem{ID: "t1", Title: "Ship", DueDate: dueIn(20 * time.Hour)}

	plan := policy.Plan([]model.WorkItem{item}, nil, "u1", now)
	require.Len(t, plan.Create, 1)
	created := plan.Create[0]
	assert.Equal(t, "deadline-u1-t1", created.ID)
	assert.True(t, created.Urgent)
	assert.Equal(t, "Urgent Deadline", created.Title)
	assert.Equal(t, `"Ship" is due in 20 hours`, created.Message)
	assert.Equal(t, model.NotificationDeadline, created.Type)
	stored := withPlan(nil, plan)

	item.DueDate = dueIn(30 * time.Hour)
	plan = policy.Plan([]model.WorkItem{item}, stored, "u1", now)
	assert.Empty(t, plan.Create)
	require.Len(t, plan.Update, 1)
	assert.False(t, plan.Update[0].Urgent)
	assert.Equal(t, "Upcoming Deadline", plan.Update[0].Title)
	stored = withPlan(stored, plan)
	require.Len(t, stored, 1)

	item.DueDate = dueIn(72 * time.Hour)
	plan = policy.Plan([]model.WorkItem{item}, stored, "u1", now)
	assert.Equal(t, []string{"deadline-u1-t1"}, plan.Remove)
	assert.Empty(t, withPlan(stored, plan))
}

func TestPlanIsIdempotent(t *testing.T) {
	policy := DefaultPolicy()
	items := []model.WorkItem{
		{ID: "a", DueDate: dueIn(time.Hour)},
		{ID: "b", DueDate: dueIn(47 * time.Hour)},
		{ID: "c", DueDate: dueIn(49 * time.Hour)},
		{ID: "d", DueDate: dueIn(-time.Hour)},
		{ID: "e"},
		{ID: "f", DueDate: dueIn(2 * time.Hour), Status: model.StatusCompleted},
	}

	plan := policy.Plan(items, nil, "u1", now)
	assert.Len(t, plan.Create, 2)

	stored := withPlan(nil, plan)
	for _, at := range []time.Time{now, now.Add(10 * time.Minute)} {
		assert.True(t, policy.Plan(items, stored, "u1", at).Empty())
	}
}

func TestPlanRemovesWhenItemStopsQualifying(t *testing.T) {
	policy := DefaultPolicy()
	existing := []model.Notification{
		{ID: DeadlineID("u1", "done"), RecipientID: "u1", Type: model.NotificationDeadline, Urgent: true},
		{ID: DeadlineID("u1", "nodue"), RecipientID: "u1", Type: model.NotificationDeadline, Urgent: true},
		{ID: DeadlineID("u1", "deleted"), RecipientID: "u1", Type: model.NotificationDeadline},
		{ID: DeadlineID("u2", "done"), RecipientID: "u2", Type: model.NotificationDeadline},
		{ID: "assign-1", RecipientID: "u1", Type: model.NotificationAssigned},
	}
	items := []model.WorkItem{
		{ID: "done", DueDate: dueIn(time.Hour), Status: model.StatusCompleted},
		{ID: "nodue"},
	}

	plan := policy.Plan(items, existing, "u1", now)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Update)
	assert.Equal(t, []string{
		DeadlineID("u1", "deleted"),
		DeadlineID("u1", "done"),
		DeadlineID("u1", "nodue"),
	}, plan.Remove)
}

func TestDismissedDeadlineIsNotRecreated(t *testing.T) {
	policy := DefaultPolicy()
	items := []model.WorkItem{{ID: "t1", DueDate: dueIn(2 * time.Hour)}}
	existing := []model.Notification{{
		ID:          DeadlineID("u1", "t1"),
		RecipientID: "u1",
		Type:        model.NotificationDeadline,
		Dismissed:   true,
	}}

	assert.True(t, policy.Plan(items, existing, "u1", now).Empty())
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(model.NotifyConfig{DeadlineWindowHours: 72})
	assert.Equal(t, 72*time.Hour, p.Window)
	assert.Equal(t, 24*time.Hour, p.Urgent)
}

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "in less than an hour"},
		{90 * time.Minute, "in 1 hour"},
		{5 * time.Hour, "in 5 hours"},
		{30 * time.Hour, "tomorrow"},
		{50 * time.Hour, "in 2 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeLeft(tt.d), tt.d.String())
	}
}

package view

import (
	"slices"
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// InboxEntry is a row of the inbox: either a durable notification or a work
// item assigned to the actor.
type InboxEntry struct {
	Notification *model.Notification
	WorkItem     *model.WorkItem
	Timestamp    time.Time
	Read         bool
}

// ID identifies the entry across renders.
func (e InboxEntry) ID() string {
	if e.Notification != nil {
		return e.Notification.ID
	}
	return "task-" + e.WorkItem.ID
}

// InboxCounts are the per-filter totals shown on the inbox tabs.
type InboxCounts struct {
	All       int
	Deadlines int
	Assigned  int
	Unread    int
}

// Inbox merges the actor's visible notifications with the items assigned to
// them, newest first, narrowed by filter. Dismissed notifications are
// hidden. Assigned items count as read once completed.
func Inbox(notes []model.Notification, items []model.WorkItem, actor string, filter model.InboxFilter) ([]InboxEntry, InboxCounts) {
	var counts InboxCounts
	var entries []InboxEntry

	for i := range items {
		w := items[i]
		if !w.AssignedTo.Includes(actor) {
			continue
		}
		counts.All++
		counts.Assigned++
		if !w.IsCompleted() {
			counts.Unread++
		}
		if filter == model.InboxAll || filter == model.InboxAssigned {
			entries = append(entries, InboxEntry{
				WorkItem:  &w,
				Timestamp: w.CreatedAt,
				Read:      w.IsCompleted(),
			})
		}
	}

	for i := range notes {
		n := notes[i]
		if n.Dismissed {
			continue
		}
		counts.All++
		if n.Type == model.NotificationDeadline {
			counts.Deadlines++
		}
		if n.Type == model.NotificationAssigned {
			counts.Assigned++
		}
		if !n.Read {
			counts.Unread++
		}

		var keep bool
		switch filter {
		case model.InboxDeadlines:
			keep = n.Type == model.NotificationDeadline
		case model.InboxAssigned:
			keep = n.Type == model.NotificationAssigned
		case model.InboxUnread:
			keep = !n.Read
		default:
			keep = true
		}
		if keep {
			entries = append(entries, InboxEntry{Notification: &n, Timestamp: n.Timestamp, Read: n.Read})
		}
	}

	slices.SortStableFunc(entries, func(a, b InboxEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return entries, counts
}

package view

import (
	"strconv"
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// badgeCap is the largest count a badge shows before switching to "99+".
const badgeCap = 99

// Badges are the counts shown next to navigation entries and on the
// dashboard. They are recomputed from scratch on every change.
type Badges struct {
	All        int
	Today      int
	Upcoming   int
	Completed  int
	InProgress int
	Overdue    int

	// CompletionRate is the rounded percentage of completed items.
	CompletionRate int

	UnreadNotifications int
	IncompleteAssigned  int

	// Inbox is UnreadNotifications plus IncompleteAssigned.
	Inbox int
}

// InboxLabel renders the inbox badge, empty when there is nothing to show.
func (b Badges) InboxLabel() string {
	return Label(b.Inbox)
}

// Label renders a badge count with the display cap applied.
func Label(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	}
	return strconv.Itoa(n)
}

// Count computes every badge for actor at now.
func Count(items []model.WorkItem, notes []model.Notification, actor string, now time.Time) Badges {
	var b Badges
	for _, w := range items {
		b.All++
		if DueToday(w, now) {
			b.Today++
		}
		if DueUpcoming(w, now) {
			b.Upcoming++
		}
		switch w.Status.Effective() {
		case model.StatusCompleted:
			b.Completed++
		case model.StatusInProgress:
			b.InProgress++
		}
		if w.IsOverdue(now) {
			b.Overdue++
		}
		if !w.IsCompleted() && w.AssignedTo.Includes(actor) {
			b.IncompleteAssigned++
		}
	}
	if b.All > 0 {
		b.CompletionRate = (b.Completed*100 + b.All/2) / b.All
	}
	for _, n := range notes {
		if !n.Read && !n.Dismissed {
			b.UnreadNotifications++
		}
	}
	b.Inbox = b.UnreadNotifications + b.IncompleteAssigned
	return b
}

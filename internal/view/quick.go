package view

import (
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// dueDay returns the due date truncated to its calendar day in now's
// location.
func dueDay(w model.WorkItem, now time.Time) (time.Time, bool) {
	if w.DueDate == nil {
		return time.Time{}, false
	}
	return model.StartOfDay(w.DueDate.In(now.Location())), true
}

// DueToday reports whether the item is due on now's calendar day.
func DueToday(w model.WorkItem, now time.Time) bool {
	d, ok := dueDay(w, now)
	return ok && d.Equal(model.StartOfDay(now))
}

// DueUpcoming reports whether the item is due tomorrow or later.
func DueUpcoming(w model.WorkItem, now time.Time) bool {
	d, ok := dueDay(w, now)
	return ok && !d.Before(model.StartOfDay(now).AddDate(0, 0, 1))
}

// DueBeforeToday reports whether the item was due on an earlier day.
func DueBeforeToday(w model.WorkItem, now time.Time) bool {
	d, ok := dueDay(w, now)
	return ok && d.Before(model.StartOfDay(now))
}

// MatchQuick reports whether an item passes a quick filter.
func MatchQuick(w model.WorkItem, q model.QuickFilter, now time.Time) bool {
	switch q {
	case model.QuickToday:
		return DueToday(w, now)
	case model.QuickUpcoming:
		return DueUpcoming(w, now)
	case model.QuickCompleted:
		return w.IsCompleted()
	}
	return true
}

// ApplyQuick keeps the items passing a quick filter, preserving order.
func ApplyQuick(items []model.WorkItem, q model.QuickFilter, now time.Time) []model.WorkItem {
	out := make([]model.WorkItem, 0, len(items))
	for _, w := range items {
		if MatchQuick(w, q, now) {
			out = append(out, w)
		}
	}
	return out
}

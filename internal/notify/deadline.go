// Package notify derives durable notifications from cached state and keeps
// the short-lived alert queue shown on screen.
package notify

import (
	"fmt"
	"slices"
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// Policy holds the deadline windows.
type Policy struct {
	// Window is how far ahead a due date produces a notification.
	Window time.Duration
	// Urgent is the part of Window in which the notification is urgent.
	Urgent time.Duration
}

// DefaultPolicy notifies 48 hours ahead, urgently within 24 hours.
func DefaultPolicy() Policy {
	return Policy{Window: 48 * time.Hour, Urgent: 24 * time.Hour}
}

// PolicyFromConfig builds a Policy from configuration, keeping defaults for
// unset values.
func PolicyFromConfig(cfg model.NotifyConfig) Policy {
	p := DefaultPolicy()
	if cfg.DeadlineWindowHours > 0 {
		p.Window = time.Duration(cfg.DeadlineWindowHours) * time.Hour
	}
	if cfg.UrgentWindowHours > 0 {
		p.Urgent = time.Duration(cfg.UrgentWindowHours) * time.Hour
	}
	return p
}

// DeadlineID is the deterministic id of the deadline notification for one
// recipient and work item.
func DeadlineID(recipient, itemID string) string {
	return "deadline-" + recipient + "-" + itemID
}

// Plan lists the writes that bring stored deadline notifications in line
// with the cached work items.
type Plan struct {
	Create []model.Notification
	Update []model.Notification
	Remove []string
}

// Empty reports whether nothing needs writing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Remove) == 0
}

// Deadline builds the notification an item due at due should have.
func (p Policy) Deadline(w model.WorkItem, recipient string, now time.Time) model.Notification {
	left := w.DueDate.Sub(now)
	urgent := left <= p.Urgent
	title := "Upcoming Deadline"
	if urgent {
		title = "Urgent Deadline"
	}
	return model.Notification{
		ID:          DeadlineID(recipient, w.ID),
		RecipientID: recipient,
		Type:        model.NotificationDeadline,
		Title:       title,
		Message:     fmt.Sprintf("%q is due %s", w.Title, FormatTimeLeft(left)),
		WorkItemID:  w.ID,
		Timestamp:   now,
		Urgent:      urgent,
	}
}

// inWindow reports whether an incomplete item is due within [now, now+Window].
func (p Policy) inWindow(w model.WorkItem, now time.Time) bool {
	if w.IsCompleted() || w.DueDate == nil {
		return false
	}
	due := *w.DueDate
	return !due.Before(now) && !due.After(now.Add(p.Window))
}

// Plan compares the wanted deadline notifications of recipient with the
// existing ones. Each qualifying item gets exactly one notification; an
// existing one is rewritten only when its urgency changes and removed once
// the item no longer qualifies. Dismissed notifications are left alone
// while their item still qualifies. Running Plan again on its own result
// yields an empty plan.
func (p Policy) Plan(items []model.WorkItem, existing []model.Notification, recipient string, now time.Time) Plan {
	have := map[string]model.Notification{}
	for _, n := range existing {
		if n.Type == model.NotificationDeadline && n.RecipientID == recipient {
			have[n.ID] = n
		}
	}

	var plan Plan
	wanted := map[string]bool{}
	for _, w := range items {
		if !p.inWindow(w, now) {
			continue
		}
		want := p.Deadline(w, recipient, now)
		wanted[want.ID] = true

		cur, ok := have[want.ID]
		switch {
		case !ok:
			plan.Create = append(plan.Create, want)
		case cur.Dismissed:
		case cur.Urgent != want.Urgent:
			plan.Update = append(plan.Update, want)
		}
	}

	for id := range have {
		if !wanted[id] {
			plan.Remove = append(plan.Remove, id)
		}
	}
	slices.Sort(plan.Remove)

	return plan
}

// FormatTimeLeft renders the time until a deadline.
func FormatTimeLeft(d time.Duration) string {
	hours := int(d / time.Hour)
	switch {
	case hours < 1:
		return "in less than an hour"
	case hours == 1:
		return "in 1 hour"
	case hours < 24:
		return fmt.Sprintf("in %d hours", hours)
	case hours/24 == 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", hours/24)
}

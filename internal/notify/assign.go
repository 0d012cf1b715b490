package notify

import (
	"fmt"
	"slices"
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// NewlyAssigned returns the users named by next but not by prev, excluding
// the actor. Everyone-assignments are expanded against the known users and
// unknown ids are dropped.
func NewlyAssigned(prev, next model.Assignment, actor string, known []string) []string {
	before := prev.Users(known)
	var out []string
	for _, uid := range next.Users(known) {
		if uid == actor || slices.Contains(before, uid) || !slices.Contains(known, uid) {
			continue
		}
		out = append(out, uid)
	}
	return out
}

// AssignmentEvent describes who assigned which item to whom.
type AssignmentEvent struct {
	Item       model.WorkItem
	ActorEmail string
	Recipients []string
	// Created is set when the assignment came with the item's creation.
	Created bool
}

// AssignmentNotifications builds one notification per recipient.
func AssignmentNotifications(ev AssignmentEvent, now time.Time, newID func() string) []model.Notification {
	title, verb := "Task Assigned to You", "assigned you"
	if ev.Created {
		title = "New Task Assigned"
		if ev.Item.AssignedTo.IsEveryone() {
			title, verb = "New Task Assigned to All", "assigned everyone"
		}
	}

	out := make([]model.Notification, 0, len(ev.Recipients))
	for _, uid := range ev.Recipients {
		out = append(out, model.Notification{
			ID:          newID(),
			RecipientID: uid,
			Type:        model.NotificationAssigned,
			Title:       title,
			Message:     fmt.Sprintf("%s %s: %q", ev.ActorEmail, verb, ev.Item.Title),
			WorkItemID:  ev.Item.ID,
			Timestamp:   now,
		})
	}
	return out
}

package model

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationDeadline NotificationType = "deadline"
	NotificationAssigned NotificationType = "assigned"
	NotificationInfo     NotificationType = "info"
)

// Notification is a durable per-recipient message about a work item.
type Notification struct {
	// ID is deterministic for deadline notifications so reconciliation can
	// find and replace them; other types use opaque ids.
	ID string `mapstructure:"id"`

	// RecipientID is the user the notification is addressed to.
	RecipientID string `mapstructure:"recipientUid"`

	Type    NotificationType `mapstructure:"type"`
	Title   string           `mapstructure:"title"`
	Message string           `mapstructure:"message"`

	// WorkItemID links back to the originating work item, if any.
	WorkItemID string `mapstructure:"taskId"`

	Timestamp time.Time `mapstructure:"timestamp"`
	Read      bool      `mapstructure:"read"`

	// Urgent marks deadline notifications due within the urgent window.
	Urgent bool `mapstructure:"urgent"`

	// Dismissed hides a deadline notification without letting the engine
	// recreate it while its condition still holds.
	Dismissed bool `mapstructure:"dismissed"`
}

// Fields encodes the notification for the document store.
func (n Notification) Fields() map[string]any {
	return map[string]any{
		"recipientUid": n.RecipientID,
		"type":         string(n.Type),
		"title":        n.Title,
		"message":      n.Message,
		"taskId":       n.WorkItemID,
		"timestamp":    FormatTime(n.Timestamp),
		"read":         n.Read,
		"urgent":       n.Urgent,
		"dismissed":    n.Dismissed,
	}
}

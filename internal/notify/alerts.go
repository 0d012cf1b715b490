package notify

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level styles an alert.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelUrgent
	LevelError
)

// Alert is a short-lived message shown on screen.
type Alert struct {
	ID      int
	Title   string
	Message string
	Level   Level
}

// AlertExpiredMsg is a tea.Msg sent when an alert's display time is up.
type AlertExpiredMsg struct {
	ID int
}

// Alerts is the on-screen alert queue. Alerts expire on their own after the
// TTL, independently of any durable notification they mirror.
type Alerts struct {
	ttl    time.Duration
	nextID int
	items  []Alert
}

// NewAlerts creates a queue whose alerts live for ttl.
func NewAlerts(ttl time.Duration) *Alerts {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Alerts{ttl: ttl}
}

// Push queues an alert and returns the command that expires it.
func (a *Alerts) Push(title, message string, level Level) tea.Cmd {
	a.nextID++
	id := a.nextID
	a.items = append(a.items, Alert{ID: id, Title: title, Message: message, Level: level})
	return tea.Tick(a.ttl, func(time.Time) tea.Msg {
		return AlertExpiredMsg{ID: id}
	})
}

// Expire removes an alert. Unknown ids are ignored.
func (a *Alerts) Expire(id int) {
	for i, al := range a.items {
		if al.ID == id {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return
		}
	}
}

// Active returns the visible alerts, oldest first.
func (a *Alerts) Active() []Alert {
	out := make([]Alert, len(a.items))
	copy(out, a.items)
	return out
}

// Clear removes every alert.
func (a *Alerts) Clear() {
	a.items = nil
}

package view

import (
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// WorkQueue is the personal work queue. The todo tab holds incomplete items
// narrowed by sub; the done tab holds completed items.
func WorkQueue(items []model.WorkItem, tab model.WorkTab, sub model.WorkSubfilter, now time.Time) []model.WorkItem {
	var out []model.WorkItem
	for _, w := range items {
		if tab == model.WorkTabDone {
			if w.IsCompleted() {
				out = append(out, w)
			}
			continue
		}
		if w.IsCompleted() {
			continue
		}
		var keep bool
		switch sub {
		case model.WorkToday:
			keep = DueToday(w, now)
		case model.WorkOverdue:
			keep = DueBeforeToday(w, now)
		case model.WorkNext:
			keep = DueUpcoming(w, now)
		case model.WorkUnscheduled:
			keep = w.DueDate == nil
		}
		if keep {
			out = append(out, w)
		}
	}
	return out
}

// AssignedToMe returns incomplete items assigned to actor, including items
// assigned to everyone. A positive limit caps the result.
func AssignedToMe(items []model.WorkItem, actor string, limit int) []model.WorkItem {
	var out []model.WorkItem
	for _, w := range items {
		if w.IsCompleted() || !w.AssignedTo.Includes(actor) {
			continue
		}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ServiceCount pairs a service with the number of its work items.
type ServiceCount struct {
	Service model.Service
	Items   int
}

// ServicesWithCounts lists the services of a project with their item counts.
func ServicesWithCounts(services []model.Service, items []model.WorkItem, projectID string) []ServiceCount {
	counts := map[string]int{}
	for _, w := range items {
		if w.ServiceID != "" {
			counts[w.ServiceID]++
		}
	}
	var out []ServiceCount
	for _, s := range services {
		if s.ProjectID == projectID {
			out = append(out, ServiceCount{Service: s, Items: counts[s.ID]})
		}
	}
	return out
}

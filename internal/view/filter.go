// Package view derives the lists, boards, queues and counts the UI shows
// from cached records. Every function is pure; the current time is always
// passed in.
package view

import (
	"slices"
	"strings"

	"github.com/nhle/worktrack/internal/model"
)

// Match reports whether an item passes every set criterion of f.
func Match(w model.WorkItem, f model.Filters) bool {
	if f.Status != "" && w.Status.Effective() != f.Status {
		return false
	}
	if f.ProjectID != "" && w.ProjectID != f.ProjectID {
		return false
	}
	if f.Assignee != "" {
		if f.Assignee == model.UnassignedFilter {
			if !w.AssignedTo.IsEmpty() {
				return false
			}
		} else if !w.AssignedTo.Includes(f.Assignee) {
			return false
		}
	}
	if f.Client != "" {
		haystack := strings.ToLower(w.Title + " " + w.Description)
		if !strings.Contains(haystack, strings.ToLower(strings.TrimSpace(f.Client))) {
			return false
		}
	}
	return true
}

// Filter keeps the items passing f, preserving order.
func Filter(items []model.WorkItem, f model.Filters) []model.WorkItem {
	out := make([]model.WorkItem, 0, len(items))
	for _, w := range items {
		if Match(w, f) {
			out = append(out, w)
		}
	}
	return out
}

// SortNewestFirst orders items by creation time, newest first. Equal
// timestamps keep their snapshot order.
func SortNewestFirst(items []model.WorkItem) {
	slices.SortStableFunc(items, func(a, b model.WorkItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// List is the flat view: filtered items, newest first.
func List(items []model.WorkItem, f model.Filters) []model.WorkItem {
	out := Filter(items, f)
	SortNewestFirst(out)
	return out
}

// Lane is one column of a board.
type Lane struct {
	Status model.Status
	Items  []model.WorkItem
}

// Board partitions the list view into the fixed status lanes. Items with an
// unknown or missing status land in the todo lane, so the lanes together
// always hold exactly the items of List.
func Board(items []model.WorkItem, f model.Filters) []Lane {
	lanes := make([]Lane, len(model.Lanes))
	pos := make(map[model.Status]int, len(model.Lanes))
	for i, s := range model.Lanes {
		lanes[i] = Lane{Status: s}
		pos[s] = i
	}
	for _, w := range List(items, f) {
		i := pos[w.Status.Lane()]
		lanes[i].Items = append(lanes[i].Items, w)
	}
	return lanes
}

// Package cache holds the local, read-only mirror of every subscribed
// collection together with the secondary indexes projections use.
package cache

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

// NewRecordSignal reports that a collection grew between two snapshots.
// The count heuristic cannot tell additions from replacements, so it may
// miss a simultaneous add and delete.
type NewRecordSignal struct {
	Collection string
	RecordID   string
	Title      string
	Previous   int
	Count      int
}

// Cache is the in-memory store of decoded records. It is owned by the
// application's single update loop and is not safe for concurrent use.
type Cache struct {
	items     []model.WorkItem
	itemIndex map[string]int
	byProject map[string][]int
	byService map[string][]int
	byUser    map[string][]int
	everyone  []int

	projects     []model.Project
	projectIndex map[string]int

	services     []model.Service
	serviceIndex map[string]int

	users     []model.User
	userIndex map[string]int

	notifications     []model.Notification
	notificationIndex map[string]int

	// counts holds the last snapshot size per collection. A collection
	// absent from the map has not delivered its baseline snapshot yet.
	counts map[string]int
}

// New returns an empty cache.
func New() *Cache {
	c := &Cache{}
	c.Reset()
	return c
}

// Reset clears all records, indexes and new-record baselines.
func (c *Cache) Reset() {
	*c = Cache{
		itemIndex:         map[string]int{},
		byProject:         map[string][]int{},
		byService:         map[string][]int{},
		byUser:            map[string][]int{},
		projectIndex:      map[string]int{},
		serviceIndex:      map[string]int{},
		userIndex:         map[string]int{},
		notificationIndex: map[string]int{},
		counts:            map[string]int{},
	}
}

// Apply replaces the full record set of a collection with a snapshot. The
// replacement is all-or-nothing: nothing is visible until every record is
// decoded. Records that fail to decode are logged and skipped.
func (c *Cache) Apply(collection string, docs []docstore.Document) (*NewRecordSignal, error) {
	switch collection {
	case model.CollectionWorkItems:
		items := decodeAll(docs, DecodeWorkItem)
		items, index := dedupe(items, func(w model.WorkItem) string { return w.ID })
		c.items, c.itemIndex = items, index
		c.indexWorkItems()
	case model.CollectionProjects:
		projects := decodeAll(docs, DecodeProject)
		c.projects, c.projectIndex = dedupe(projects, func(p model.Project) string { return p.ID })
	case model.CollectionServices:
		services := decodeAll(docs, DecodeService)
		c.services, c.serviceIndex = dedupe(services, func(s model.Service) string { return s.ID })
	case model.CollectionUsers:
		users := decodeAll(docs, DecodeUser)
		c.users, c.userIndex = dedupe(users, func(u model.User) string { return u.ID })
	case model.CollectionNotifications:
		notes := decodeAll(docs, DecodeNotification)
		c.notifications, c.notificationIndex = dedupe(notes, func(n model.Notification) string { return n.ID })
	default:
		return nil, fmt.Errorf("applying snapshot: unknown collection %q", collection)
	}

	return c.detectNewRecord(collection), nil
}

func (c *Cache) detectNewRecord(collection string) *NewRecordSignal {
	count := c.count(collection)
	prev, seen := c.counts[collection]
	c.counts[collection] = count

	if !seen || count <= prev {
		return nil
	}

	sig := &NewRecordSignal{Collection: collection, Previous: prev, Count: count}
	switch collection {
	case model.CollectionWorkItems:
		sig.RecordID, sig.Title = c.items[0].ID, c.items[0].Title
	case model.CollectionProjects:
		sig.RecordID, sig.Title = c.projects[0].ID, c.projects[0].Name
	case model.CollectionServices:
		sig.RecordID, sig.Title = c.services[0].ID, c.services[0].Name
	case model.CollectionUsers:
		sig.RecordID, sig.Title = c.users[0].ID, c.users[0].Name()
	case model.CollectionNotifications:
		sig.RecordID, sig.Title = c.notifications[0].ID, c.notifications[0].Title
	}
	return sig
}

func (c *Cache) count(collection string) int {
	switch collection {
	case model.CollectionWorkItems:
		return len(c.items)
	case model.CollectionProjects:
		return len(c.projects)
	case model.CollectionServices:
		return len(c.services)
	case model.CollectionUsers:
		return len(c.users)
	case model.CollectionNotifications:
		return len(c.notifications)
	}
	return 0
}

func (c *Cache) indexWorkItems() {
	c.byProject = map[string][]int{}
	c.byService = map[string][]int{}
	c.byUser = map[string][]int{}
	c.everyone = nil

	for i, w := range c.items {
		if w.ProjectID != "" {
			c.byProject[w.ProjectID] = append(c.byProject[w.ProjectID], i)
		}
		if w.ServiceID != "" {
			c.byService[w.ServiceID] = append(c.byService[w.ServiceID], i)
		}
		if w.AssignedTo.IsEveryone() {
			c.everyone = append(c.everyone, i)
			continue
		}
		for _, uid := range w.AssignedTo.IDs() {
			c.byUser[uid] = append(c.byUser[uid], i)
		}
	}
}

func decodeAll[T any](docs []docstore.Document, fn func(docstore.Document) (T, error)) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fn(d)
		if err != nil {
			log.Printf("cache: skipping record: %v", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// dedupe collapses records sharing an id. The last occurrence wins and keeps
// the position of the first.
func dedupe[T any](recs []T, id func(T) string) ([]T, map[string]int) {
	out := make([]T, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		key := id(r)
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out, index
}

func (c *Cache) pick(positions []int) []model.WorkItem {
	out := make([]model.WorkItem, len(positions))
	for i, p := range positions {
		out[i] = c.items[p]
	}
	return out
}

// WorkItems returns every work item in snapshot order.
func (c *Cache) WorkItems() []model.WorkItem {
	return slices.Clone(c.items)
}

// WorkItem looks up a work item by id.
func (c *Cache) WorkItem(id string) (model.WorkItem, bool) {
	i, ok := c.itemIndex[id]
	if !ok {
		return model.WorkItem{}, false
	}
	return c.items[i], true
}

// ByProject returns the work items of a project in snapshot order.
func (c *Cache) ByProject(projectID string) []model.WorkItem {
	return c.pick(c.byProject[projectID])
}

// ByService returns the work items of a service in snapshot order.
func (c *Cache) ByService(serviceID string) []model.WorkItem {
	return c.pick(c.byService[serviceID])
}

// ByAssignee returns the work items assigned to userID, including items
// assigned to everyone, in snapshot order.
func (c *Cache) ByAssignee(userID string) []model.WorkItem {
	positions := append(slices.Clone(c.byUser[userID]), c.everyone...)
	slices.Sort(positions)
	return c.pick(positions)
}

// SetWorkItemStatus overwrites the cached status of a work item until the
// next snapshot replaces it.
func (c *Cache) SetWorkItemStatus(id string, status model.Status) bool {
	i, ok := c.itemIndex[id]
	if !ok {
		return false
	}
	c.items[i].Status = status
	return true
}

// Projects returns every project in snapshot order.
func (c *Cache) Projects() []model.Project {
	return slices.Clone(c.projects)
}

// Project looks up a project by id.
func (c *Cache) Project(id string) (model.Project, bool) {
	i, ok := c.projectIndex[id]
	if !ok {
		return model.Project{}, false
	}
	return c.projects[i], true
}

// Services returns every service in snapshot order.
func (c *Cache) Services() []model.Service {
	return slices.Clone(c.services)
}

// Service looks up a service by id.
func (c *Cache) Service(id string) (model.Service, bool) {
	i, ok := c.serviceIndex[id]
	if !ok {
		return model.Service{}, false
	}
	return c.services[i], true
}

// ServicesByProject returns the services belonging to a project.
func (c *Cache) ServicesByProject(projectID string) []model.Service {
	var out []model.Service
	for _, s := range c.services {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out
}

// Users returns every user in snapshot order, one record per id.
func (c *Cache) Users() []model.User {
	return slices.Clone(c.users)
}

// User looks up a user by id.
func (c *Cache) User(id string) (model.User, bool) {
	i, ok := c.userIndex[id]
	if !ok {
		return model.User{}, false
	}
	return c.users[i], true
}

// UserIDs returns the ids of every known user.
func (c *Cache) UserIDs() []string {
	out := make([]string, len(c.users))
	for i, u := range c.users {
		out[i] = u.ID
	}
	return out
}

// Notifications returns the cached notifications in snapshot order.
func (c *Cache) Notifications() []model.Notification {
	return slices.Clone(c.notifications)
}

// Notification looks up a notification by id.
func (c *Cache) Notification(id string) (model.Notification, bool) {
	i, ok := c.notificationIndex[id]
	if !ok {
		return model.Notification{}, false
	}
	return c.notifications[i], true
}

// ProjectName resolves a project id for display.
func (c *Cache) ProjectName(id string) string {
	if p, ok := c.Project(id); ok && p.Name != "" {
		return p.Name
	}
	return "Unknown"
}

// ServiceName resolves a service id for display.
func (c *Cache) ServiceName(id string) string {
	if s, ok := c.Service(id); ok && s.Name != "" {
		return s.Name
	}
	return "Unknown"
}

// UserName resolves a user id for display.
func (c *Cache) UserName(id string) string {
	if u, ok := c.User(id); ok {
		return u.Name()
	}
	return "Unknown"
}

// AssigneeLabel renders an assignment for display.
func (c *Cache) AssigneeLabel(a model.Assignment) string {
	switch a.Kind() {
	case model.AssignNone:
		return "Unassigned"
	case model.AssignAll:
		return "Everyone"
	}
	names := make([]string, 0, len(a.IDs()))
	for _, id := range a.IDs() {
		names = append(names, c.UserName(id))
	}
	return strings.Join(names, ", ")
}

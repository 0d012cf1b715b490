package model

// Collection names on the backing document store.
const (
	CollectionWorkItems     = "tasks"
	CollectionProjects      = "projects"
	CollectionServices      = "services"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
)

// Collections lists every collection a signed-in session subscribes to.
var Collections = []string{
	CollectionWorkItems,
	CollectionProjects,
	CollectionServices,
	CollectionUsers,
	CollectionNotifications,
}

package model

// ViewKind selects which projection the UI shows.
type ViewKind int

const (
	ViewHome ViewKind = iota
	ViewList
	ViewBoard
	ViewEverything
	ViewProjectBoard
	ViewServiceBoard
	ViewInbox
)

func (v ViewKind) String() string {
	switch v {
	case ViewList:
		return "Tasks"
	case ViewBoard:
		return "Board"
	case ViewEverything:
		return "Everything"
	case ViewProjectBoard:
		return "Project"
	case ViewServiceBoard:
		return "Service"
	case ViewInbox:
		return "Inbox"
	}
	return "Home"
}

// QuickFilter narrows the list and board views by due date or completion.
type QuickFilter string

const (
	QuickAll       QuickFilter = "all"
	QuickToday     QuickFilter = "today"
	QuickUpcoming  QuickFilter = "upcoming"
	QuickCompleted QuickFilter = "completed"
)

// QuickFilters is the cycle order of the quick filter key.
var QuickFilters = []QuickFilter{QuickAll, QuickToday, QuickUpcoming, QuickCompleted}

// UnassignedFilter is the assignee filter value matching unassigned items.
const UnassignedFilter = "unassigned"

// Filters are the criteria of the everything view. Empty criteria pass.
type Filters struct {
	ProjectID string
	// Client is a free-text, case-insensitive match on title and description.
	Client   string
	Assignee string
	Status   Status
}

// IsZero reports whether no criterion is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Layout toggles between list and board presentation.
type Layout int

const (
	LayoutList Layout = iota
	LayoutBoard
)

// WorkTab is a tab of the personal work queue.
type WorkTab string

const (
	WorkTabTodo WorkTab = "todo"
	WorkTabDone WorkTab = "done"
)

// WorkSubfilter narrows the todo tab of the personal work queue.
type WorkSubfilter string

const (
	WorkToday       WorkSubfilter = "today"
	WorkOverdue     WorkSubfilter = "overdue"
	WorkNext        WorkSubfilter = "next"
	WorkUnscheduled WorkSubfilter = "unscheduled"
)

// InboxFilter narrows the inbox.
type InboxFilter string

const (
	InboxAll       InboxFilter = "all"
	InboxDeadlines InboxFilter = "deadlines"
	InboxAssigned  InboxFilter = "assigned"
	InboxUnread    InboxFilter = "unread"
)

// ViewState is the transient UI selection that drives projection.
type ViewState struct {
	Active    ViewKind
	Quick     QuickFilter
	Filters   Filters
	Layout    Layout
	ProjectID string
	ServiceID string
	WorkTab   WorkTab
	WorkSub   WorkSubfilter
	Inbox     InboxFilter
}

// DefaultViewState is the state a fresh session starts in.
func DefaultViewState() ViewState {
	return ViewState{
		Active:  ViewHome,
		Quick:   QuickAll,
		Layout:  LayoutList,
		WorkTab: WorkTabTodo,
		WorkSub: WorkToday,
		Inbox:   InboxAll,
	}
}

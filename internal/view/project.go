package view

import (
	"time"

	"github.com/nhle/worktrack/internal/model"
)

// Input is the cached state a projection is computed from.
type Input struct {
	Items         []model.WorkItem
	Services      []model.Service
	Notifications []model.Notification
	Actor         string
	Now           time.Time
}

// Projection is everything the active view renders.
type Projection struct {
	View model.ViewKind

	// Items is the flat list, newest first.
	Items []model.WorkItem

	// Lanes is set when the view is drawn as a board.
	Lanes []Lane

	Queue    []model.WorkItem
	Assigned []model.WorkItem
	Services []ServiceCount

	Inbox       []InboxEntry
	InboxCounts InboxCounts

	Badges Badges
}

// assignedPreview is how many assigned items the dashboard lists.
const assignedPreview = 10

// Project computes the projection for the active view. Badges are always
// filled in.
func Project(state model.ViewState, in Input) Projection {
	p := Projection{
		View:   state.Active,
		Badges: Count(in.Items, in.Notifications, in.Actor, in.Now),
	}

	switch state.Active {
	case model.ViewHome:
		p.Queue = WorkQueue(in.Items, state.WorkTab, state.WorkSub, in.Now)
		p.Assigned = AssignedToMe(in.Items, in.Actor, assignedPreview)
	case model.ViewList:
		p.Items = List(ApplyQuick(in.Items, state.Quick, in.Now), model.Filters{})
	case model.ViewBoard:
		quick := ApplyQuick(in.Items, state.Quick, in.Now)
		p.Items = List(quick, model.Filters{})
		p.Lanes = Board(quick, model.Filters{})
	case model.ViewEverything:
		p.Items = List(in.Items, state.Filters)
		if state.Layout == model.LayoutBoard {
			p.Lanes = Board(in.Items, state.Filters)
		}
	case model.ViewProjectBoard:
		f := model.Filters{ProjectID: state.ProjectID}
		p.Items = List(in.Items, f)
		p.Lanes = Board(in.Items, f)
		p.Services = ServicesWithCounts(in.Services, in.Items, state.ProjectID)
	case model.ViewServiceBoard:
		var scoped []model.WorkItem
		for _, w := range in.Items {
			if w.ServiceID == state.ServiceID {
				scoped = append(scoped, w)
			}
		}
		p.Items = List(scoped, model.Filters{})
		p.Lanes = Board(scoped, model.Filters{})
	case model.ViewInbox:
		p.Inbox, p.InboxCounts = Inbox(in.Notifications, in.Items, in.Actor, state.Inbox)
	}

	return p
}

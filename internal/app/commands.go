package app

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/ui/command"
)

// ErrUnknownCommand is reported for palette input that matches no command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrNoMatch is reported when a command argument names no cached record.
var ErrNoMatch = errors.New("no match")

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (Model, tea.Cmd) {
	vs := m.state.ViewState()

	switch c.Name {
	case "home":
		return m.switchView(model.ViewHome), nil
	case "list", "tasks":
		return m.switchView(model.ViewList), nil
	case "board":
		return m.switchView(model.ViewBoard), nil
	case "everything", "all-tasks":
		return m.switchView(model.ViewEverything), nil
	case "inbox":
		return m.switchView(model.ViewInbox), nil
	case "projects":
		m.screen = ScreenProjects
		return m, nil
	case "new":
		return m.openForm(nil)
	case "dismiss-alerts":
		m.state.ClearAlerts()
		return m, nil
	case "refresh", "sync":
		m.state.Refresh()
		return m, nil
	case "signout", "logout":
		return m.signOut()
	case "quit", "q":
		m.state.Shutdown()
		return m, tea.Quit

	case "all", "today", "upcoming", "completed":
		if vs.Active != model.ViewList && vs.Active != model.ViewBoard {
			vs.Active = model.ViewList
		}
		vs.Quick = model.QuickFilter(c.Name)
		return m.apply(vs), nil

	case "open":
		p, err := m.findProject(c.Arg)
		if err != nil {
			return m, m.state.fail("Open Failed", err)
		}
		vs.Active, vs.ProjectID, vs.ServiceID = model.ViewProjectBoard, p.ID, ""
		return m.apply(vs), nil

	case "service":
		s, err := m.findService(c.Arg)
		if err != nil {
			return m, m.state.fail("Open Failed", err)
		}
		vs.Active, vs.ProjectID, vs.ServiceID = model.ViewServiceBoard, s.ProjectID, s.ID
		return m.apply(vs), nil

	case "project":
		p, err := m.findProject(c.Arg)
		if err != nil {
			return m, m.state.fail("Filter Failed", err)
		}
		vs.Filters.ProjectID = p.ID
	case "client":
		vs.Filters.Client = c.Arg
	case "assignee":
		id, err := m.findAssignee(c.Arg)
		if err != nil {
			return m, m.state.fail("Filter Failed", err)
		}
		vs.Filters.Assignee = id
	case "status":
		st, err := parseStatus(c.Arg)
		if err != nil {
			return m, m.state.fail("Filter Failed", err)
		}
		vs.Filters.Status = st
	case "clear":
		vs.Filters = model.Filters{}
		vs.Quick = model.QuickAll

	default:
		return m, m.state.fail("Command Failed", fmt.Errorf("%w: %s", ErrUnknownCommand, c.Name))
	}

	// Remaining commands edit the everything filters.
	vs.Active = model.ViewEverything
	return m.apply(vs), nil
}

func (m Model) apply(vs model.ViewState) Model {
	m.state.SetViewState(vs)
	m.screen = ScreenMain
	return m
}

func matches(name, query string) bool {
	return strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(query))
}

func (m Model) findProject(name string) (model.Project, error) {
	for _, p := range m.state.Cache().Projects() {
		if matches(p.Name, name) {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("project %q: %w", name, ErrNoMatch)
}

func (m Model) findService(name string) (model.Service, error) {
	for _, s := range m.state.Cache().Services() {
		if matches(s.Name, name) {
			return s, nil
		}
	}
	return model.Service{}, fmt.Errorf("service %q: %w", name, ErrNoMatch)
}

func (m Model) findAssignee(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return "", nil
	case model.UnassignedFilter:
		return model.UnassignedFilter, nil
	case "me":
		if sess, ok := m.state.Session(); ok {
			return sess.UserID, nil
		}
	}
	for _, u := range m.state.Cache().Users() {
		if matches(u.Name(), name) || matches(u.Email, name) {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("user %q: %w", name, ErrNoMatch)
}

func parseStatus(s string) (model.Status, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	for _, st := range model.Lanes {
		if matches(string(st), s) || matches(st.Label(), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("status %q: %w", s, ErrNoMatch)
}

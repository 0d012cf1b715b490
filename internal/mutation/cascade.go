package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

// CascadeResultMsg is a tea.Msg reporting a cascading delete. Children that
// failed to delete stay behind; nothing is restored.
type CascadeResultMsg struct {
	Collection string
	ID         string
	Deleted    int
	Failed     int
	Err        error
}

type target struct {
	collection string
	id         string
}

// CreateProject creates a project owned by actor.
func (c *Coordinator) CreateProject(actor Actor, name, color string) (tea.Cmd, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("creating project: %w", ErrNameRequired)
	}
	id := c.newID()
	fields := model.Project{Name: name, Color: color, OwnerID: actor.UserID}.Fields()
	return c.write(OpCreate, model.CollectionProjects, id, func(ctx context.Context) error {
		_, err := c.writer.Create(ctx, model.CollectionProjects, id, fields)
		return err
	}, nil), nil
}

// CreateService creates a service under a project.
func (c *Coordinator) CreateService(actor Actor, projectID, name, description string) (tea.Cmd, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, fmt.Errorf("creating service: %w", ErrNameRequired)
	case projectID == "":
		return nil, fmt.Errorf("creating service: %w", ErrProjectRequired)
	}
	id := c.newID()
	fields := model.Service{
		Name:        name,
		Description: strings.TrimSpace(description),
		ProjectID:   projectID,
		OwnerID:     actor.UserID,
	}.Fields()
	return c.write(OpCreate, model.CollectionServices, id, func(ctx context.Context) error {
		_, err := c.writer.Create(ctx, model.CollectionServices, id, fields)
		return err
	}, nil), nil
}

// DeleteProject deletes a project, then its services, then the work items
// of the project or of any of those services.
func (c *Coordinator) DeleteProject(id string) tea.Cmd {
	var children []target
	itemSeen := map[string]bool{}
	addItem := func(w model.WorkItem) {
		if !itemSeen[w.ID] {
			itemSeen[w.ID] = true
			children = append(children, target{model.CollectionWorkItems, w.ID})
		}
	}

	services := c.cache.ServicesByProject(id)
	for _, s := range services {
		children = append(children, target{model.CollectionServices, s.ID})
	}
	for _, w := range c.cache.ByProject(id) {
		addItem(w)
	}
	for _, s := range services {
		for _, w := range c.cache.ByService(s.ID) {
			addItem(w)
		}
	}

	return c.cascade(target{model.CollectionProjects, id}, children)
}

// DeleteService deletes a service, then its work items.
func (c *Coordinator) DeleteService(id string) tea.Cmd {
	var children []target
	for _, w := range c.cache.ByService(id) {
		children = append(children, target{model.CollectionWorkItems, w.ID})
	}
	return c.cascade(target{model.CollectionServices, id}, children)
}

// cascade deletes the parent first. If that fails nothing else is touched;
// otherwise every child is attempted and failures are collected.
func (c *Coordinator) cascade(parent target, children []target) tea.Cmd {
	writer, timeout := c.writer, c.timeout
	return func() tea.Msg {
		res := CascadeResultMsg{Collection: parent.collection, ID: parent.id}

		del := func(t target) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			err := writer.Delete(ctx, t.collection, t.id)
			if errors.Is(err, docstore.ErrNotFound) {
				return nil
			}
			return err
		}

		if err := del(parent); err != nil {
			res.Err = fmt.Errorf("deleting %s %s: %w", parent.collection, parent.id, err)
			return res
		}
		res.Deleted++

		var errs []error
		for _, t := range children {
			if err := del(t); err != nil {
				res.Failed++
				errs = append(errs, fmt.Errorf("deleting %s %s: %w", t.collection, t.id, err))
				continue
			}
			res.Deleted++
		}
		res.Err = errors.Join(errs...)
		return res
	}
}

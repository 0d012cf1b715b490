package projectmgr

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
)

// CloseMsg signals the parent to close the project view.
type CloseMsg struct{}

// OpenMsg asks the parent to show the board of a project, or of a service
// when ServiceID is set.
type OpenMsg struct {
	ProjectID string
	ServiceID string
}

// CreateProjectMsg asks the parent to create a project.
type CreateProjectMsg struct {
	Name  string
	Color string
}

// CreateServiceMsg asks the parent to create a service.
type CreateServiceMsg struct {
	ProjectID   string
	Name        string
	Description string
}

// DeleteMsg asks the parent to delete a project or service with everything
// under it.
type DeleteMsg struct {
	Collection string
	ID         string
}

type mode int

const (
	modeList mode = iota
	modeProjectForm
	modeServiceForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	color       string
	confirm     bool
}

// row is one line of the tree: a project, or a service under it.
type row struct {
	project model.Project
	service *model.Service
	count   int
}

func (r row) collection() string {
	if r.service != nil {
		return model.CollectionServices
	}
	return model.CollectionProjects
}

func (r row) id() string {
	if r.service != nil {
		return r.service.ID
	}
	return r.project.ID
}

func (r row) name() string {
	if r.service != nil {
		return r.service.Name
	}
	return r.project.Name
}

// Model is the Bubble Tea model for project and service management.
type Model struct {
	mode        mode
	keys        *keys.KeyMap
	rows        []row
	selectedIdx int
	form        *huh.Form
	fb          *formBindings
	width       int
	height      int
}

// New creates a new project manager model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// SetData rebuilds the tree. counts maps project and service ids to the
// number of work items under them.
func (m *Model) SetData(projects []model.Project, services []model.Service, counts map[string]int) {
	byProject := map[string][]model.Service{}
	for _, s := range services {
		byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
	}

	m.rows = m.rows[:0]
	for _, p := range projects {
		m.rows = append(m.rows, row{project: p, count: counts[p.ID]})
		for _, s := range byProject[p.ID] {
			s := s
			m.rows = append(m.rows, row{project: p, service: &s, count: counts[s.ID]})
		}
	}
	if m.selectedIdx >= len(m.rows) {
		m.selectedIdx = max(len(m.rows)-1, 0)
	}
}

// Busy reports whether a form has the keyboard.
func (m Model) Busy() bool { return m.mode != modeList }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeList {
		if km, ok := msg.(tea.KeyMsg); ok {
			return m.handleListKey(km)
		}
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.rows) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.rows)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.rows) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.rows) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.rows) == 0 {
			return m, nil
		}
		r := m.rows[m.selectedIdx]
		open := OpenMsg{ProjectID: r.project.ID}
		if r.service != nil {
			open.ServiceID = r.service.ID
		}
		return m, func() tea.Msg { return open }

	case msg.String() == "n":
		*m.fb = formBindings{color: "#5B9BD5"}
		m.form = m.buildProjectForm()
		m.mode = modeProjectForm
		return m, m.form.Init()

	case msg.String() == "s":
		if len(m.rows) == 0 {
			return m, nil
		}
		*m.fb = formBindings{}
		m.form = m.buildServiceForm(m.rows[m.selectedIdx].project.Name)
		m.mode = modeServiceForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.rows) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.form = m.buildConfirmForm(m.rows[m.selectedIdx])
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (m Model) buildProjectForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Placeholder("Client or project").
				Value(&m.fb.name).
				Validate(validateName),
			huh.NewInput().
				Title("Color").
				Placeholder("#5B9BD5").
				Value(&m.fb.color),
		),
	).WithKeyMap(keys.FormKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildServiceForm(project string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("New Service in %s", project)).
				Placeholder("Service name").
				Value(&m.fb.name).
				Validate(validateName),
			huh.NewText().
				Title("Description").
				Placeholder("Optional description").
				Value(&m.fb.description),
		),
	).WithKeyMap(keys.FormKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(r row) *huh.Form {
	kind, under := "project", "Its services and all of their tasks will be deleted too."
	if r.service != nil {
		kind, under = "service", "All of its tasks will be deleted too."
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s %q?", kind, r.name())).
				Description(under).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithKeyMap(keys.FormKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.mode, m.form = modeList, nil
		return m, nil
	case huh.StateCompleted:
		done := m.mode
		m.mode, m.form = modeList, nil
		return m, m.submit(done)
	}
	return m, cmd
}

func (m Model) submit(done mode) tea.Cmd {
	fb := *m.fb
	var msg tea.Msg
	switch done {
	case modeProjectForm:
		msg = CreateProjectMsg{Name: fb.name, Color: strings.TrimSpace(fb.color)}
	case modeServiceForm:
		msg = CreateServiceMsg{
			ProjectID:   m.rows[m.selectedIdx].project.ID,
			Name:        fb.name,
			Description: fb.description,
		}
	case modeConfirmDelete:
		if !fb.confirm {
			return nil
		}
		r := m.rows[m.selectedIdx]
		msg = DeleteMsg{Collection: r.collection(), ID: r.id()}
	default:
		return nil
	}
	return func() tea.Msg { return msg }
}

// View renders the project manager.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(theme.HelpStyle.Render("No projects yet. Press 'n' to create one."))
	}
	for i, r := range m.rows {
		var label string
		if r.service != nil {
			label = fmt.Sprintf("   └ %s (%d)", r.service.Name, r.count)
		} else {
			swatch := "■"
			if r.project.Color != "" {
				swatch = lipgloss.NewStyle().Foreground(lipgloss.Color(r.project.Color)).Render("■")
			}
			label = fmt.Sprintf("%s %s (%d)", swatch, r.project.Name, r.count)
		}

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(
		"enter open board | n new project | s new service | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

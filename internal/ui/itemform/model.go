// Package itemform is the create/edit form for work items.
package itemform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/mutation"
	"github.com/nhle/worktrack/internal/theme"
)

// SubmittedMsg is dispatched when the form is completed. ID is empty for a
// new item.
type SubmittedMsg struct {
	ID    string
	Draft mutation.Draft
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// Options are the records the selectors offer.
type Options struct {
	Projects []model.Project
	Services []model.Service
	Users    []model.User
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	dueDate     string
	serviceKey  string
	assignees   []string
	tags        string
	checklist   string
}

// Model is the Bubble Tea model for the work item form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	editID string
	opts   Options
	width  int
	height int

	// base carries the fields of an edited item the form does not show.
	base mutation.Draft
}

// New creates a new form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		width:  width,
		height: height,
	}
}

// SetOptions sets the records offered by the selectors.
func (m *Model) SetOptions(opts Options) {
	m.opts = opts
}

// StartCreate initializes the form for a new item.
func (m *Model) StartCreate() tea.Cmd {
	m.editID = ""
	m.base = mutation.Draft{}
	*m.fb = formBindings{priority: model.PriorityMedium}
	if len(m.opts.Services) > 0 {
		m.fb.serviceKey = serviceKey(m.opts.Services[0])
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing item.
func (m *Model) StartEdit(w model.WorkItem) tea.Cmd {
	m.editID = w.ID
	m.base = mutation.DraftOf(w)
	*m.fb = formBindings{
		title:       w.Title,
		description: w.Description,
		priority:    w.Priority,
		serviceKey:  w.ProjectID + "/" + w.ServiceID,
		tags:        strings.Join(w.Tags, ", "),
	}
	if m.fb.priority == "" {
		m.fb.priority = model.PriorityMedium
	}
	if w.DueDate != nil {
		m.fb.dueDate = w.DueDate.Local().Format(model.DateLayout)
	}
	if w.AssignedTo.IsEveryone() {
		m.fb.assignees = []string{model.EveryoneSentinel}
	} else {
		m.fb.assignees = w.AssignedTo.IDs()
	}
	lines := make([]string, len(w.Checklist))
	for i, c := range w.Checklist {
		lines[i] = c.Text
	}
	m.fb.checklist = strings.Join(lines, "\n")

	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing item.
func (m Model) Editing() bool { return m.editID != "" }

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.Editing() {
		titleText = "Edit Task"
	}

	content := theme.TitleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func serviceKey(s model.Service) string {
	return s.ProjectID + "/" + s.ID
}

func (m *Model) buildForm() *huh.Form {
	projectNames := map[string]string{}
	for _, p := range m.opts.Projects {
		projectNames[p.ID] = p.Name
	}
	services := make([]huh.Option[string], 0, len(m.opts.Services))
	for _, s := range m.opts.Services {
		label := s.Name
		if name, ok := projectNames[s.ProjectID]; ok {
			label = name + " / " + s.Name
		}
		services = append(services, huh.NewOption(label, serviceKey(s)))
	}

	people := []huh.Option[string]{huh.NewOption("Everyone", model.EveryoneSentinel)}
	for _, u := range m.opts.Users {
		people = append(people, huh.NewOption(u.Name(), u.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Project / Service").
				Options(services...).
				Value(&m.fb.serviceKey).
				Validate(validateRequired("Service")),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Assign To").
				Options(people...).
				Value(&m.fb.assignees),
			huh.NewInput().
				Title("Tags").
				Placeholder("comma separated").
				Value(&m.fb.tags),
			huh.NewText().
				Title("Checklist").
				Placeholder("one entry per line").
				Value(&m.fb.checklist),
		),
	).WithKeyMap(keys.FormKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	projectID, serviceID, _ := strings.Cut(m.fb.serviceKey, "/")

	d := m.base
	d.Title = m.fb.title
	d.Description = m.fb.description
	d.Priority = m.fb.priority
	d.ProjectID, d.ServiceID = projectID, serviceID
	d.AssignedTo = model.AssignTo(m.fb.assignees...)
	d.Tags = splitTags(m.fb.tags)
	d.Checklist = mergeChecklist(m.base.Checklist, m.fb.checklist)
	d.DueDate = nil
	if s := strings.TrimSpace(m.fb.dueDate); s != "" {
		// A date-only due date means the end of that day.
		if t, err := time.ParseInLocation(model.DateLayout, s, time.Local); err == nil {
			t = t.Add(24*time.Hour - time.Minute)
			d.DueDate = &t
		}
	}

	msg := SubmittedMsg{ID: m.editID, Draft: d}
	return func() tea.Msg { return msg }
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// mergeChecklist keeps the completion of lines whose text is unchanged.
func mergeChecklist(existing []model.ChecklistEntry, text string) []model.ChecklistEntry {
	done := map[string]bool{}
	for _, e := range existing {
		done[e.Text] = e.Completed
	}
	var out []model.ChecklistEntry
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, model.ChecklistEntry{Text: line, Completed: done[line]})
		}
	}
	return out
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

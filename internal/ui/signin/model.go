package signin

import (
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/theme"
)

// SubmittedMsg carries the email the user signs in with.
type SubmittedMsg struct {
	Email string
}

type formBindings struct {
	email string
}

// Model is the sign-in screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	err    string
	width  int
	height int
}

// New creates a sign-in screen.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start resets the form.
func (m *Model) Start() tea.Cmd {
	m.fb.email = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
		),
	).WithKeyMap(keys.FormKeyMap()).WithWidth(min(max(m.width-4, 40), 80))
	return m.form.Init()
}

// SetError shows a sign-in failure under the form.
func (m *Model) SetError(err error) {
	m.err = ""
	if err != nil {
		m.err = err.Error()
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		email := strings.TrimSpace(m.fb.email)
		m.err = ""
		return m, tea.Batch(m.Start(), func() tea.Msg { return SubmittedMsg{Email: email} })
	case huh.StateAborted:
		return m, m.Start()
	}
	return m, cmd
}

// View renders the sign-in screen.
func (m Model) View() string {
	parts := []string{theme.TitleStyle.Render("Sign in"), ""}
	if m.form != nil {
		parts = append(parts, m.form.View())
	}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

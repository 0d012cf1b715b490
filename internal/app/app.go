package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/worktrack/internal/identity"
	"github.com/nhle/worktrack/internal/keys"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/theme"
	"github.com/nhle/worktrack/internal/ui"
	"github.com/nhle/worktrack/internal/ui/board"
	"github.com/nhle/worktrack/internal/ui/command"
	"github.com/nhle/worktrack/internal/ui/detail"
	helpview "github.com/nhle/worktrack/internal/ui/help"
	"github.com/nhle/worktrack/internal/ui/home"
	"github.com/nhle/worktrack/internal/ui/inbox"
	"github.com/nhle/worktrack/internal/ui/itemform"
	"github.com/nhle/worktrack/internal/ui/itemlist"
	"github.com/nhle/worktrack/internal/ui/projectmgr"
	"github.com/nhle/worktrack/internal/ui/signin"
)

// sessionMsg carries the outcome of restoring or starting a session.
type sessionMsg struct {
	session identity.Session
	err     error
}

// Screen is what currently owns the terminal. The main screen renders the
// active view of the session state.
type Screen int

const (
	ScreenSignIn Screen = iota
	ScreenMain
	ScreenDetail
	ScreenForm
	ScreenProjects
	ScreenHelp
	ScreenCommand
)

// Model is the root Bubble Tea model that manages screen routing,
// layout, and the signed-in session.
type Model struct {
	state    *State
	provider *identity.Provider
	keys     *keys.KeyMap
	layout   ui.Layout
	ready    bool

	screen   Screen
	previous Screen

	signIn   signin.Model
	home     home.Model
	list     itemlist.Model
	board    board.Model
	inbox    inbox.Model
	detail   detail.Model
	form     itemform.Model
	projects projectmgr.Model
	help     helpview.Model
	command  command.Model
}

// New creates the root model around a session state and identity provider.
func New(state *State, provider *identity.Provider) Model {
	k := keys.DefaultKeyMap()
	return Model{
		state:    state,
		provider: provider,
		keys:     k,
		screen:   ScreenSignIn,
		signIn:   signin.New(80, 24),
		home:     home.New(k, 80, 24),
		list:     itemlist.New(k, 80, 24),
		board:    board.New(k, 80, 24),
		inbox:    inbox.New(k, 80, 24),
		detail:   detail.New(k, 80, 24),
		form:     itemform.New(80, 24),
		projects: projectmgr.New(k, 80, 24),
		help:     helpview.New(k, 80, 24),
		command:  command.New(80, 24),
	}
}

// Screen returns the screen currently shown.
func (m Model) Screen() Screen { return m.screen }

// Init restores a stored session, if there is one.
func (m Model) Init() tea.Cmd {
	p := m.provider
	return func() tea.Msg {
		sess, err := p.Current()
		return sessionMsg{session: sess, err: err}
	}
}

// Update handles messages and keeps the visible views in step with the
// session state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	syncCmd := next.sync()
	return next, tea.Batch(cmd, syncCmd)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	if cmd, ok := m.state.Update(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.signIn.SetSize(w, h)
		m.home.SetSize(w, h)
		m.list.SetSize(w, h)
		m.board.SetSize(w, h)
		m.inbox.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.form.SetSize(w, h)
		m.projects.SetSize(w, h)
		m.help.SetSize(w, h)
		m.command.SetSize(w, h)
		// Forward to the active screen so huh forms can calculate their layout.
		return m.updateActive(msg)

	case sessionMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, identity.ErrNoSession) {
				m.signIn.SetError(msg.err)
			}
			m.screen = ScreenSignIn
			return m, m.signIn.Start()
		}
		m.signIn.SetError(nil)
		m.screen = ScreenMain
		return m, m.state.Start(msg.session)

	case signin.SubmittedMsg:
		p := m.provider
		return m, func() tea.Msg {
			sess, err := p.SignIn(msg.Email)
			return sessionMsg{session: sess, err: err}
		}

	case itemlist.SelectedMsg:
		return m.openDetail(msg.ID), nil

	case detail.BackMsg:
		m.detail.Clear()
		m.screen = ScreenMain
		return m, nil

	case detail.ActionMsg:
		return m.handleAction(msg)

	case itemform.SubmittedMsg:
		m.screen = m.previous
		if msg.ID == "" {
			return m, m.state.CreateWorkItem(msg.Draft)
		}
		return m, m.state.UpdateWorkItem(msg.ID, msg.Draft)

	case itemform.CancelMsg:
		m.screen = m.previous
		return m, nil

	case home.QueueMsg:
		vs := m.state.ViewState()
		vs.WorkTab, vs.WorkSub = msg.Tab, msg.Sub
		m.state.SetViewState(vs)
		return m, nil

	case inbox.FilterMsg:
		vs := m.state.ViewState()
		vs.Inbox = msg.Filter
		m.state.SetViewState(vs)
		return m, nil

	case inbox.MarkReadMsg:
		return m, m.state.MarkRead(msg.ID)

	case inbox.MarkAllReadMsg:
		return m, m.state.MarkAllRead()

	case inbox.DismissMsg:
		return m, m.state.Dismiss(msg.ID)

	case projectmgr.CloseMsg:
		m.screen = ScreenMain
		return m, nil

	case projectmgr.OpenMsg:
		vs := m.state.ViewState()
		vs.ProjectID, vs.ServiceID = msg.ProjectID, msg.ServiceID
		vs.Active = model.ViewProjectBoard
		if msg.ServiceID != "" {
			vs.Active = model.ViewServiceBoard
		}
		m.state.SetViewState(vs)
		m.screen = ScreenMain
		return m, nil

	case projectmgr.CreateProjectMsg:
		return m, m.state.CreateProject(msg.Name, msg.Color)

	case projectmgr.CreateServiceMsg:
		return m, m.state.CreateService(msg.ProjectID, msg.Name, msg.Description)

	case projectmgr.DeleteMsg:
		if msg.Collection == model.CollectionServices {
			return m, m.state.DeleteService(msg.ID)
		}
		return m, m.state.DeleteProject(msg.ID)

	case command.CommandMsg:
		if m.screen == ScreenCommand {
			m.screen = m.previous
		}
		return m.executeCommand(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state.Shutdown()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m.updateActive(msg)
}

// handleKey applies global keys, leaving the rest to the active screen.
// Screens that take text input get every key.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.screen {
	case ScreenSignIn, ScreenForm:
		return m.updateActive(msg)
	case ScreenProjects:
		if m.projects.Busy() {
			return m.updateActive(msg)
		}
	case ScreenCommand:
		if key.Matches(msg, m.keys.Back) {
			m.screen = m.previous
			return m, nil
		}
		return m.updateActive(msg)
	case ScreenHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.screen = m.previous
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previous, m.screen = m.screen, ScreenHelp
		return m, nil
	case key.Matches(msg, m.keys.Command):
		m.previous, m.screen = m.screen, ScreenCommand
		return m, m.command.Focus()
	case key.Matches(msg, m.keys.SignOut):
		return m.signOut()
	case key.Matches(msg, m.keys.Refresh):
		m.state.Refresh()
		return m, nil
	}

	if m.screen != ScreenMain {
		return m.updateActive(msg)
	}

	vs := m.state.ViewState()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state.Shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Home):
		return m.switchView(model.ViewHome), nil
	case key.Matches(msg, m.keys.List):
		return m.switchView(model.ViewList), nil
	case key.Matches(msg, m.keys.Board):
		return m.switchView(model.ViewBoard), nil
	case key.Matches(msg, m.keys.Everything):
		return m.switchView(model.ViewEverything), nil
	case key.Matches(msg, m.keys.Inbox):
		return m.switchView(model.ViewInbox), nil
	case key.Matches(msg, m.keys.Projects):
		m.screen = ScreenProjects
		return m, nil
	case key.Matches(msg, m.keys.New):
		return m.openForm(nil)
	case key.Matches(msg, m.keys.Back):
		return m.back(), nil
	case key.Matches(msg, m.keys.CycleQuick) && (vs.Active == model.ViewList || vs.Active == model.ViewBoard):
		vs.Quick = nextQuick(vs.Quick)
		m.state.SetViewState(vs)
		return m, nil
	case key.Matches(msg, m.keys.CycleLayout) && vs.Active == model.ViewEverything:
		if vs.Layout == model.LayoutBoard {
			vs.Layout = model.LayoutList
		} else {
			vs.Layout = model.LayoutBoard
		}
		m.state.SetViewState(vs)
		return m, nil
	}

	if id, ok := m.selectedID(); ok {
		switch {
		case key.Matches(msg, m.keys.Edit):
			return m.handleAction(detail.ActionMsg{Action: detail.ActionEdit, ID: id})
		case key.Matches(msg, m.keys.Delete):
			return m.handleAction(detail.ActionMsg{Action: detail.ActionDelete, ID: id})
		case key.Matches(msg, m.keys.Complete):
			return m.handleAction(detail.ActionMsg{Action: detail.ActionToggleComplete, ID: id})
		case key.Matches(msg, m.keys.MoveLeft):
			return m.handleAction(detail.ActionMsg{Action: detail.ActionMoveLeft, ID: id})
		case key.Matches(msg, m.keys.MoveRight):
			return m.handleAction(detail.ActionMsg{Action: detail.ActionMoveRight, ID: id})
		}
	}

	return m.updateActive(msg)
}

func nextQuick(q model.QuickFilter) model.QuickFilter {
	for i, x := range model.QuickFilters {
		if x == q {
			return model.QuickFilters[(i+1)%len(model.QuickFilters)]
		}
	}
	return model.QuickAll
}

func (m Model) switchView(kind model.ViewKind) Model {
	vs := m.state.ViewState()
	vs.Active = kind
	m.state.SetViewState(vs)
	m.screen = ScreenMain
	return m
}

// back leaves a scoped board for its parent.
func (m Model) back() Model {
	vs := m.state.ViewState()
	switch vs.Active {
	case model.ViewServiceBoard:
		if s, ok := m.state.Cache().Service(vs.ServiceID); ok {
			vs.Active, vs.ProjectID, vs.ServiceID = model.ViewProjectBoard, s.ProjectID, ""
			m.state.SetViewState(vs)
			return m
		}
		m.screen = ScreenProjects
	case model.ViewProjectBoard:
		m.screen = ScreenProjects
	}
	return m
}

func (m Model) signOut() (Model, tea.Cmd) {
	err := m.provider.SignOut()
	m.state.Stop()
	m.detail.Clear()
	m.screen = ScreenSignIn
	m.signIn.SetError(err)
	return m, m.signIn.Start()
}

func (m Model) openDetail(id string) Model {
	w, ok := m.state.Cache().WorkItem(id)
	if !ok {
		return m
	}
	m.detail.SetItem(w, m.names(w))
	if m.screen != ScreenDetail {
		m.previous = m.screen
	}
	m.screen = ScreenDetail
	return m
}

func (m Model) names(w model.WorkItem) detail.Names {
	c := m.state.Cache()
	return detail.Names{
		Project:  c.ProjectName(w.ProjectID),
		Service:  c.ServiceName(w.ServiceID),
		Assignee: c.AssigneeLabel(w.AssignedTo),
		Owner:    c.UserName(w.OwnerUserID),
	}
}

// openForm starts the item form, editing w when it is set.
func (m Model) openForm(w *model.WorkItem) (Model, tea.Cmd) {
	c := m.state.Cache()
	m.form.SetOptions(itemform.Options{
		Projects: c.Projects(),
		Services: c.Services(),
		Users:    c.Users(),
	})
	if m.screen != ScreenForm {
		m.previous = m.screen
	}
	m.screen = ScreenForm
	if w == nil {
		return m, m.form.StartCreate()
	}
	return m, m.form.StartEdit(*w)
}

func (m Model) handleAction(msg detail.ActionMsg) (Model, tea.Cmd) {
	switch msg.Action {
	case detail.ActionEdit:
		w, ok := m.state.Cache().WorkItem(msg.ID)
		if !ok {
			return m, nil
		}
		return m.openForm(&w)
	case detail.ActionDelete:
		if m.screen == ScreenDetail {
			m.detail.Clear()
			m.screen = m.previous
		}
		return m, m.state.DeleteWorkItem(msg.ID)
	case detail.ActionToggleComplete:
		return m, m.state.ToggleComplete(msg.ID)
	case detail.ActionChecklist:
		return m, m.state.ToggleChecklistEntry(msg.ID, msg.Index)
	case detail.ActionMoveLeft:
		return m, m.state.ShiftLane(msg.ID, -1)
	case detail.ActionMoveRight:
		return m, m.state.ShiftLane(msg.ID, 1)
	}
	return m, nil
}

// selectedID returns the work item under the cursor of the active view.
func (m Model) selectedID() (string, bool) {
	switch m.state.ViewState().Active {
	case model.ViewHome:
		return m.home.SelectedID()
	case model.ViewInbox:
		return "", false
	}
	if m.showsBoard() {
		return m.board.SelectedID()
	}
	return m.list.SelectedID()
}

func (m Model) showsBoard() bool {
	vs := m.state.ViewState()
	switch vs.Active {
	case model.ViewBoard, model.ViewProjectBoard, model.ViewServiceBoard:
		return true
	case model.ViewEverything:
		return vs.Layout == model.LayoutBoard
	}
	return false
}

// updateActive dispatches the message to the screen that owns the terminal.
func (m Model) updateActive(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.screen {
	case ScreenSignIn:
		m.signIn, cmd = m.signIn.Update(msg)
	case ScreenDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ScreenForm:
		m.form, cmd = m.form.Update(msg)
	case ScreenProjects:
		m.projects, cmd = m.projects.Update(msg)
	case ScreenCommand:
		m.command, cmd = m.command.Update(msg)
	case ScreenMain:
		switch m.state.ViewState().Active {
		case model.ViewHome:
			m.home, cmd = m.home.Update(msg)
		case model.ViewInbox:
			m.inbox, cmd = m.inbox.Update(msg)
		default:
			if m.showsBoard() {
				m.board, cmd = m.board.Update(msg)
			} else {
				m.list, cmd = m.list.Update(msg)
			}
		}
	}

	return m, cmd
}

// sync copies the current projection into the views that render it.
func (m *Model) sync() tea.Cmd {
	if _, ok := m.state.Session(); !ok {
		return nil
	}
	p, vs, c, now := m.state.Projection(), m.state.ViewState(), m.state.Cache(), time.Now()

	var cmd tea.Cmd
	switch vs.Active {
	case model.ViewHome:
		m.home.SetData(p, vs, c, now)
	case model.ViewInbox:
		m.inbox.SetEntries(p.Inbox, p.InboxCounts, vs.Inbox)
	default:
		m.list.SetTitle(m.viewTitle())
		cmd = m.list.SetItems(p.Items, c, now)
		m.board.SetLanes(p.Lanes, c, now)
	}

	if id := m.detail.ItemID(); id != "" {
		if w, ok := c.WorkItem(id); ok {
			m.detail.SetItem(w, m.names(w))
		} else {
			m.detail.Clear()
		}
	}

	if m.screen == ScreenProjects {
		counts := map[string]int{}
		for _, p := range c.Projects() {
			counts[p.ID] = len(c.ByProject(p.ID))
		}
		for _, s := range c.Services() {
			counts[s.ID] = len(c.ByService(s.ID))
		}
		m.projects.SetData(c.Projects(), c.Services(), counts)
	}
	return cmd
}

func (m Model) viewTitle() string {
	vs := m.state.ViewState()
	c := m.state.Cache()
	switch vs.Active {
	case model.ViewList, model.ViewBoard:
		if vs.Quick != model.QuickAll {
			return fmt.Sprintf("%s: %s", vs.Active, vs.Quick)
		}
	case model.ViewProjectBoard:
		return c.ProjectName(vs.ProjectID)
	case model.ViewServiceBoard:
		return fmt.Sprintf("%s / %s", c.ProjectName(vs.ProjectID), c.ServiceName(vs.ServiceID))
	case model.ViewEverything:
		if !vs.Filters.IsZero() {
			return "Everything (filtered)"
		}
	}
	return vs.Active.String()
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title, right := "Worktrack", ""
	if sess, ok := m.state.Session(); ok {
		right = sess.Email
		if label := m.state.Projection().Badges.InboxLabel(); label != "" {
			title = fmt.Sprintf("Worktrack [inbox %s]", label)
		}
	}
	header := m.layout.RenderHeader(title, right)
	alerts := m.layout.RenderAlerts(m.state.Alerts())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), alerts, statusBar)
}

// renderContent returns the rendered string for the current screen.
func (m Model) renderContent() string {
	switch m.screen {
	case ScreenSignIn:
		return m.signIn.View()
	case ScreenDetail:
		return m.detail.View()
	case ScreenForm:
		return m.form.View()
	case ScreenProjects:
		return m.projects.View()
	case ScreenHelp:
		return m.help.View()
	case ScreenCommand:
		return m.command.View()
	}

	switch m.state.ViewState().Active {
	case model.ViewHome:
		return m.home.View()
	case model.ViewInbox:
		return m.inbox.View()
	}
	if m.showsBoard() {
		if panel := m.servicePanel(); panel != "" {
			return lipgloss.JoinVertical(lipgloss.Left, panel, m.board.View())
		}
		return m.board.View()
	}
	return m.list.View()
}

// servicePanel lists the services of the shown project with their counts.
func (m Model) servicePanel() string {
	services := m.state.Projection().Services
	if m.state.ViewState().Active != model.ViewProjectBoard || len(services) == 0 {
		return ""
	}
	parts := make([]string, len(services))
	for i, sc := range services {
		parts[i] = fmt.Sprintf("%s (%d)", sc.Service.Name, sc.Items)
	}
	return theme.HelpStyle.Render("Services: " + strings.Join(parts, " · "))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if err := m.state.LastError(); err != "" && m.screen == ScreenMain {
		return "! " + err
	}

	switch m.screen {
	case ScreenSignIn:
		return "enter sign in | ctrl+c quit"
	case ScreenHelp:
		return "? close help | esc back"
	case ScreenCommand:
		return "enter execute | esc back"
	case ScreenDetail:
		return "esc back | e edit | x complete | H/L move | 1-9 checklist | d delete"
	case ScreenForm:
		return "enter submit | esc cancel"
	case ScreenProjects:
		return "enter open | n project | s service | d delete | esc back"
	}

	switch m.state.ViewState().Active {
	case model.ViewHome:
		return "tab work/done | f subfilter | enter open | 2 list | 3 board | i inbox | ? help"
	case model.ViewInbox:
		return "tab filter | enter open | m read | M all read | D dismiss | ? help"
	case model.ViewEverything:
		return "b layout | : filter | n new | enter open | ? help"
	case model.ViewProjectBoard, model.ViewServiceBoard:
		return "h/l lane | H/L move | n new | esc back | ? help"
	}
	return "f quick filter | n new | x complete | H/L move | : command | ? help | q quit"
}

// Package app is the root Bubble Tea model. It routes between the auth,
// month, and day views, runs every store and auth call as a command, and
// feeds watcher invalidations back into the views.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mflores/dayplan/internal/auth"
	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/keys"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/remote"
	"github.com/mflores/dayplan/internal/session"
	"github.com/mflores/dayplan/internal/store"
	"github.com/mflores/dayplan/internal/ui"
	"github.com/mflores/dayplan/internal/ui/authview"
	"github.com/mflores/dayplan/internal/ui/dayview"
	"github.com/mflores/dayplan/internal/ui/monthview"
	"github.com/mflores/dayplan/internal/watch"
)

// opTimeout bounds a single store or auth round trip started from the UI.
const opTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewAuth
	ViewMonth
	ViewDay
)

// restoreDoneMsg reports the result of the initial session probe.
type restoreDoneMsg struct {
	user *model.User
	err  error
}

// authResultMsg reports the outcome of a login or register command.
type authResultMsg struct {
	user model.User
	err  error
}

// monthLoadedMsg carries a month's tasks. Year and month identify the
// request, so answers for a month the user already paged away from are
// dropped.
type monthLoadedMsg struct {
	year  int
	month int
	tasks []model.Task
	err   error
}

// dayLoadedMsg carries a day's tasks, keyed by the requested date.
type dayLoadedMsg struct {
	dateKey string
	tasks   []model.Task
	err     error
}

// taskMutatedMsg reports the outcome of an add, update, toggle, or
// delete.
type taskMutatedMsg struct {
	dateKey string
	err     error
}

// logoutDoneMsg reports the outcome of a logout command.
type logoutDoneMsg struct {
	err error
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the stores.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap
	helpModel   help.Model
	showHelp    bool

	authn   auth.Authenticator
	tasks   store.TaskStore
	holder  *session.Holder
	watcher *watch.Watcher
	loc     calendar.Locale

	authView  authview.Model
	monthView monthview.Model
	dayView   dayview.Model

	ready     bool
	statusMsg string
}

// New creates the root application model. localBackend selects the
// wording of the login form.
func New(
	authn auth.Authenticator,
	tasks store.TaskStore,
	holder *session.Holder,
	watcher *watch.Watcher,
	loc calendar.Locale,
	localBackend bool,
) Model {
	km := keys.DefaultKeyMap()

	return Model{
		currentView: ViewLoading,
		keys:        km,
		helpModel:   help.New(),
		authn:       authn,
		tasks:       tasks,
		holder:      holder,
		watcher:     watcher,
		loc:         loc,
		authView:    authview.New(localBackend, 80, 24),
		monthView:   monthview.New(km, loc, 80, 24),
		dayView:     dayview.New(km, loc, 80, 24),
	}
}

// Init probes for a persisted session and subscribes to the watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.restoreSession(), m.watcher.Start())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.authView.SetSize(contentWidth, contentHeight)
		m.monthView.SetSize(contentWidth, contentHeight)
		m.dayView.SetSize(contentWidth, contentHeight)
		m.helpModel.Width = contentWidth
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case restoreDoneMsg:
		if msg.err != nil {
			m.statusMsg = "Could not restore session: " + msg.err.Error()
		}
		if msg.user != nil {
			return m.enterMonth()
		}
		return m.enterAuth("")

	case authview.LoginSubmitMsg:
		m.authView.SetBusy(true)
		return m, m.login(msg.Identifier, msg.Password)

	case authview.RegisterSubmitMsg:
		m.authView.SetBusy(true)
		return m, m.register(msg.Username, msg.Email, msg.Password)

	case authview.QuitMsg:
		return m.quit()

	case authResultMsg:
		if msg.err != nil {
			return m, m.authView.SetError(friendlyAuthError(msg.err))
		}
		return m.enterMonth()

	case monthview.OpenDayMsg:
		return m.enterDay(msg.Year, msg.Month, msg.Day)

	case monthview.MonthChangedMsg:
		if user := m.holder.User(); user != nil {
			m.watcher.Watch(user.ID, msg.Year, msg.Month)
		}
		return m, m.loadMonth(msg.Year, msg.Month)

	case monthLoadedMsg:
		return m.handleMonthLoaded(msg)

	case dayLoadedMsg:
		return m.handleDayLoaded(msg)

	case dayview.AddTaskMsg:
		return m, m.addTask(msg.DateKey, msg.Title, msg.Notes)

	case dayview.UpdateTaskMsg:
		return m, m.updateTask(msg.ID, msg.Title, msg.Notes)

	case dayview.ToggleTaskMsg:
		return m, m.toggleTask(msg.ID, msg.Completed)

	case dayview.DeleteTaskMsg:
		return m, m.deleteTask(msg.ID)

	case taskMutatedMsg:
		return m.handleTaskMutated(msg)

	case dayview.CloseMsg:
		m.currentView = ViewMonth
		return m, m.loadMonth(m.monthView.Year(), m.monthView.Month())

	case watch.ChangedMsg:
		return m.handleWatchChanged(msg)

	case watch.ErrorMsg:
		if remote.IsAuthError(msg.Err) {
			return m.sessionExpired()
		}
		m.statusMsg = "Sync failed: " + msg.Err.Error()
		return m, m.watcher.WaitForNextResult()

	case logoutDoneMsg:
		if msg.err != nil {
			m.statusMsg = "Logout failed: " + msg.err.Error()
			return m, nil
		}
		// Already on the auth view when an expired session forced the
		// logout; re-entering would reset the form under the user.
		if m.currentView == ViewAuth {
			return m, nil
		}
		return m.enterAuth("")

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused
// view. Keys are left alone while a form is capturing input.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		mdl, cmd := m.quit()
		return true, mdl, cmd
	}

	// Everything below would collide with text entry.
	if m.currentView != ViewMonth {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		mdl, cmd := m.quit()
		return true, mdl, cmd

	case "?":
		m.showHelp = !m.showHelp
		m.helpModel.ShowAll = m.showHelp
		return true, m, nil

	case "r":
		m.watcher.Refresh()
		return true, m, m.loadMonth(m.monthView.Year(), m.monthView.Month())

	case "ctrl+l":
		return true, m, m.logout()
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewMonth:
		m.monthView, cmd = m.monthView.Update(msg)
	case ViewDay:
		m.dayView, cmd = m.dayView.Update(msg)
	}

	return m, cmd
}

// === view transitions ===

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.watcher.Stop()
	return m, tea.Quit
}

func (m Model) enterAuth(status string) (tea.Model, tea.Cmd) {
	m.currentView = ViewAuth
	m.statusMsg = status
	m.watcher.Watch("", 0, 0)
	return m, m.authView.Start()
}

func (m Model) enterMonth() (tea.Model, tea.Cmd) {
	m.currentView = ViewMonth
	m.statusMsg = ""

	year, month := m.monthView.Year(), m.monthView.Month()
	if user := m.holder.User(); user != nil {
		m.watcher.Watch(user.ID, year, month)
	}
	return m, m.loadMonth(year, month)
}

func (m Model) enterDay(year, month, day int) (tea.Model, tea.Cmd) {
	m.currentView = ViewDay
	m.dayView.Start(year, month, day, nil)
	return m, m.loadDay(calendar.DateKey(year, month, day))
}

func (m Model) sessionExpired() (tea.Model, tea.Cmd) {
	// Drop the stored token so the next start does not retry it.
	logoutCmd := m.logout()
	mdl, cmd := m.enterAuth("Session expired. Please sign in again.")
	return mdl, tea.Batch(logoutCmd, cmd)
}

// === message handlers ===

func (m Model) handleMonthLoaded(msg monthLoadedMsg) (tea.Model, tea.Cmd) {
	// Stale answer for a month no longer on screen.
	if msg.year != m.monthView.Year() || msg.month != m.monthView.Month() {
		return m, nil
	}
	if msg.err != nil {
		if remote.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.statusMsg = "Load failed: " + msg.err.Error()
		return m, nil
	}
	m.statusMsg = ""
	m.monthView.SetTasks(msg.tasks)
	return m, nil
}

func (m Model) handleDayLoaded(msg dayLoadedMsg) (tea.Model, tea.Cmd) {
	if m.currentView != ViewDay || msg.dateKey != m.dayView.DateKey() {
		return m, nil
	}
	if msg.err != nil {
		if remote.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		return m, m.dayView.SetError("Load failed: " + msg.err.Error())
	}
	m.dayView.SetTasks(msg.tasks)
	return m, nil
}

func (m Model) handleTaskMutated(msg taskMutatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if remote.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		if m.currentView == ViewDay {
			return m, m.dayView.SetError(friendlyStoreError(msg.err))
		}
		m.statusMsg = friendlyStoreError(msg.err)
		return m, nil
	}

	// Re-fetch instead of patching caches; the store is authoritative.
	cmds := []tea.Cmd{m.loadMonth(m.monthView.Year(), m.monthView.Month())}
	if m.currentView == ViewDay && msg.dateKey == m.dayView.DateKey() {
		cmds = append(cmds, m.loadDay(msg.dateKey))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleWatchChanged(msg watch.ChangedMsg) (tea.Model, tea.Cmd) {
	waitCmd := m.watcher.WaitForNextResult()

	if msg.Year != m.monthView.Year() || msg.Month != m.monthView.Month() {
		return m, waitCmd
	}

	m.monthView.SetTasks(msg.Tasks)
	if m.currentView == ViewDay {
		byDay := model.TasksByDay(msg.Tasks)
		m.dayView.RefreshTasks(byDay[m.dayView.DateKey()])
	}
	return m, waitCmd
}

// === commands ===

func (m Model) restoreSession() tea.Cmd {
	holder := m.holder
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := holder.Restore(ctx)
		return restoreDoneMsg{user: holder.User(), err: err}
	}
}

func (m Model) login(identifier, password string) tea.Cmd {
	authn := m.authn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		user, err := authn.Login(ctx, identifier, password)
		return authResultMsg{user: user, err: err}
	}
}

func (m Model) register(username, email, password string) tea.Cmd {
	authn := m.authn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		user, err := authn.Register(ctx, username, email, password)
		return authResultMsg{user: user, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	authn := m.authn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return logoutDoneMsg{err: authn.Logout(ctx)}
	}
}

func (m Model) loadMonth(year, month int) tea.Cmd {
	user := m.holder.User()
	if user == nil {
		return nil
	}
	tasks := m.tasks
	userID := user.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		list, err := tasks.ListByMonth(ctx, userID, year, month)
		return monthLoadedMsg{year: year, month: month, tasks: list, err: err}
	}
}

func (m Model) loadDay(dateKey string) tea.Cmd {
	user := m.holder.User()
	if user == nil {
		return nil
	}
	tasks := m.tasks
	userID := user.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		list, err := tasks.ListByDate(ctx, userID, dateKey)
		return dayLoadedMsg{dateKey: dateKey, tasks: list, err: err}
	}
}

func (m Model) addTask(dateKey, title, notes string) tea.Cmd {
	user := m.holder.User()
	if user == nil {
		return nil
	}
	tasks := m.tasks
	userID := user.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := tasks.Add(ctx, userID, title, notes, dateKey)
		return taskMutatedMsg{dateKey: dateKey, err: err}
	}
}

func (m Model) updateTask(id, title, notes string) tea.Cmd {
	tasks := m.tasks
	dateKey := m.dayView.DateKey()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := tasks.Update(ctx, id, store.Patch{Title: &title, Notes: &notes})
		return taskMutatedMsg{dateKey: dateKey, err: err}
	}
}

func (m Model) toggleTask(id string, completed bool) tea.Cmd {
	tasks := m.tasks
	dateKey := m.dayView.DateKey()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := tasks.ToggleComplete(ctx, id, completed)
		return taskMutatedMsg{dateKey: dateKey, err: err}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	tasks := m.tasks
	dateKey := m.dayView.DateKey()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := tasks.Remove(ctx, id)
		return taskMutatedMsg{dateKey: dateKey, err: err}
	}
}

// === rendering ===

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("dayplan", m.sessionLabel())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.showHelp && m.currentView == ViewMonth {
		return m.helpModel.View(m.keys)
	}

	switch m.currentView {
	case ViewAuth:
		return m.authView.View()
	case ViewMonth:
		return m.monthView.View()
	case ViewDay:
		return m.dayView.View()
	default:
		return "Restoring session..."
	}
}

// sessionLabel returns the header's right-hand session summary.
func (m Model) sessionLabel() string {
	switch m.holder.State() {
	case session.StateAuthenticated:
		if user := m.holder.User(); user != nil {
			return user.Username
		}
		return ""
	case session.StateAnonymous:
		return "not signed in"
	default:
		return "..."
	}
}

// statusHints returns the status bar content: a transient error when one
// is pending, otherwise keyboard hints for the focused view.
func (m Model) statusHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewAuth:
		return "enter submit | esc back | ctrl+c quit"
	case ViewMonth:
		return "h/j/k/l move | H/L month | t today | enter open day | r refresh | ctrl+l log out | ? help | q quit"
	case ViewDay:
		return "a add | e edit | space toggle | d delete | esc back"
	default:
		return ""
	}
}

// friendlyAuthError maps auth failures to a short message for the form.
func friendlyAuthError(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Incorrect username or password"
	case errors.Is(err, auth.ErrDuplicateUser):
		return "That username is already registered"
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPassword):
		return err.Error()
	default:
		return "Sign in failed: " + err.Error()
	}
}

// friendlyStoreError maps store failures to a short message.
func friendlyStoreError(err error) string {
	switch {
	case errors.Is(err, store.ErrEmptyTitle):
		return "title required"
	case errors.Is(err, store.ErrNotFound):
		return "That task no longer exists"
	case errors.Is(err, store.ErrUnauthenticated):
		return "Not signed in"
	default:
		return fmt.Sprintf("Operation failed: %v", err)
	}
}

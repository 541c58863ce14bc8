// Package authview is the sign-in and registration screen. It runs as a
// small state machine: a mode chooser, then the login or register form.
// Submissions are emitted as messages; the root model runs the actual
// authentication and reports back with SetError or by switching views.
package authview

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mflores/dayplan/internal/theme"
	"github.com/mflores/dayplan/internal/validate"
)

// LoginSubmitMsg is dispatched when the login form is submitted.
type LoginSubmitMsg struct {
	Identifier string
	Password   string
}

// RegisterSubmitMsg is dispatched when the registration form is submitted.
type RegisterSubmitMsg struct {
	Username string
	Email    string
	Password string
}

// QuitMsg is dispatched when the user backs out of the mode chooser.
type QuitMsg struct{}

type mode int

const (
	modeChoose mode = iota
	modeLogin
	modeRegister
)

const (
	choiceLogin    = "login"
	choiceRegister = "register"
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	choice     string
	identifier string
	username   string
	email      string
	password   string
	confirm    string
}

// Model is the Bubble Tea model for the auth screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   mode
	local  bool
	busy   bool
	errMsg string
	width  int
	height int
}

// New creates an auth screen. local selects the wording of the login
// identifier field: username for the local backend, email for the remote
// one.
func New(local bool, width, height int) Model {
	return Model{
		fb:     &formBindings{choice: choiceLogin},
		local:  local,
		width:  width,
		height: height,
	}
}

// Start initializes the mode chooser.
func (m *Model) Start() tea.Cmd {
	m.mode = modeChoose
	m.errMsg = ""
	m.form = m.buildChooserForm()
	return m.form.Init()
}

// SetBusy marks an authentication request as in flight. While busy the
// form ignores input, so a held-down enter cannot double-submit.
func (m *Model) SetBusy(busy bool) {
	m.busy = busy
}

// SetError reports a failed authentication attempt. The form is rebuilt
// from the existing bindings, so everything typed stays in place.
func (m *Model) SetError(msg string) tea.Cmd {
	m.busy = false
	m.errMsg = msg
	switch m.mode {
	case modeLogin:
		m.form = m.buildLoginForm()
	case modeRegister:
		m.form = m.buildRegisterForm()
	default:
		m.form = m.buildChooserForm()
	}
	return m.form.Init()
}

// Update handles messages for the auth screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleCompleted()
	}
	if m.form.State == huh.StateAborted {
		return m.handleAborted()
	}

	return m, cmd
}

// View renders the auth screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n")
	b.WriteString(m.form.View())

	if m.mode == modeRegister {
		b.WriteString("\n")
		b.WriteString(m.renderStrength())
	}
	if m.busy {
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("Signing in..."))
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) title() string {
	switch m.mode {
	case modeLogin:
		return "Sign In"
	case modeRegister:
		return "Create Account"
	default:
		return "Welcome to dayplan"
	}
}

// renderStrength shows the live password strength while registering. The
// binding updates on every keystroke, so this tracks the field as typed.
func (m Model) renderStrength() string {
	if m.fb.password == "" {
		return ""
	}
	s := validate.PasswordStrength(m.fb.password)
	label := s.String()
	return theme.HelpStyle.Render("Password strength: ") +
		theme.StrengthStyle(label).Render(label)
}

func (m Model) handleCompleted() (Model, tea.Cmd) {
	switch m.mode {
	case modeChoose:
		m.errMsg = ""
		if m.fb.choice == choiceRegister {
			m.mode = modeRegister
			m.form = m.buildRegisterForm()
		} else {
			m.mode = modeLogin
			m.form = m.buildLoginForm()
		}
		return m, m.form.Init()

	case modeLogin:
		identifier := strings.TrimSpace(m.fb.identifier)
		password := m.fb.password
		return m, func() tea.Msg {
			return LoginSubmitMsg{Identifier: identifier, Password: password}
		}

	case modeRegister:
		username := strings.TrimSpace(m.fb.username)
		email := strings.TrimSpace(m.fb.email)
		password := m.fb.password
		return m, func() tea.Msg {
			return RegisterSubmitMsg{Username: username, Email: email, Password: password}
		}
	}
	return m, nil
}

func (m Model) handleAborted() (Model, tea.Cmd) {
	if m.mode == modeChoose {
		return m, func() tea.Msg { return QuitMsg{} }
	}

	// Esc inside a form goes back to the chooser with fresh fields.
	m.mode = modeChoose
	m.errMsg = ""
	m.fb.identifier = ""
	m.fb.username = ""
	m.fb.email = ""
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = m.buildChooserForm()
	return m, m.form.Init()
}

func (m *Model) buildChooserForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("Sign in", choiceLogin),
					huh.NewOption("Create an account", choiceRegister),
				).
				Value(&m.fb.choice),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildLoginForm() *huh.Form {
	identifierTitle := "Email"
	if m.local {
		identifierTitle = "Username"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(identifierTitle).
				Value(&m.fb.identifier).
				Validate(validateRequired(identifierTitle)),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildRegisterForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Placeholder("at least 3 characters").
				Value(&m.fb.username).
				Validate(m.validateUsername),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(m.validateEmail),
			huh.NewInput().
				Title("Password").
				Placeholder("8+ chars with upper, lower and digit").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(m.validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(m.validateConfirm),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) validateUsername(s string) error {
	if !validate.Username(strings.TrimSpace(s)) {
		return errors.New("username must be at least 3 characters")
	}
	return nil
}

func (m *Model) validateEmail(s string) error {
	if !validate.Email(strings.TrimSpace(s)) {
		return errors.New("invalid email address")
	}
	return nil
}

func (m *Model) validatePassword(s string) error {
	if !validate.Password(s) {
		return errors.New("needs 8+ characters with upper, lower and digit")
	}
	return nil
}

func (m *Model) validateConfirm(s string) error {
	if s != m.fb.password {
		return errors.New("passwords do not match")
	}
	return nil
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(fieldName + " is required")
		}
		return nil
	}
}

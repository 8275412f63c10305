package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/theme"
)

// SubmitMsg is dispatched when the credentials form is completed.
type SubmitMsg struct {
	LoginID  string
	Password string
}

// InitialPasswordMsg is dispatched when the initial password form is
// completed.
type InitialPasswordMsg struct {
	LoginID     string
	NewPassword string
}

// QuitMsg is dispatched when the user aborts the form.
type QuitMsg struct{}

// Mode selects which form is shown.
type Mode int

const (
	ModeCredentials Mode = iota
	ModeInitialPassword
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	loginID  string
	password string
	confirm  string
}

// Model is the sign-in screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   Mode
	busy   bool
	errMsg string
	notice string
	width  int
	height int
}

// New creates a new login model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start shows the credentials form, keeping the last login id.
func (m *Model) Start() tea.Cmd {
	m.mode = ModeCredentials
	m.busy = false
	m.errMsg = ""
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = m.buildCredentialsForm()
	return m.form.Init()
}

// StartInitialPassword switches to the initial password form for the
// login id that was just refused.
func (m *Model) StartInitialPassword() tea.Cmd {
	m.mode = ModeInitialPassword
	m.busy = false
	m.errMsg = ""
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = m.buildInitialPasswordForm()
	return m.form.Init()
}

// Mode returns the form currently shown.
func (m Model) Mode() Mode {
	return m.mode
}

// SetError shows msg below the form and re-opens it for input.
func (m *Model) SetError(msg string) tea.Cmd {
	var cmd tea.Cmd
	if m.mode == ModeInitialPassword {
		cmd = m.StartInitialPassword()
	} else {
		cmd = m.Start()
	}
	m.errMsg = msg
	return cmd
}

// SetNotice shows an informational line above the form, such as the
// reason of the last forced logout.
func (m *Model) SetNotice(msg string) {
	m.notice = msg
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.errMsg = ""
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return QuitMsg{} }
	}

	return m, cmd
}

// View renders the login screen.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Sign in"
	if m.mode == ModeInitialPassword {
		titleText = "Set your password"
	}

	parts := []string{theme.TitleStyle.Render(titleText)}
	if m.notice != "" {
		parts = append(parts, theme.HelpStyle.Render(m.notice), "")
	}
	if m.mode == ModeInitialPassword {
		parts = append(parts, theme.DimmedStyle.Render(
			fmt.Sprintf("%s must choose a password before signing in.", m.fb.loginID),
		), "")
	}
	if m.busy {
		parts = append(parts, theme.DimmedStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
	}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildCredentialsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Login ID").
				Value(&m.fb.loginID).
				Validate(validateRequired("Login ID")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m *Model) buildInitialPasswordForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(func(s string) error {
					if s != fb.password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) handleSubmit() tea.Cmd {
	loginID := strings.TrimSpace(m.fb.loginID)
	password := m.fb.password

	if m.mode == ModeInitialPassword {
		return func() tea.Msg {
			return InitialPasswordMsg{LoginID: loginID, NewPassword: password}
		}
	}
	return func() tea.Msg {
		return SubmitMsg{LoginID: loginID, Password: password}
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("use at least 8 characters")
	}
	return nil
}

package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/keys"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/session"
	"github.com/nhle/info-module/internal/theme"
	"github.com/nhle/info-module/internal/ui"
	"github.com/nhle/info-module/internal/ui/command"
	"github.com/nhle/info-module/internal/ui/dialog"
	helpview "github.com/nhle/info-module/internal/ui/help"
	"github.com/nhle/info-module/internal/ui/home"
	loginview "github.com/nhle/info-module/internal/ui/login"
	"github.com/nhle/info-module/internal/ui/notices"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoot ViewState = iota
	ViewLogin
	ViewHome
	ViewNotices
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing, the
// session overlays and access to the session manager.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	mgr          *session.Manager
	keys         *keys.KeyMap
	spinner      spinner.Model
	loginView    loginview.Model
	homeView     home.Model
	noticesView  notices.Model
	helpView     helpview.Model
	commandView  command.Model
	snap         session.Snapshot
	logoutAlert  model.LogoutReason
	popup        []model.Notice
	statusMsg    string
	statusErr    bool
	ready        bool
}

// New creates the root model around mgr. cfg only feeds the help and
// home texts; the manager carries its own timings.
func New(mgr *session.Manager, cfg model.SessionConfig) Model {
	k := keys.DefaultKeyMap()
	timings := helpview.Timings{
		IdleTimeout:       cfg.IdleTimeout(),
		WarningCountdown:  time.Duration(cfg.WarningTicks()) * time.Second,
		HeartbeatInterval: time.Duration(cfg.HeartbeatTicks()) * time.Second,
	}

	return Model{
		currentView: ViewBoot,
		mgr:         mgr,
		keys:        k,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		loginView:   loginview.New(80, 24),
		homeView:    home.New(cfg.IdleTimeout(), 80, 24),
		noticesView: notices.New(k, 80, 24),
		helpView:    helpview.New(k, timings, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init resolves the stored session and subscribes to manager events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		checkSession(m.mgr),
		waitForEvent(m.mgr.Events()),
		refreshEvery(time.Second),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.homeView.SetSize(contentWidth, contentHeight)
		m.noticesView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		if m.currentView != ViewBoot {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshMsg:
		m.syncSnapshot()
		return m, refreshEvery(time.Second)

	case sessionCheckedMsg:
		m.syncSnapshot()
		if msg.signedIn {
			m.currentView = ViewHome
			return m, checkPopup(m.mgr)
		}
		m.currentView = ViewLogin
		return m, tea.Batch(m.loginView.Start(), takeLogoutReason(m.mgr))

	case sessionEventMsg:
		m.syncSnapshot()
		next := waitForEvent(m.mgr.Events())
		if msg.event.Kind == session.EventLoggedOut {
			m.popup = nil
			m.currentView = ViewLogin
			return m, tea.Batch(next, m.loginView.Start(), takeLogoutReason(m.mgr))
		}
		return m, next

	case logoutReasonMsg:
		m.logoutAlert = msg.reason
		m.loginView.SetNotice(msg.reason.Message())
		return m, nil

	case loginview.SubmitMsg:
		return m, login(m.mgr, msg.LoginID, msg.Password)

	case loginview.InitialPasswordMsg:
		return m, completeInitialPassword(m.mgr, msg.LoginID, msg.NewPassword)

	case loginview.QuitMsg:
		return m, tea.Quit

	case loginResultMsg:
		if errors.Is(msg.err, api.ErrInitialPasswordRequired) {
			return m, m.loginView.StartInitialPassword()
		}
		if msg.err != nil {
			return m, m.loginView.SetError(api.UserMessage(msg.err))
		}
		m.syncSnapshot()
		m.loginView.SetNotice("")
		m.currentView = ViewHome
		return m, checkPopup(m.mgr)

	case logoutDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Signed out with errors: %v", msg.err), true)
		}
		return m, nil

	case popupMsg:
		if m.currentView == ViewHome {
			m.popup = msg.notices
		}
		return m, nil

	case hiddenForTodayMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Could not hide notices: %v", msg.err), true)
		} else {
			m.setStatus("Notices hidden until tomorrow", false)
		}
		return m, nil

	case noticesLoadedMsg:
		if msg.err != nil {
			m.noticesView.SetError(api.UserMessage(msg.err))
			return m, nil
		}
		cmd := m.noticesView.SetNotices(msg.notices)
		return m, tea.Batch(cmd, markSeen(m.mgr, m.noticesView.IDs()))

	case noticesSeenMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Could not save seen notices: %v", msg.err), true)
		}
		m.syncSnapshot()
		return m, nil

	case notices.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.MouseMsg:
		m.mgr.RecordActivity()
		return m, nil

	case tea.KeyMsg:
		m.mgr.RecordActivity()
		m.setStatus("", false)
		return m.handleKey(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey routes a key press. Overlays take every key while shown.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.snap.Warning.Visible {
		switch {
		case key.Matches(msg, m.keys.Continue):
			m.mgr.ContinueSession()
			m.syncSnapshot()
		case key.Matches(msg, m.keys.Logout):
			return m, logout(m.mgr)
		}
		return m, nil
	}

	if m.logoutAlert != model.LogoutReasonNone {
		if key.Matches(msg, m.keys.Select, m.keys.Back) {
			m.logoutAlert = model.LogoutReasonNone
		}
		return m, nil
	}

	if m.popup != nil {
		switch {
		case key.Matches(msg, m.keys.Select):
			m.popup = nil
			return m, m.openNotices()
		case key.Matches(msg, m.keys.HideToday):
			m.popup = nil
			return m, hideForToday(m.mgr)
		case key.Matches(msg, m.keys.Back):
			m.popup = nil
		}
		return m, nil
	}

	if m.currentView == ViewLogin || m.currentView == ViewBoot {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()
	}

	if m.currentView == ViewHome {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Notices):
			return m, m.openNotices()
		case key.Matches(msg, m.keys.Refresh):
			return m, refreshNotifications(m.mgr)
		case key.Matches(msg, m.keys.Logout):
			return m, logout(m.mgr)
		}
	}

	if (m.currentView == ViewHelp || m.currentView == ViewCommand) && key.Matches(msg, m.keys.Back) {
		m.currentView = m.previousView
		return m, nil
	}

	return m.updateActiveView(msg)
}

func (m *Model) openNotices() tea.Cmd {
	m.previousView = ViewHome
	m.currentView = ViewNotices
	m.noticesView.SetLoading(true)
	return loadNotices(m.mgr)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

func (m *Model) syncSnapshot() {
	m.snap = m.mgr.Snapshot()
	m.homeView.SetSnapshot(m.snap)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewHome:
		m.homeView, cmd = m.homeView.Update(msg)
	case ViewNotices:
		m.noticesView, cmd = m.noticesView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Information Module", m.sessionStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusMsg, m.statusErr)

	return m.layout.Render(header, content, statusBar)
}

// renderContent returns the active view, or the overlay covering it.
func (m Model) renderContent() string {
	switch {
	case m.snap.Warning.Visible:
		return m.layout.RenderDialog(dialog.IdleWarning(m.snap.Warning.RemainingSeconds))
	case m.logoutAlert != model.LogoutReasonNone:
		return m.layout.RenderDialog(dialog.LogoutAlert(m.logoutAlert))
	case m.popup != nil:
		return m.layout.RenderDialog(notices.Popup(m.popup, time.Now()))
	}

	switch m.currentView {
	case ViewBoot:
		return m.layout.RenderDialog(m.spinner.View() + " Checking session...")
	case ViewLogin:
		return m.loginView.View()
	case ViewHome:
		return m.homeView.View()
	case ViewNotices:
		return m.noticesView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// sessionStatus renders the right side of the header.
func (m Model) sessionStatus() string {
	u := m.snap.Session.User
	if u == nil {
		return theme.SessionStatusStyle(false).Render("signed out")
	}

	status := u.Name
	if m.snap.Flags.HasUnreadPersonal || m.snap.Flags.HasUnreadPublicNotice {
		status += " ●"
	}
	return theme.SessionStatusStyle(m.snap.Active).Render(status)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch {
	case m.snap.Warning.Visible:
		return "enter stay signed in | L log out"
	case m.logoutAlert != model.LogoutReasonNone:
		return "enter ok"
	case m.popup != nil:
		return "enter view | h hide for today | esc dismiss"
	}

	switch m.currentView {
	case ViewBoot:
		return "ctrl+c quit"
	case ViewLogin:
		return "enter submit | tab next field | ctrl+c quit"
	case ViewNotices:
		return "j/k move | / filter | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	default:
		return "q quit | ? help | n notices | r refresh | L log out | : command"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	if m.snap.Session.User == nil {
		return nil
	}

	switch cmd {
	case "home":
		m.currentView = ViewHome
		return nil
	case "notices":
		return m.openNotices()
	case "refresh":
		return refreshNotifications(m.mgr)
	case "hide":
		return hideForToday(m.mgr)
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "logout":
		return logout(m.mgr)
	case "quit":
		return tea.Quit
	default:
		m.setStatus(fmt.Sprintf("Unknown command %q", cmd), true)
		return nil
	}
}

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/session"
)

// requestTimeout bounds user-initiated requests.
const requestTimeout = 30 * time.Second

type sessionCheckedMsg struct {
	signedIn bool
}

type loginResultMsg struct {
	user *model.UserIdentity
	err  error
}

type logoutDoneMsg struct {
	err error
}

type logoutReasonMsg struct {
	reason model.LogoutReason
}

type noticesLoadedMsg struct {
	notices []model.Notice
	err     error
}

type noticesSeenMsg struct {
	err error
}

type popupMsg struct {
	notices []model.Notice
}

type hiddenForTodayMsg struct {
	err error
}

// checkSession resolves the stored session once at startup.
func checkSession(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sessionCheckedMsg{signedIn: mgr.Init(ctx)}
	}
}

func login(mgr *session.Manager, loginID, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := mgr.Login(ctx, loginID, password)
		return loginResultMsg{user: user, err: err}
	}
}

func completeInitialPassword(mgr *session.Manager, loginID, newPassword string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := mgr.CompleteInitialPassword(ctx, loginID, newPassword)
		return loginResultMsg{user: user, err: err}
	}
}

func logout(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return logoutDoneMsg{err: mgr.Logout(ctx)}
	}
}

// takeLogoutReason consumes the one-shot logout reason, if any.
func takeLogoutReason(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		t := mgr.Tracker()
		if t == nil {
			return nil
		}
		reason, err := t.TakeLogoutReason(context.Background())
		if err != nil || reason == model.LogoutReasonNone {
			return nil
		}
		return logoutReasonMsg{reason: reason}
	}
}

// checkPopup consumes the show-on-next-screen flag and, unless notices are
// hidden for today, returns the notices to pop up.
func checkPopup(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		t := mgr.Tracker()
		if t == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		show, err := t.ShouldPopup(ctx)
		if err != nil || !show {
			return nil
		}
		list, err := mgr.VisibleNotices(ctx)
		if err != nil || len(list) == 0 {
			return nil
		}
		return popupMsg{notices: list}
	}
}

func hideForToday(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		t := mgr.Tracker()
		if t == nil {
			return nil
		}
		return hiddenForTodayMsg{err: t.HideForToday(context.Background())}
	}
}

func loadNotices(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := mgr.VisibleNotices(ctx)
		return noticesLoadedMsg{notices: list, err: err}
	}
}

func markSeen(mgr *session.Manager, ids []string) tea.Cmd {
	return func() tea.Msg {
		return noticesSeenMsg{err: mgr.MarkNoticesSeen(context.Background(), ids)}
	}
}

func refreshNotifications(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		mgr.CheckNotifications(ctx)
		return nil
	}
}

package model

// LogoutReason tags why a session ended so the next screen can explain it.
type LogoutReason string

const (
	// LogoutReasonNone is a plain, user-requested logout.
	LogoutReasonNone LogoutReason = ""

	// LogoutReasonInactivity marks a logout forced by the idle warning
	// countdown running out.
	LogoutReasonInactivity LogoutReason = "inactivity"

	// LogoutReasonSessionExpired marks a logout forced by the backend
	// rejecting the session (HTTP 401).
	LogoutReasonSessionExpired LogoutReason = "session_expired"
)

// Message returns the explanation shown to the user after a forced logout.
func (r LogoutReason) Message() string {
	switch r {
	case LogoutReasonInactivity:
		return "You were signed out after a period of inactivity."
	case LogoutReasonSessionExpired:
		return "Your session expired. Please sign in again."
	default:
		return ""
	}
}

// SessionState is the authentication state read by every view.
type SessionState struct {
	User      *UserIdentity
	IsLoading bool
}

// Authenticated reports whether a user is signed in.
func (s SessionState) Authenticated() bool {
	return s.User != nil
}

// WarningState describes the idle warning. While Visible is true a
// countdown is running and heartbeats are suppressed.
type WarningState struct {
	Visible          bool
	RemainingSeconds int
}

// PollingCounters count ticks since the last heartbeat and the last
// notification check.
type PollingCounters struct {
	HeartbeatTicks    int
	NotificationTicks int
}

// NotificationFlags drive the unread badges in the header.
type NotificationFlags struct {
	HasUnreadPersonal     bool
	HasUnreadPublicNotice bool
}

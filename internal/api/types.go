package api

import (
	"time"

	"github.com/nhle/info-module/internal/model"
)

// ErrorResponse is the error body returned by the backend.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckSessionResponse is returned by POST /auth/check-session.
type CheckSessionResponse struct {
	Valid bool                `json:"valid"`
	User  *model.UserIdentity `json:"user,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// LoginResponse is the user identity plus the issued session.
type LoginResponse struct {
	model.UserIdentity
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InitialPasswordRequest is the body of POST /auth/initial-password.
type InitialPasswordRequest struct {
	LoginID     string `json:"login_id"`
	NewPassword string `json:"new_password"`
}

// UnreadCountResponse is returned by GET /notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// NoticeFilter selects notices for GET /notices.
type NoticeFilter struct {
	IsActive *bool
	Page     int
	Size     int
}

// NoticeListResponse is one page of notices.
type NoticeListResponse struct {
	Items []model.Notice `json:"items"`
	Total int            `json:"total"`
}

package api

import (
	"context"
	"fmt"

	"github.com/nhle/info-module/internal/model"
)

// AuthService wraps the /auth endpoints.
type AuthService struct {
	client *Client
}

// NewAuthService creates an AuthService on top of client.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

// CheckSession asks the backend whether the current token is still valid.
func (s *AuthService) CheckSession(ctx context.Context) (*CheckSessionResponse, error) {
	var resp CheckSessionResponse
	if err := s.client.Post(ctx, "/auth/check-session", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	return &resp, nil
}

// Login exchanges credentials for a session. It returns an error wrapping
// ErrInitialPasswordRequired when the account has no password yet.
func (s *AuthService) Login(ctx context.Context, loginID, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := s.client.Post(ctx, "/auth/login", LoginRequest{
		LoginID:  loginID,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("logging in %q: %w", loginID, err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("logging in %q: response carried no session id", loginID)
	}
	return &resp, nil
}

// SetInitialPassword sets the first password of an account that was
// refused with ErrInitialPasswordRequired.
func (s *AuthService) SetInitialPassword(ctx context.Context, loginID, newPassword string) error {
	err := s.client.Post(ctx, "/auth/initial-password", InitialPasswordRequest{
		LoginID:     loginID,
		NewPassword: newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("setting initial password for %q: %w", loginID, err)
	}
	return nil
}

// Logout invalidates the session server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/logout", struct{}{}, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Heartbeat tells the backend the session is still in use.
func (s *AuthService) Heartbeat(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/heartbeat", struct{}{}, nil); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	return nil
}

// UserFromLogin extracts the identity part of a login response.
func UserFromLogin(resp *LoginResponse) *model.UserIdentity {
	u := resp.UserIdentity
	return &u
}

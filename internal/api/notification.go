package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/info-module/internal/model"
)

// NotificationService wraps the personal notification endpoints.
type NotificationService struct {
	client *Client
}

// NewNotificationService creates a NotificationService on top of client.
func NewNotificationService(client *Client) *NotificationService {
	return &NotificationService{client: client}
}

// UnreadCount returns the number of unread personal notifications.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	var resp UnreadCountResponse
	if err := s.client.Get(ctx, "/notifications/unread-count", &resp); err != nil {
		return 0, fmt.Errorf("fetching unread count: %w", err)
	}
	return resp.Count, nil
}

// NoticeService wraps the public notice endpoints.
type NoticeService struct {
	client *Client
}

// NewNoticeService creates a NoticeService on top of client.
func NewNoticeService(client *Client) *NoticeService {
	return &NoticeService{client: client}
}

// GetNotices returns one page of notices matching filter.
func (s *NoticeService) GetNotices(ctx context.Context, filter NoticeFilter) ([]model.Notice, error) {
	q := url.Values{}
	if filter.IsActive != nil {
		q.Set("isActive", strconv.FormatBool(*filter.IsActive))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Size > 0 {
		q.Set("size", strconv.Itoa(filter.Size))
	}

	path := "/notices"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp NoticeListResponse
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching notices: %w", err)
	}
	return resp.Items, nil
}

package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/notice"
)

// CheckNotifications refreshes the unread flags. The personal count and
// the public notice lookup run independently: a failure in one is logged
// and never blocks or resets the other.
func (m *Manager) CheckNotifications(ctx context.Context) {
	m.mu.Lock()
	due := m.active && m.state.User != nil
	gen := m.generation
	m.mu.Unlock()

	if due {
		m.checkNotifications(ctx, gen)
	}
}

// checkNotifications polls for session gen, joining a poll already in
// flight for the same session.
func (m *Manager) checkNotifications(ctx context.Context, gen uint64) {
	if !m.current(gen) {
		return
	}

	_, _, shared := m.inflight.Do(flightKey("notifications", gen), func() (interface{}, error) {
		m.pollNotifications(ctx, gen)
		return nil, nil
	})
	if shared {
		m.log.Debug().Msg("notification check joined an in-flight request")
	}
}

func (m *Manager) pollNotifications(ctx context.Context, gen uint64) {
	// Independent lookups, no shared cancellation.
	var g errgroup.Group

	g.Go(func() error {
		count, err := m.notifications.UnreadCount(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("unread notification count failed")
			return nil
		}
		m.updateFlags(gen, func(f *model.NotificationFlags) {
			f.HasUnreadPersonal = count > 0
		})
		return nil
	})

	g.Go(func() error {
		hasNew, err := m.hasNewPublicNotices(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("public notice check failed")
			return nil
		}
		m.updateFlags(gen, func(f *model.NotificationFlags) {
			f.HasUnreadPublicNotice = hasNew
		})
		return nil
	})

	_ = g.Wait()

	m.mu.Lock()
	current := m.generation == gen
	flags := m.flags
	m.mu.Unlock()

	if current {
		m.emit(Event{Kind: EventNotificationsUpdated, Flags: flags})
	}
}

func (m *Manager) hasNewPublicNotices(ctx context.Context) (bool, error) {
	notices, err := m.activeNotices(ctx)
	if err != nil {
		return false, err
	}
	if m.tracker == nil {
		return false, nil
	}
	return m.tracker.HasNewPublicNotices(ctx, notice.VisibleIDs(notices, m.now()))
}

func (m *Manager) activeNotices(ctx context.Context) ([]model.Notice, error) {
	active := true
	return m.notices.GetNotices(ctx, api.NoticeFilter{
		IsActive: &active,
		Page:     1,
		Size:     m.cfg.NoticePageSize,
	})
}

// updateFlags applies fn to the flags unless the session changed since
// the lookup started.
func (m *Manager) updateFlags(gen uint64, fn func(*model.NotificationFlags)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		return
	}
	fn(&m.flags)
}

// VisibleNotices returns the active public notices whose visibility window
// contains now.
func (m *Manager) VisibleNotices(ctx context.Context) ([]model.Notice, error) {
	notices, err := m.activeNotices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notices: %w", err)
	}
	return notice.Visible(notices, m.now()), nil
}

// MarkNoticesSeen records ids in the seen set and clears the public notice
// badge.
func (m *Manager) MarkNoticesSeen(ctx context.Context, ids []string) error {
	if m.tracker == nil {
		return nil
	}
	if err := m.tracker.SaveSeenNoticeIDs(ctx, ids); err != nil {
		return err
	}

	m.mu.Lock()
	m.flags.HasUnreadPublicNotice = false
	flags := m.flags
	m.mu.Unlock()

	m.emit(Event{Kind: EventNotificationsUpdated, Flags: flags})
	return nil
}

package notice

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/store"
)

// SetLogoutReason records why the session was ended for the one-shot alert.
func (t *Tracker) SetLogoutReason(ctx context.Context, reason model.LogoutReason) error {
	if reason == model.LogoutReasonNone {
		return nil
	}
	if err := t.kv.Set(ctx, store.KeyAutoLogoutReason, string(reason), 0); err != nil {
		return fmt.Errorf("saving logout reason: %w", err)
	}
	return nil
}

// TakeLogoutReason returns the recorded logout reason and clears it.
func (t *Tracker) TakeLogoutReason(ctx context.Context) (model.LogoutReason, error) {
	raw, ok, err := t.kv.Get(ctx, store.KeyAutoLogoutReason)
	if err != nil {
		return model.LogoutReasonNone, fmt.Errorf("loading logout reason: %w", err)
	}
	if !ok {
		return model.LogoutReasonNone, nil
	}
	if err := t.kv.Delete(ctx, store.KeyAutoLogoutReason); err != nil {
		return model.LogoutReasonNone, fmt.Errorf("clearing logout reason: %w", err)
	}
	return model.LogoutReason(raw), nil
}

// MarkShowOnNextScreen asks the next screen to pop up the notices.
func (t *Tracker) MarkShowOnNextScreen(ctx context.Context) error {
	if err := t.kv.Set(ctx, store.KeyShowNoticeNext, "1", 0); err != nil {
		return fmt.Errorf("saving notice popup flag: %w", err)
	}
	return nil
}

// TakeShowOnNextScreen reports whether a popup was requested and clears
// the request.
func (t *Tracker) TakeShowOnNextScreen(ctx context.Context) (bool, error) {
	_, ok, err := t.kv.Get(ctx, store.KeyShowNoticeNext)
	if err != nil {
		return false, fmt.Errorf("loading notice popup flag: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := t.kv.Delete(ctx, store.KeyShowNoticeNext); err != nil {
		return false, fmt.Errorf("clearing notice popup flag: %w", err)
	}
	return true, nil
}

// HideUntil returns the instant before which the notice popup stays
// hidden. The zero time means it is not hidden.
func (t *Tracker) HideUntil(ctx context.Context) (time.Time, error) {
	raw, ok, err := t.kv.Get(ctx, store.KeyHideNoticeUntil)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading notice hide date: %w", err)
	}
	if !ok {
		return time.Time{}, nil
	}
	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, nil
	}
	return until, nil
}

// SetHideUntil hides the popup until the given instant. The entry expires
// on its own once that instant has passed.
func (t *Tracker) SetHideUntil(ctx context.Context, until time.Time) error {
	ttl := until.Sub(t.now())
	if ttl <= 0 {
		return t.kv.Delete(ctx, store.KeyHideNoticeUntil)
	}
	if err := t.kv.Set(ctx, store.KeyHideNoticeUntil, until.Format(time.RFC3339), ttl); err != nil {
		return fmt.Errorf("saving notice hide date: %w", err)
	}
	return nil
}

// HideForToday hides the popup until the end of the current local day.
func (t *Tracker) HideForToday(ctx context.Context) error {
	now := t.now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return t.SetHideUntil(ctx, midnight)
}

// ShouldPopup consumes the show-on-next-screen flag and reports whether
// the popup should be shown now, honoring any hide date.
func (t *Tracker) ShouldPopup(ctx context.Context) (bool, error) {
	requested, err := t.TakeShowOnNextScreen(ctx)
	if err != nil || !requested {
		return false, err
	}

	until, err := t.HideUntil(ctx)
	if err != nil {
		return false, err
	}
	return until.IsZero() || !t.now().Before(until), nil
}

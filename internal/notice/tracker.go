// Package notice keeps the client-side record of which public notices the
// user has seen, plus the one-shot flags that drive notice popups and the
// post-logout explanation.
package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/store"
)

// Tracker reads and writes notice state through a durable KV store.
type Tracker struct {
	kv  store.KV
	now func() time.Time
}

// NewTracker creates a Tracker over kv.
func NewTracker(kv store.KV) *Tracker {
	return &Tracker{kv: kv, now: time.Now}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// SeenNoticeIDs returns the persisted seen set.
func (t *Tracker) SeenNoticeIDs(ctx context.Context) (map[string]struct{}, error) {
	raw, ok, err := t.kv.Get(ctx, store.KeySeenNoticeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading seen notice ids: %w", err)
	}

	seen := make(map[string]struct{})
	if !ok || raw == "" {
		return seen, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// A corrupt value is treated as empty; the next save rewrites it.
		return seen, nil
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// HasNewPublicNotices reports whether any of serverIDs is missing from
// the seen set.
func (t *Tracker) HasNewPublicNotices(ctx context.Context, serverIDs []string) (bool, error) {
	if len(serverIDs) == 0 {
		return false, nil
	}

	seen, err := t.SeenNoticeIDs(ctx)
	if err != nil {
		return false, err
	}

	for _, id := range serverIDs {
		if _, ok := seen[id]; !ok {
			return true, nil
		}
	}
	return false, nil
}

// SaveSeenNoticeIDs adds ids to the seen set. Existing entries are kept;
// the stored set is never replaced. Every write renews the one year expiry.
func (t *Tracker) SaveSeenNoticeIDs(ctx context.Context, ids []string) error {
	seen, err := t.SeenNoticeIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	merged := make([]string, 0, len(seen))
	for id := range seen {
		merged = append(merged, id)
	}
	sort.Strings(merged)

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encoding seen notice ids: %w", err)
	}
	if err := t.kv.Set(ctx, store.KeySeenNoticeIDs, string(data), store.SeenNoticeTTL); err != nil {
		return fmt.Errorf("saving seen notice ids: %w", err)
	}
	return nil
}

// VisibleIDs returns the IDs of notices whose visibility window contains now.
func VisibleIDs(notices []model.Notice, now time.Time) []string {
	ids := make([]string, 0, len(notices))
	for _, n := range notices {
		if n.VisibleAt(now) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Visible filters notices down to those visible at now.
func Visible(notices []model.Notice, now time.Time) []model.Notice {
	out := make([]model.Notice, 0, len(notices))
	for _, n := range notices {
		if n.VisibleAt(now) {
			out = append(out, n)
		}
	}
	return out
}

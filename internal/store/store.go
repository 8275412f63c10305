package store

import (
	"context"
	"time"
)

// Fixed keys of the client-side durable state.
const (
	// KeySeenNoticeIDs holds the JSON array of public notice IDs the user
	// has already been shown.
	KeySeenNoticeIDs = "seen_notice_ids"

	// KeyAutoLogoutReason is a one-shot slot recording why the last
	// session was ended without a user click.
	KeyAutoLogoutReason = "auto_logout_reason"

	// KeyShowNoticeNext is a one-shot flag asking the next screen to pop
	// up the public notices.
	KeyShowNoticeNext = "show_notice_next"

	// KeyHideNoticeUntil suppresses the notice popup until the stored
	// RFC 3339 instant.
	KeyHideNoticeUntil = "hide_notice_until"
)

// SeenNoticeTTL is how long the seen-notice set survives without writes.
const SeenNoticeTTL = 365 * 24 * time.Hour

// KV is a small durable key-value store with optional per-key expiry.
// Expired entries behave exactly like missing ones.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

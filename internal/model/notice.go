package model

import "time"

// Notice is a public announcement published by administrators.
type Notice struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	IsActive bool   `json:"is_active"`

	// NotifyStartAt is when the notice becomes visible. Nil means
	// visible immediately.
	NotifyStartAt *time.Time `json:"notifyStartAt,omitempty"`

	// NotifyEndAt is when the notice stops being visible. Nil means the
	// window is open-ended.
	NotifyEndAt *time.Time `json:"notifyEndAt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// VisibleAt reports whether now falls inside the notice's visibility
// window. Both bounds are inclusive.
func (n Notice) VisibleAt(now time.Time) bool {
	if n.NotifyStartAt != nil && now.Before(*n.NotifyStartAt) {
		return false
	}
	if n.NotifyEndAt != nil && now.After(*n.NotifyEndAt) {
		return false
	}
	return true
}

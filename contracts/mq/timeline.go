package mq

import "time"

// FilterChangedPayload 过滤器变更事件的 payload
type FilterChangedPayload struct {
	From      string `json:"from,omitempty"` // YYYY-MM-DD
	To        string `json:"to,omitempty"`   // YYYY-MM-DD
	ProjectID *int   `json:"project_id,omitempty"`
}

type TimelineRecomputedPayload struct {
	Focused      bool      `json:"focused"`
	RecomputedAt time.Time `json:"recomputed_at"`
}

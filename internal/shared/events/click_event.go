package events

import "time"

// ClickEvent represents one successful slug resolution with the enrichment
// context captured at redirect time. Published by the link service on the
// clicks topic, consumed by the analytics recorder.
type ClickEvent struct {
	LinkID     int64             `json:"link_id"`
	Slug       string            `json:"slug"`
	OccurredAt time.Time         `json:"occurred_at"`
	ClientIP   string            `json:"client_ip"`
	Country    string            `json:"country,omitempty"`
	Region     string            `json:"region,omitempty"`
	City       string            `json:"city,omitempty"`
	UserAgent  string            `json:"user_agent"`
	Referrer   string            `json:"referrer,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

package events

import "time"

// RequestLoggedEvent represents one inbound HTTP request, slug hit or not.
// Published by the enrichment middleware, consumed by the analytics recorder.
type RequestLoggedEvent struct {
	Time     time.Time `json:"time"`
	Method   string    `json:"method"`
	Path     string    `json:"path"`
	ClientIP string    `json:"client_ip"`
	Country  string    `json:"country,omitempty"`
	Region   string    `json:"region,omitempty"`
	City     string    `json:"city,omitempty"`
}

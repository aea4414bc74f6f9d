package usecase

import (
	"context"
	"time"
)

// ClickRecord is one recorded click as exposed on link stats.
type ClickRecord struct {
	OccurredAt time.Time `json:"occurred_at"`
	ClientIP   string    `json:"client_ip"`
	Country    string    `json:"country,omitempty"`
	Region     string    `json:"region,omitempty"`
	City       string    `json:"city,omitempty"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer,omitempty"`
}

// ClickReader is the analytics boundary the link service reads click data
// through. The analytics side owns the event store; the link service never
// touches it directly.
type ClickReader interface {
	CountByLink(ctx context.Context, linkID int64) (int64, error)
	CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error)
	// RecentByLink returns clicks most recent first, bounded by limit.
	RecentByLink(ctx context.Context, linkID int64, limit int) ([]ClickRecord, error)
}

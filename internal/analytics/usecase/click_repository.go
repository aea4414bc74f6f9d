package usecase

import (
	"context"
	"time"
)

// Click is one stored click event. Geo fields are empty when enrichment
// degraded at record time.
type Click struct {
	ID         int64
	LinkID     int64
	OccurredAt time.Time
	IP         string
	Country    string
	Region     string
	City       string
	UserAgent  string
	Referrer   string
	Headers    map[string]string
}

// RequestLog is one stored request log entry.
type RequestLog struct {
	ID      int64
	Time    time.Time
	Method  string
	Path    string
	IP      string
	Country string
	Region  string
	City    string
}

// GroupField names a click column safe to group by.
type GroupField string

const (
	FieldUserAgent GroupField = "user_agent"
	FieldReferrer  GroupField = "referrer"
	FieldCountry   GroupField = "country"
)

// GroupCount represents a count for a single group value.
type GroupCount struct {
	Value string
	Count int64
}

// LinkClickCount is a link ranked by its click count.
type LinkClickCount struct {
	LinkID      int64
	Slug        string
	Destination string
	CreatedAt   time.Time
	Clicks      int64
}

// RequestTotals holds overall traffic counters. Rows without a country are
// part of TotalRequests but excluded from UniqueCountries.
type RequestTotals struct {
	TotalRequests   int64
	UniqueIPs       int64
	UniqueCountries int64
}

// ClickRepository is the event store boundary: append-only writes plus the
// read primitives the aggregator needs.
type ClickRepository interface {
	AppendClick(ctx context.Context, click Click) error
	AppendRequestLog(ctx context.Context, entry RequestLog) error

	CountByLink(ctx context.Context, linkID int64) (int64, error)
	CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error)
	// RecentByLink returns clicks most recent first, bounded by limit.
	RecentByLink(ctx context.Context, linkID int64, limit int) ([]Click, error)

	// CountClicksByDay returns per-day click counts keyed "2006-01-02" (UTC).
	// Days without clicks are absent; callers zero-fill.
	CountClicksByDay(ctx context.Context, from, to time.Time) (map[string]int64, error)
	// CountClicksByHour returns per-hour click counts keyed "2006-01-02T15" (UTC).
	CountClicksByHour(ctx context.Context, from, to time.Time) (map[string]int64, error)
	// GroupClicks counts clicks grouped by the given field. Zero times mean
	// an unbounded range.
	GroupClicks(ctx context.Context, field GroupField, from, to time.Time) ([]GroupCount, error)
	// TopLinks ranks links by click count descending, ties by creation time
	// ascending. Links without clicks rank with zero.
	TopLinks(ctx context.Context, limit int) ([]LinkClickCount, error)

	RequestTotals(ctx context.Context) (RequestTotals, error)
	// ListRequestLogs returns entries newest first with the total count.
	ListRequestLogs(ctx context.Context, limit, offset int) ([]RequestLog, int64, error)
}

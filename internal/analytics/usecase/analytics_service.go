package usecase

import (
	"context"
	"sort"
	"time"

	"linktrack/internal/analytics/enrichment"
	"linktrack/internal/shared/events"

	"github.com/samber/lo"
)

const (
	dayKeyFormat  = "2006-01-02"
	hourKeyFormat = "2006-01-02T15"

	dailyWindowDays  = 7
	hourlyWindowSize = 24
)

// AnalyticsService records click and request events and computes aggregate
// views over them on read. No aggregate state is cached between calls.
type AnalyticsService struct {
	repo       ClickRepository
	detector   *enrichment.DeviceDetector
	classifier *enrichment.RefererClassifier
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo ClickRepository, detector *enrichment.DeviceDetector, classifier *enrichment.RefererClassifier) *AnalyticsService {
	return &AnalyticsService{
		repo:       repo,
		detector:   detector,
		classifier: classifier,
	}
}

// RecordClick stores a click event.
func (s *AnalyticsService) RecordClick(ctx context.Context, event events.ClickEvent) error {
	return s.repo.AppendClick(ctx, Click{
		LinkID:     event.LinkID,
		OccurredAt: event.OccurredAt,
		IP:         event.ClientIP,
		Country:    event.Country,
		Region:     event.Region,
		City:       event.City,
		UserAgent:  event.UserAgent,
		Referrer:   event.Referrer,
		Headers:    event.Headers,
	})
}

// RecordRequestLog stores a request log entry.
func (s *AnalyticsService) RecordRequestLog(ctx context.Context, event events.RequestLoggedEvent) error {
	return s.repo.AppendRequestLog(ctx, RequestLog{
		Time:    event.Time,
		Method:  event.Method,
		Path:    event.Path,
		IP:      event.ClientIP,
		Country: event.Country,
		Region:  event.Region,
		City:    event.City,
	})
}

// CountByLink returns total clicks for a link.
func (s *AnalyticsService) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	return s.repo.CountByLink(ctx, linkID)
}

// CountByLinks returns total clicks per link.
func (s *AnalyticsService) CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
	return s.repo.CountByLinks(ctx, linkIDs)
}

// RecentByLink returns a link's clicks most recent first.
func (s *AnalyticsService) RecentByLink(ctx context.Context, linkID int64, limit int) ([]Click, error) {
	return s.repo.RecentByLink(ctx, linkID, limit)
}

// TimeBucket is one slot in a gap-free time series.
type TimeBucket struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// DailyClicks returns click counts for the last 7 calendar days (UTC) ending
// with the day containing now. Days without clicks appear with count 0.
func (s *AnalyticsService) DailyClicks(ctx context.Context, now time.Time) ([]TimeBucket, error) {
	now = now.UTC()
	start := now.Truncate(24 * time.Hour).AddDate(0, 0, -(dailyWindowDays - 1))

	counts, err := s.repo.CountClicksByDay(ctx, start, now)
	if err != nil {
		return nil, err
	}

	buckets := make([]TimeBucket, dailyWindowDays)
	for i := range buckets {
		day := start.AddDate(0, 0, i)
		key := day.Format(dayKeyFormat)
		buckets[i] = TimeBucket{Bucket: key, Count: counts[key]}
	}
	return buckets, nil
}

// HourlyClicks returns click counts for the last 24 hours (UTC) ending with
// the hour containing now. Hours without clicks appear with count 0.
func (s *AnalyticsService) HourlyClicks(ctx context.Context, now time.Time) ([]TimeBucket, error) {
	now = now.UTC()
	start := now.Truncate(time.Hour).Add(-time.Duration(hourlyWindowSize-1) * time.Hour)

	counts, err := s.repo.CountClicksByHour(ctx, start, now)
	if err != nil {
		return nil, err
	}

	buckets := make([]TimeBucket, hourlyWindowSize)
	for i := range buckets {
		hour := start.Add(time.Duration(i) * time.Hour)
		key := hour.Format(hourKeyFormat)
		buckets[i] = TimeBucket{Bucket: key, Count: counts[key]}
	}
	return buckets, nil
}

// BreakdownItem is one category in a categorical breakdown.
type BreakdownItem struct {
	Value      string  `json:"value"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DeviceBreakdown returns click counts by device category.
func (s *AnalyticsService) DeviceBreakdown(ctx context.Context) ([]BreakdownItem, error) {
	return s.uaBreakdown(ctx, func(c enrichment.UAClassification) string { return c.Device })
}

// BrowserBreakdown returns click counts by browser.
func (s *AnalyticsService) BrowserBreakdown(ctx context.Context) ([]BreakdownItem, error) {
	return s.uaBreakdown(ctx, func(c enrichment.UAClassification) string { return c.Browser })
}

// OSBreakdown returns click counts by operating system.
func (s *AnalyticsService) OSBreakdown(ctx context.Context) ([]BreakdownItem, error) {
	return s.uaBreakdown(ctx, func(c enrichment.UAClassification) string { return c.OS })
}

// uaBreakdown groups stored user-agent strings, classifies each distinct one
// once, and merges the counts into categories. Classification happens at
// query time so the stored events stay raw.
func (s *AnalyticsService) uaBreakdown(ctx context.Context, category func(enrichment.UAClassification) string) ([]BreakdownItem, error) {
	groups, err := s.repo.GroupClicks(ctx, FieldUserAgent, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	merged := make(map[string]int64)
	for _, g := range groups {
		merged[category(s.detector.Classify(g.Value))] += g.Count
	}

	return toBreakdown(merged), nil
}

// ReferrerBreakdown returns click counts by traffic source category.
func (s *AnalyticsService) ReferrerBreakdown(ctx context.Context) ([]BreakdownItem, error) {
	groups, err := s.repo.GroupClicks(ctx, FieldReferrer, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	merged := make(map[string]int64)
	for _, g := range groups {
		merged[s.classifier.ClassifySource(g.Value)] += g.Count
	}

	return toBreakdown(merged), nil
}

// ReferrerCount is one referrer domain with its click count.
type ReferrerCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// TopReferrers returns distinct referrer domains ranked by click count
// descending, ties broken by domain lexical order. Direct traffic (no
// referrer) is excluded.
func (s *AnalyticsService) TopReferrers(ctx context.Context, limit int) ([]ReferrerCount, error) {
	groups, err := s.repo.GroupClicks(ctx, FieldReferrer, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	merged := make(map[string]int64)
	for _, g := range groups {
		domain := enrichment.RefererDomain(g.Value)
		if domain == "" {
			continue
		}
		merged[domain] += g.Count
	}

	ranked := lo.MapToSlice(merged, func(domain string, count int64) ReferrerCount {
		return ReferrerCount{Domain: domain, Count: count}
	})
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Domain < ranked[j].Domain
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// TopLinks ranks links by click count descending, ties by creation time
// earliest first.
func (s *AnalyticsService) TopLinks(ctx context.Context, limit int) ([]LinkClickCount, error) {
	return s.repo.TopLinks(ctx, limit)
}

// TrafficStats returns overall request traffic counters.
func (s *AnalyticsService) TrafficStats(ctx context.Context) (RequestTotals, error) {
	return s.repo.RequestTotals(ctx)
}

// RequestLogPage is a page of request log entries, newest first.
type RequestLogPage struct {
	Logs    []RequestLog
	Total   int64
	Page    int
	PerPage int
}

// ListRequestLogs returns a page of the request log, newest first.
func (s *AnalyticsService) ListRequestLogs(ctx context.Context, page, perPage int) (*RequestLogPage, error) {
	offset := (page - 1) * perPage
	logs, total, err := s.repo.ListRequestLogs(ctx, perPage, offset)
	if err != nil {
		return nil, err
	}
	return &RequestLogPage{
		Logs:    logs,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// toBreakdown shapes merged category counts into a sorted breakdown with
// percentages. An empty input yields an empty slice, never a division by
// zero.
func toBreakdown(merged map[string]int64) []BreakdownItem {
	if len(merged) == 0 {
		return []BreakdownItem{}
	}

	items := lo.MapToSlice(merged, func(value string, count int64) BreakdownItem {
		return BreakdownItem{Value: value, Count: count}
	})

	total := lo.SumBy(items, func(it BreakdownItem) int64 { return it.Count })
	if total > 0 {
		for i := range items {
			items[i].Percentage = float64(items[i].Count) * 100 / float64(total)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Value < items[j].Value
	})
	return items
}

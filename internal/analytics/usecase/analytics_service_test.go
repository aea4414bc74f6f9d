package usecase_test

import (
	"context"
	"testing"
	"time"

	"linktrack/internal/analytics/enrichment"
	"linktrack/internal/analytics/testutil/mocks"
	"linktrack/internal/analytics/usecase"
	"linktrack/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaSafariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func newService(repo *mocks.MockClickRepository) *usecase.AnalyticsService {
	return usecase.NewAnalyticsService(repo, enrichment.NewDeviceDetector(), enrichment.NewRefererClassifier())
}

// TestRecordClick_MapsEventToStoredClick tests the event-to-row mapping
func TestRecordClick_MapsEventToStoredClick(t *testing.T) {
	var stored usecase.Click
	repo := &mocks.MockClickRepository{
		AppendClickFunc: func(ctx context.Context, click usecase.Click) error {
			stored = click
			return nil
		},
	}
	service := newService(repo)

	now := time.Now().UTC()
	err := service.RecordClick(context.Background(), events.ClickEvent{
		LinkID:     7,
		Slug:       "promo1",
		OccurredAt: now,
		ClientIP:   "203.0.113.9",
		Country:    "DE",
		UserAgent:  uaChromeWindows,
		Referrer:   "https://www.google.com/search",
		Headers:    map[string]string{"Accept-Language": "de-DE"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.LinkID)
	assert.Equal(t, now, stored.OccurredAt)
	assert.Equal(t, "203.0.113.9", stored.IP)
	assert.Equal(t, "DE", stored.Country)
	assert.Equal(t, uaChromeWindows, stored.UserAgent, "user agent is stored raw, not classified")
	assert.Equal(t, "https://www.google.com/search", stored.Referrer)
	assert.Equal(t, "de-DE", stored.Headers["Accept-Language"])
}

// TestDailyClicks_ZeroFillsSevenDays tests the gap-free 7-day series
func TestDailyClicks_ZeroFillsSevenDays(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)
	repo := &mocks.MockClickRepository{
		CountClicksByDayFunc: func(ctx context.Context, from, to time.Time) (map[string]int64, error) {
			assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), from)
			return map[string]int64{
				"2026-08-25": 3,
				"2026-08-30": 1,
			}, nil
		},
	}
	service := newService(repo)

	buckets, err := service.DailyClicks(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, buckets, 7)
	assert.Equal(t, "2026-08-24", buckets[0].Bucket)
	assert.Equal(t, int64(0), buckets[0].Count)
	assert.Equal(t, "2026-08-25", buckets[1].Bucket)
	assert.Equal(t, int64(3), buckets[1].Count)
	assert.Equal(t, "2026-08-30", buckets[6].Bucket)
	assert.Equal(t, int64(1), buckets[6].Count)
}

// TestHourlyClicks_ZeroFillsTwentyFourHours tests the gap-free 24-hour series
func TestHourlyClicks_ZeroFillsTwentyFourHours(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 45, 0, 0, time.UTC)
	repo := &mocks.MockClickRepository{
		CountClicksByHourFunc: func(ctx context.Context, from, to time.Time) (map[string]int64, error) {
			return map[string]int64{"2026-08-30T09": 5}, nil
		},
	}
	service := newService(repo)

	buckets, err := service.HourlyClicks(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, buckets, 24)
	assert.Equal(t, "2026-08-29T11", buckets[0].Bucket)
	assert.Equal(t, "2026-08-30T10", buckets[23].Bucket)

	var nonZero int
	for _, b := range buckets {
		if b.Count > 0 {
			nonZero++
			assert.Equal(t, "2026-08-30T09", b.Bucket)
		}
	}
	assert.Equal(t, 1, nonZero)
}

// TestDeviceBreakdown_ClassifiesStoredUserAgents tests classify-on-read
// device grouping with percentages
func TestDeviceBreakdown_ClassifiesStoredUserAgents(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			assert.Equal(t, usecase.FieldUserAgent, field)
			return []usecase.GroupCount{
				{Value: uaChromeWindows, Count: 3},
				{Value: uaSafariIPhone, Count: 1},
			}, nil
		},
	}
	service := newService(repo)

	items, err := service.DeviceBreakdown(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Desktop", items[0].Value)
	assert.Equal(t, int64(3), items[0].Count)
	assert.Equal(t, 75.0, items[0].Percentage)
	assert.Equal(t, "Mobile", items[1].Value)
	assert.Equal(t, 25.0, items[1].Percentage)
}

// TestDeviceBreakdown_PercentagesSumToHundred tests the percentage invariant
func TestDeviceBreakdown_PercentagesSumToHundred(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return []usecase.GroupCount{
				{Value: uaChromeWindows, Count: 1},
				{Value: uaSafariIPhone, Count: 1},
				{Value: "", Count: 1},
			}, nil
		},
	}
	service := newService(repo)

	items, err := service.DeviceBreakdown(context.Background())

	require.NoError(t, err)
	var sum float64
	for _, it := range items {
		sum += it.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.001)
}

// TestDeviceBreakdown_NoClicks_ReturnsEmptySlice tests the empty store case
func TestDeviceBreakdown_NoClicks_ReturnsEmptySlice(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return nil, nil
		},
	}
	service := newService(repo)

	items, err := service.DeviceBreakdown(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

// TestReferrerBreakdown_MergesIntoSourceCategories tests source classification
// with unmatched referrers counted as direct
func TestReferrerBreakdown_MergesIntoSourceCategories(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			assert.Equal(t, usecase.FieldReferrer, field)
			return []usecase.GroupCount{
				{Value: "https://www.google.com/search", Count: 4},
				{Value: "https://bing.com/", Count: 2},
				{Value: "https://twitter.com/user", Count: 3},
				{Value: "https://chatgpt.com/", Count: 1},
				{Value: "", Count: 5},
				{Value: "https://unknown-blog.example.com/", Count: 1},
			}, nil
		},
	}
	service := newService(repo)

	items, err := service.ReferrerBreakdown(context.Background())

	require.NoError(t, err)
	got := map[string]int64{}
	for _, it := range items {
		got[it.Value] = it.Count
	}
	assert.Equal(t, int64(6), got[enrichment.SourceSearch])
	assert.Equal(t, int64(3), got[enrichment.SourceSocial])
	assert.Equal(t, int64(1), got[enrichment.SourceAI])
	assert.Equal(t, int64(6), got[enrichment.SourceDirect], "absent and unmatched referrers both count as direct")
}

// TestTopReferrers_RanksDomainsAndExcludesDirect tests the domain ranking
func TestTopReferrers_RanksDomainsAndExcludesDirect(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return []usecase.GroupCount{
				{Value: "https://www.google.com/search?q=a", Count: 2},
				{Value: "https://google.com/search?q=b", Count: 3},
				{Value: "https://twitter.com/user", Count: 5},
				{Value: "https://bing.com/", Count: 5},
				{Value: "", Count: 10},
			}, nil
		},
	}
	service := newService(repo)

	ranked, err := service.TopReferrers(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, ranked, 3)
	// All three domains tie at 5 (www and bare google.com merge); lexical
	// order breaks the tie.
	assert.Equal(t, usecase.ReferrerCount{Domain: "bing.com", Count: 5}, ranked[0])
	assert.Equal(t, usecase.ReferrerCount{Domain: "google.com", Count: 5}, ranked[1])
	assert.Equal(t, usecase.ReferrerCount{Domain: "twitter.com", Count: 5}, ranked[2])
}

// TestTopReferrers_LimitApplies tests the result bound
func TestTopReferrers_LimitApplies(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return []usecase.GroupCount{
				{Value: "https://a.example.com/", Count: 3},
				{Value: "https://b.example.com/", Count: 2},
				{Value: "https://c.example.com/", Count: 1},
			}, nil
		},
	}
	service := newService(repo)

	ranked, err := service.TopReferrers(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a.example.com", ranked[0].Domain)
}

// TestListRequestLogs_PassesPagingOffsets tests offset math on the log page
func TestListRequestLogs_PassesPagingOffsets(t *testing.T) {
	repo := &mocks.MockClickRepository{
		ListRequestLogsFunc: func(ctx context.Context, limit, offset int) ([]usecase.RequestLog, int64, error) {
			assert.Equal(t, 50, limit)
			assert.Equal(t, 100, offset)
			return []usecase.RequestLog{{Path: "/promo1"}}, 101, nil
		},
	}
	service := newService(repo)

	page, err := service.ListRequestLogs(context.Background(), 3, 50)

	require.NoError(t, err)
	assert.Equal(t, int64(101), page.Total)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Logs, 1)
}

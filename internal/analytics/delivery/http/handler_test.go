package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httphandler "linktrack/internal/analytics/delivery/http"
	"linktrack/internal/analytics/enrichment"
	"linktrack/internal/analytics/testutil/mocks"
	"linktrack/internal/analytics/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func setupTestHandler(repo *mocks.MockClickRepository) *httphandler.Handler {
	service := usecase.NewAnalyticsService(repo, enrichment.NewDeviceDetector(), enrichment.NewRefererClassifier())
	return httphandler.NewHandler(service, zap.NewNop())
}

// TestGetTrafficStats_Returns200WithTotals verifies the traffic counters endpoint
func TestGetTrafficStats_Returns200WithTotals(t *testing.T) {
	repo := &mocks.MockClickRepository{
		RequestTotalsFunc: func(ctx context.Context) (usecase.RequestTotals, error) {
			return usecase.RequestTotals{TotalRequests: 40, UniqueIPs: 12, UniqueCountries: 3}, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetTrafficStats(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.TrafficStatsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, int64(40), response.TotalRequests)
	assert.Equal(t, int64(12), response.UniqueIPs)
	assert.Equal(t, int64(3), response.UniqueCountries)
}

// TestGetDailyClicks_ReturnsSevenBuckets verifies the gap-free daily series
func TestGetDailyClicks_ReturnsSevenBuckets(t *testing.T) {
	repo := &mocks.MockClickRepository{
		CountClicksByDayFunc: func(ctx context.Context, from, to time.Time) (map[string]int64, error) {
			return map[string]int64{}, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats/daily", nil)
	rr := httptest.NewRecorder()

	handler.GetDailyClicks(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.BucketsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Len(t, response.Buckets, 7)
	for _, b := range response.Buckets {
		assert.Equal(t, int64(0), b.Count)
	}
}

// TestGetDeviceBreakdown_Returns200 verifies the device endpoint shape
func TestGetDeviceBreakdown_Returns200(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return []usecase.GroupCount{{Value: uaChromeWindows, Count: 4}}, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats/devices", nil)
	rr := httptest.NewRecorder()

	handler.GetDeviceBreakdown(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.BreakdownResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.Len(t, response.Breakdown, 1)
	assert.Equal(t, "Desktop", response.Breakdown[0].Value)
	assert.Equal(t, 100.0, response.Breakdown[0].Percentage)
}

// TestGetReferrerBreakdown_IncludesTopReferrers verifies the combined payload
func TestGetReferrerBreakdown_IncludesTopReferrers(t *testing.T) {
	repo := &mocks.MockClickRepository{
		GroupClicksFunc: func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
			return []usecase.GroupCount{
				{Value: "https://google.com/search", Count: 3},
				{Value: "", Count: 2},
			}, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats/referrers", nil)
	rr := httptest.NewRecorder()

	handler.GetReferrerBreakdown(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.ReferrerStatsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.Len(t, response.Breakdown, 2)
	require.Len(t, response.TopReferrers, 1)
	assert.Equal(t, "google.com", response.TopReferrers[0].Domain)
}

// TestGetTopLinks_AppliesLimitParam verifies the limit query parameter
func TestGetTopLinks_AppliesLimitParam(t *testing.T) {
	repo := &mocks.MockClickRepository{
		TopLinksFunc: func(ctx context.Context, limit int) ([]usecase.LinkClickCount, error) {
			assert.Equal(t, 5, limit)
			return []usecase.LinkClickCount{{LinkID: 1, Slug: "promo1", Clicks: 9}}, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats/top-links?limit=5", nil)
	rr := httptest.NewRecorder()

	handler.GetTopLinks(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.TopLinksResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.Len(t, response.Links, 1)
	assert.Equal(t, "promo1", response.Links[0].Slug)
}

// TestGetRequestLogs_ReturnsPagedEntries verifies the log endpoint
func TestGetRequestLogs_ReturnsPagedEntries(t *testing.T) {
	repo := &mocks.MockClickRepository{
		ListRequestLogsFunc: func(ctx context.Context, limit, offset int) ([]usecase.RequestLog, int64, error) {
			return []usecase.RequestLog{
				{Time: time.Now().UTC(), Method: "GET", Path: "/promo1", IP: "203.0.113.9", Country: "DE"},
			}, 1, nil
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/logs?page=1&per_page=50", nil)
	rr := httptest.NewRecorder()

	handler.GetRequestLogs(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response httphandler.RequestLogsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, int64(1), response.Total)
	require.Len(t, response.Logs, 1)
	assert.Equal(t, "/promo1", response.Logs[0].Path)
	assert.Equal(t, "DE", response.Logs[0].Country)
}

// TestGetTrafficStats_StoreError_Returns500Problem verifies the error mapping
func TestGetTrafficStats_StoreError_Returns500Problem(t *testing.T) {
	repo := &mocks.MockClickRepository{
		RequestTotalsFunc: func(ctx context.Context) (usecase.RequestTotals, error) {
			return usecase.RequestTotals{}, errors.New("store unavailable")
		},
	}
	handler := setupTestHandler(repo)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetTrafficStats(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"linktrack/internal/analytics/usecase"
	"linktrack/pkg/problemdetails"
)

const (
	topReferrersLimit = 10
	topLinksLimit     = 10
)

// Handler handles HTTP requests for the aggregate analytics endpoints
type Handler struct {
	service *usecase.AnalyticsService
	logger  *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(service *usecase.AnalyticsService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// TrafficStatsResponse represents overall traffic counters
type TrafficStatsResponse struct {
	TotalRequests   int64 `json:"total_requests"`
	UniqueIPs       int64 `json:"unique_ips"`
	UniqueCountries int64 `json:"unique_countries"`
}

// GetTrafficStats handles GET /api/stats
func (h *Handler) GetTrafficStats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.TrafficStats(r.Context())
	if err != nil {
		h.writeError(w, "traffic stats", err)
		return
	}

	writeJSON(w, http.StatusOK, TrafficStatsResponse{
		TotalRequests:   totals.TotalRequests,
		UniqueIPs:       totals.UniqueIPs,
		UniqueCountries: totals.UniqueCountries,
	})
}

// BucketsResponse wraps a time-bucketed click series
type BucketsResponse struct {
	Buckets []usecase.TimeBucket `json:"buckets"`
}

// GetDailyClicks handles GET /api/stats/daily
func (h *Handler) GetDailyClicks(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.DailyClicks(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, "daily clicks", err)
		return
	}

	writeJSON(w, http.StatusOK, BucketsResponse{Buckets: buckets})
}

// GetHourlyClicks handles GET /api/stats/hourly
func (h *Handler) GetHourlyClicks(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.HourlyClicks(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, "hourly clicks", err)
		return
	}

	writeJSON(w, http.StatusOK, BucketsResponse{Buckets: buckets})
}

// BreakdownResponse wraps a categorical click breakdown
type BreakdownResponse struct {
	Breakdown []usecase.BreakdownItem `json:"breakdown"`
}

// GetDeviceBreakdown handles GET /api/stats/devices
func (h *Handler) GetDeviceBreakdown(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.DeviceBreakdown(r.Context())
	if err != nil {
		h.writeError(w, "device breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, BreakdownResponse{Breakdown: items})
}

// GetBrowserBreakdown handles GET /api/stats/browsers
func (h *Handler) GetBrowserBreakdown(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.BrowserBreakdown(r.Context())
	if err != nil {
		h.writeError(w, "browser breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, BreakdownResponse{Breakdown: items})
}

// GetOSBreakdown handles GET /api/stats/os
func (h *Handler) GetOSBreakdown(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.OSBreakdown(r.Context())
	if err != nil {
		h.writeError(w, "os breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, BreakdownResponse{Breakdown: items})
}

// ReferrerStatsResponse holds the source breakdown plus the ranked
// referrer domains
type ReferrerStatsResponse struct {
	Breakdown    []usecase.BreakdownItem `json:"breakdown"`
	TopReferrers []usecase.ReferrerCount `json:"top_referrers"`
}

// GetReferrerBreakdown handles GET /api/stats/referrers
func (h *Handler) GetReferrerBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.ReferrerBreakdown(r.Context())
	if err != nil {
		h.writeError(w, "referrer breakdown", err)
		return
	}

	top, err := h.service.TopReferrers(r.Context(), topReferrersLimit)
	if err != nil {
		h.writeError(w, "top referrers", err)
		return
	}
	if top == nil {
		top = []usecase.ReferrerCount{}
	}

	writeJSON(w, http.StatusOK, ReferrerStatsResponse{
		Breakdown:    breakdown,
		TopReferrers: top,
	})
}

// TopLinkResponse represents one link in the top-links ranking
type TopLinkResponse struct {
	LinkID      int64     `json:"link_id"`
	Slug        string    `json:"slug"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

// TopLinksResponse wraps the top-links ranking
type TopLinksResponse struct {
	Links []TopLinkResponse `json:"links"`
}

// GetTopLinks handles GET /api/stats/top-links
func (h *Handler) GetTopLinks(w http.ResponseWriter, r *http.Request) {
	limit := topLinksLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := parseInt(l); err == nil && parsed >= 1 && parsed <= 100 {
			limit = parsed
		}
	}

	links, err := h.service.TopLinks(r.Context(), limit)
	if err != nil {
		h.writeError(w, "top links", err)
		return
	}

	out := make([]TopLinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, TopLinkResponse{
			LinkID:      l.LinkID,
			Slug:        l.Slug,
			Destination: l.Destination,
			CreatedAt:   l.CreatedAt,
			Clicks:      l.Clicks,
		})
	}

	writeJSON(w, http.StatusOK, TopLinksResponse{Links: out})
}

// RequestLogResponse represents one request log entry
type RequestLogResponse struct {
	Time     time.Time `json:"time"`
	Method   string    `json:"method"`
	Path     string    `json:"path"`
	ClientIP string    `json:"client_ip"`
	Country  string    `json:"country,omitempty"`
	Region   string    `json:"region,omitempty"`
	City     string    `json:"city,omitempty"`
}

// RequestLogsResponse represents a page of the request log
type RequestLogsResponse struct {
	Logs    []RequestLogResponse `json:"logs"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

// GetRequestLogs handles GET /api/logs
func (h *Handler) GetRequestLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		if parsed, err := parseInt(p); err == nil && parsed >= 1 {
			page = parsed
		}
	}

	perPage := 50
	if pp := query.Get("per_page"); pp != "" {
		if parsed, err := parseInt(pp); err == nil && parsed >= 1 && parsed <= 200 {
			perPage = parsed
		}
	}

	result, err := h.service.ListRequestLogs(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, "request logs", err)
		return
	}

	logs := make([]RequestLogResponse, 0, len(result.Logs))
	for _, entry := range result.Logs {
		logs = append(logs, RequestLogResponse{
			Time:     entry.Time,
			Method:   entry.Method,
			Path:     entry.Path,
			ClientIP: entry.IP,
			Country:  entry.Country,
			Region:   entry.Region,
			City:     entry.City,
		})
	}

	writeJSON(w, http.StatusOK, RequestLogsResponse{
		Logs:    logs,
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, what string, err error) {
	h.logger.Error("analytics query failed", zap.String("query", what), zap.Error(err))
	writeProblem(w, problemdetails.New(
		http.StatusInternalServerError,
		problemdetails.TypeInternalError,
		"Internal Server Error",
		"Failed to compute "+what,
	))
}

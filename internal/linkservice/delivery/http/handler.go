package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"linktrack/internal/analytics/enrichment"
	"linktrack/internal/linkservice/domain"
	"linktrack/internal/linkservice/usecase"
	"linktrack/internal/metrics"
	"linktrack/internal/shared/events"
	"linktrack/pkg/problemdetails"
)

// ClickPublisher hands click events to the dispatch bus.
type ClickPublisher interface {
	PublishClick(event events.ClickEvent) error
}

// Handler handles HTTP requests for link operations
type Handler struct {
	service   *usecase.LinkService
	baseURL   string
	publisher ClickPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	db        *sql.DB
}

// NewHandler creates a new Handler
func NewHandler(service *usecase.LinkService, baseURL string, publisher ClickPublisher, m *metrics.Metrics, logger *zap.Logger, db *sql.DB) *Handler {
	return &Handler{
		service:   service,
		baseURL:   baseURL,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		db:        db,
	}
}

// CreateLinkRequest represents the request body for creating a link
type CreateLinkRequest struct {
	Slug        string            `json:"slug,omitempty"`
	Destination string            `json:"destination"`
	Title       string            `json:"title,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// LinkResponse represents the response for link operations
type LinkResponse struct {
	ID          int64             `json:"id"`
	Slug        string            `json:"slug"`
	ShortURL    string            `json:"short_url"`
	Destination string            `json:"destination"`
	Title       string            `json:"title,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (h *Handler) linkResponse(link *domain.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		Slug:        link.Slug,
		ShortURL:    h.baseURL + "/" + link.Slug,
		Destination: link.Destination,
		Title:       link.Title,
		Meta:        link.Meta,
		CreatedAt:   link.CreatedAt,
	}
}

// ownerID identifies the caller. Key issuance is out of scope; any
// non-empty key is accepted as an identity.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-API-Key")
}

// CreateLink handles POST /api/links
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with a 'destination' field",
		))
		return
	}

	if req.Destination == "" {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidURL,
			"Invalid URL",
			"destination is required",
		))
		return
	}

	link, err := h.service.CreateLink(r.Context(), usecase.CreateLinkParams{
		Slug:        req.Slug,
		Destination: req.Destination,
		Title:       req.Title,
		Meta:        req.Meta,
		OwnerID:     ownerID(r),
	})
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.linkResponse(link))
}

// Redirect handles GET /{slug}
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.service.Resolve(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"Link not found: "+slug,
			))
			return
		}

		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Internal server error",
		))
		return
	}

	// Capture the enrichment context BEFORE redirect (r may not be
	// available in the goroutine)
	rc, _ := enrichment.FromContext(r.Context())

	// Send redirect response FIRST
	http.Redirect(w, r, link.Destination, http.StatusFound)

	// Fire-and-forget: publish click event after redirect
	go h.publishClickEvent(link, rc)
}

func (h *Handler) publishClickEvent(link *domain.Link, rc enrichment.RequestContext) {
	event := events.ClickEvent{
		LinkID:     link.ID,
		Slug:       link.Slug,
		OccurredAt: time.Now().UTC(),
		ClientIP:   rc.ClientIP,
		Country:    rc.Location.Country,
		Region:     rc.Location.Region,
		City:       rc.Location.City,
		UserAgent:  rc.UserAgent,
		Referrer:   rc.Referrer,
		Headers:    rc.Headers,
	}

	if err := h.publisher.PublishClick(event); err != nil {
		h.metrics.PublishFailures.Inc()
		h.logger.Error("failed to publish click event",
			zap.String("slug", link.Slug),
			zap.Error(err),
		)
		// Click is lost, redirect already succeeded
	}
}

// GetLink handles GET /api/links/{slug}
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.service.Resolve(r.Context(), slug)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.linkResponse(link))
}

// UpdateLinkRequest represents the request body for updating a link
type UpdateLinkRequest struct {
	Destination string `json:"destination"`
	Title       string `json:"title,omitempty"`
}

// UpdateLink handles PUT /api/links/{slug}
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with a 'destination' field",
		))
		return
	}

	link, err := h.service.Resolve(r.Context(), slug)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	updated, err := h.service.UpdateDestination(r.Context(), link.ID, ownerID(r), req.Destination, req.Title)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.linkResponse(updated))
}

// DeleteLink handles DELETE /api/links/{slug}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.service.Resolve(r.Context(), slug)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	if err := h.service.DeleteLink(r.Context(), link.ID, ownerID(r)); err != nil {
		h.writeLinkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLinkStats handles GET /api/links/{slug}/stats
func (h *Handler) GetLinkStats(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	stats, err := h.service.GetLinkStats(r.Context(), slug)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ListLinks handles GET /api/links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		if parsed, err := parseInt(p); err == nil && parsed >= 1 {
			page = parsed
		}
	}

	perPage := 20
	if pp := query.Get("per_page"); pp != "" {
		if parsed, err := parseInt(pp); err == nil && parsed >= 1 && parsed <= 100 {
			perPage = parsed
		}
	}

	order := query.Get("order")
	if order == "" {
		order = "desc"
	}

	var createdAfter, createdBefore time.Time
	if ca := query.Get("created_after"); ca != "" {
		if parsed, err := time.Parse("2006-01-02", ca); err == nil {
			createdAfter = parsed
		}
	}
	if cb := query.Get("created_before"); cb != "" {
		if parsed, err := time.Parse("2006-01-02", cb); err == nil {
			// Add end-of-day to include the entire date
			createdBefore = parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
	}

	result, err := h.service.ListLinks(r.Context(), usecase.ListLinksParams{
		OwnerID:       ownerID(r),
		Page:          page,
		PerPage:       perPage,
		Order:         order,
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
		Search:        query.Get("search"),
	})
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to list links",
		))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// BulkCreateRequest represents the request body for a bulk create
type BulkCreateRequest struct {
	Links []CreateLinkRequest `json:"links"`
}

// BulkCreateLinks handles POST /api/links/bulk
func (h *Handler) BulkCreateLinks(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Links) == 0 {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with a non-empty 'links' array",
		))
		return
	}

	owner := ownerID(r)
	items := make([]usecase.CreateLinkParams, 0, len(req.Links))
	for _, l := range req.Links {
		items = append(items, usecase.CreateLinkParams{
			Slug:        l.Slug,
			Destination: l.Destination,
			Title:       l.Title,
			Meta:        l.Meta,
			OwnerID:     owner,
		})
	}

	result, err := h.service.BulkCreateLinks(r.Context(), items)
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to create links",
		))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// BulkUpdateItemRequest names one link in a bulk update
type BulkUpdateItemRequest struct {
	ID          int64  `json:"id"`
	Destination string `json:"destination"`
	Title       string `json:"title,omitempty"`
}

// BulkUpdateRequest represents the request body for a bulk update
type BulkUpdateRequest struct {
	Links []BulkUpdateItemRequest `json:"links"`
}

// BulkUpdateLinks handles PUT /api/links/bulk
func (h *Handler) BulkUpdateLinks(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Links) == 0 {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with a non-empty 'links' array",
		))
		return
	}

	items := make([]usecase.BulkUpdateItem, 0, len(req.Links))
	for _, l := range req.Links {
		items = append(items, usecase.BulkUpdateItem{
			ID:          l.ID,
			Destination: l.Destination,
			Title:       l.Title,
		})
	}

	result, err := h.service.BulkUpdateLinks(r.Context(), items, ownerID(r))
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to update links",
		))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// BulkDeleteRequest represents the request body for a bulk delete
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDeleteResponse reports how many links a bulk delete removed
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BulkDeleteLinks handles DELETE /api/links/bulk
func (h *Handler) BulkDeleteLinks(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Request body must be valid JSON with a non-empty 'ids' array",
		))
		return
	}

	deleted, err := h.service.BulkDeleteLinks(r.Context(), req.IDs, ownerID(r))
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to delete links",
		))
		return
	}

	writeJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: deleted})
}

// writeLinkError maps domain errors to problem responses.
func (h *Handler) writeLinkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		writeProblem(w, problemdetails.New(
			http.StatusNotFound,
			problemdetails.TypeNotFound,
			"Not Found",
			"Link not found",
		))
	case errors.Is(err, domain.ErrInvalidDestination), errors.Is(err, domain.ErrInvalidSlug):
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidURL,
			"Invalid URL",
			err.Error(),
		))
	case errors.Is(err, domain.ErrSlugConflict):
		writeProblem(w, problemdetails.New(
			http.StatusConflict,
			problemdetails.TypeConflict,
			"Conflict",
			"Slug is already taken",
		))
	case errors.Is(err, domain.ErrNotOwner):
		writeProblem(w, problemdetails.New(
			http.StatusForbidden,
			problemdetails.TypeForbidden,
			"Forbidden",
			"You do not own this link",
		))
	default:
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Internal server error",
		))
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Healthz handles GET /healthz (liveness probe)
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz handles GET /readyz (readiness probe)
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Reason: "database unavailable: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"linktrack/internal/linkservice/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	// NanoID alphabet: alphanumeric (a-z, A-Z, 0-9) - 62 characters, case-sensitive
	nanoIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	nanoIDLength   = 8
	maxRetries     = 5
	maxURLLength   = 2048
	maxSlugLength  = 64

	// statsClickLimit bounds the click list returned on link stats.
	statsClickLimit = 100
)

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// LinkService implements the core business logic for slug resolution and
// link management.
type LinkService struct {
	repo    LinkRepository
	clicks  ClickReader
	logger  *zap.Logger
	baseURL string
}

// NewLinkService creates a new link service.
func NewLinkService(repo LinkRepository, clicks ClickReader, logger *zap.Logger, baseURL string) *LinkService {
	return &LinkService{
		repo:    repo,
		clicks:  clicks,
		logger:  logger,
		baseURL: baseURL,
	}
}

// CreateLinkParams holds the caller-supplied fields for a new link.
type CreateLinkParams struct {
	Slug        string
	Destination string
	Title       string
	Meta        map[string]string
	OwnerID     string
}

// CreateLink validates the destination and creates a link under the caller's
// slug, or a generated one when none is given.
func (s *LinkService) CreateLink(ctx context.Context, params CreateLinkParams) (*domain.Link, error) {
	if err := validateDestination(params.Destination); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDestination, err)
	}

	if params.Slug != "" {
		if err := validateSlug(params.Slug); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSlug, err)
		}
		return s.repo.Create(ctx, CreateParams{
			Slug:        params.Slug,
			Destination: params.Destination,
			Title:       params.Title,
			Meta:        params.Meta,
			OwnerID:     params.OwnerID,
		})
	}

	// Generate a slug with collision retry.
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slug, err := gonanoid.Generate(nanoIDAlphabet, nanoIDLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}

		link, err := s.repo.Create(ctx, CreateParams{
			Slug:        slug,
			Destination: params.Destination,
			Title:       params.Title,
			Meta:        params.Meta,
			OwnerID:     params.OwnerID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrSlugConflict) {
				continue
			}
			return nil, err
		}

		return link, nil
	}

	return nil, domain.ErrSlugConflict
}

// Resolve retrieves a link by its slug. Read-only; links are immutable at
// resolution time, so concurrent resolutions need no coordination.
func (s *LinkService) Resolve(ctx context.Context, slug string) (*domain.Link, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// UpdateDestination changes a link's destination (and title) after an owner
// check. The slug never changes.
func (s *LinkService) UpdateDestination(ctx context.Context, id int64, ownerID, destination, title string) (*domain.Link, error) {
	if err := validateDestination(destination); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDestination, err)
	}

	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}

	if title == "" {
		title = link.Title
	}
	if err := s.repo.UpdateDestination(ctx, id, destination, title); err != nil {
		return nil, err
	}

	link.Destination = destination
	link.Title = title
	return link, nil
}

// DeleteLink removes a link after an owner check. The store cascade-deletes
// the link's click events, so no orphan events remain queryable.
func (s *LinkService) DeleteLink(ctx context.Context, id int64, ownerID string) error {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if link.OwnerID != ownerID {
		return domain.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("link deleted",
		zap.Int64("link_id", id),
		zap.String("slug", link.Slug),
	)
	return nil
}

// LinkStats holds a link with its click history, most recent first.
type LinkStats struct {
	Slug        string        `json:"slug"`
	Destination string        `json:"destination"`
	ClicksCount int64         `json:"clicks_count"`
	Clicks      []ClickRecord `json:"clicks"`
}

// GetLinkStats returns the click count and recent clicks for a slug.
func (s *LinkService) GetLinkStats(ctx context.Context, slug string) (*LinkStats, error) {
	link, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	count, err := s.clicks.CountByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	clicks, err := s.clicks.RecentByLink(ctx, link.ID, statsClickLimit)
	if err != nil {
		return nil, err
	}

	return &LinkStats{
		Slug:        link.Slug,
		Destination: link.Destination,
		ClicksCount: count,
		Clicks:      clicks,
	}, nil
}

// LinkWithClicks represents a link with its click count.
type LinkWithClicks struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	ShortURL    string    `json:"short_url"`
	Destination string    `json:"destination"`
	Title       string    `json:"title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	TotalClicks int64     `json:"total_clicks"`
}

// LinkListResult represents a paginated list of links.
type LinkListResult struct {
	Links      []LinkWithClicks `json:"links"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// ListLinksParams represents parameters for listing links.
type ListLinksParams struct {
	OwnerID       string
	Page          int
	PerPage       int
	Order         string // "asc" or "desc" by creation time
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Search        string
}

// ListLinks retrieves a paginated list of the owner's links with click counts.
func (s *LinkService) ListLinks(ctx context.Context, params ListLinksParams) (*LinkListResult, error) {
	if params.Order == "" {
		params.Order = "desc"
	}
	if params.Order != "asc" && params.Order != "desc" {
		return nil, fmt.Errorf("order must be asc or desc, got: %s", params.Order)
	}

	offset := (params.Page - 1) * params.PerPage

	links, err := s.repo.FindAll(ctx, FindAllParams{
		OwnerID:       params.OwnerID,
		CreatedAfter:  params.CreatedAfter,
		CreatedBefore: params.CreatedBefore,
		Search:        params.Search,
		SortOrder:     params.Order,
		Limit:         params.PerPage,
		Offset:        offset,
	})
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, CountParams{
		OwnerID:       params.OwnerID,
		CreatedAfter:  params.CreatedAfter,
		CreatedBefore: params.CreatedBefore,
		Search:        params.Search,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	counts, err := s.clicks.CountByLinks(ctx, ids)
	if err != nil {
		// Click counts are decorative on the list view; degrade to zeros.
		s.logger.Warn("failed to fetch click counts", zap.Error(err))
		counts = map[int64]int64{}
	}

	result := make([]LinkWithClicks, len(links))
	for i, l := range links {
		result[i] = LinkWithClicks{
			ID:          l.ID,
			Slug:        l.Slug,
			ShortURL:    s.baseURL + "/" + l.Slug,
			Destination: l.Destination,
			Title:       l.Title,
			CreatedAt:   l.CreatedAt,
			TotalClicks: counts[l.ID],
		}
	}

	totalPages := int(math.Ceil(float64(total) / float64(params.PerPage)))

	return &LinkListResult{
		Links:      result,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
	}, nil
}

// BulkCreateResult holds the per-item outcome of a bulk create.
type BulkCreateResult struct {
	Created []*domain.Link `json:"created"`
	Failed  []BulkFailure  `json:"failed,omitempty"`
}

// BulkFailure names one rejected item in a bulk operation.
type BulkFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BulkCreateLinks creates several links in one call. Items fail
// independently; one bad destination does not abort the rest.
func (s *LinkService) BulkCreateLinks(ctx context.Context, items []CreateLinkParams) (*BulkCreateResult, error) {
	result := &BulkCreateResult{}
	for i, item := range items {
		link, err := s.CreateLink(ctx, item)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, link)
	}
	return result, nil
}

// BulkUpdateItem names one link to update in a bulk call.
type BulkUpdateItem struct {
	ID          int64
	Destination string
	Title       string
}

// BulkUpdateResult holds the per-item outcome of a bulk update.
type BulkUpdateResult struct {
	Updated []*domain.Link `json:"updated"`
	Failed  []BulkFailure  `json:"failed,omitempty"`
}

// BulkUpdateLinks updates several links in one call. Items fail
// independently; a missing link, a foreign link or a bad destination is
// reported per item without aborting the rest.
func (s *LinkService) BulkUpdateLinks(ctx context.Context, items []BulkUpdateItem, ownerID string) (*BulkUpdateResult, error) {
	result := &BulkUpdateResult{}
	for i, item := range items {
		link, err := s.UpdateDestination(ctx, item.ID, ownerID, item.Destination, item.Title)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		result.Updated = append(result.Updated, link)
	}
	return result, nil
}

// BulkDeleteLinks deletes several links in one call, skipping ones the
// caller does not own or that no longer exist.
func (s *LinkService) BulkDeleteLinks(ctx context.Context, ids []int64, ownerID string) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := s.DeleteLink(ctx, id, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrLinkNotFound) || errors.Is(err, domain.ErrNotOwner) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// validateDestination validates the destination URL format and constraints.
func validateDestination(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("url exceeds maximum length of %d characters", maxURLLength)
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("url must have a host")
	}

	return nil
}

// validateSlug validates a caller-chosen slug.
func validateSlug(slug string) error {
	return validation.Validate(slug,
		validation.Required.Error("slug is required"),
		validation.Length(1, maxSlugLength).Error(fmt.Sprintf("slug must be 1-%d characters", maxSlugLength)),
		validation.Match(slugRegex).Error("slug must contain only alphanumeric characters, underscores, and hyphens"),
	)
}

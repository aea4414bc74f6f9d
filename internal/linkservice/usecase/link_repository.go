package usecase

import (
	"context"
	"time"

	"linktrack/internal/linkservice/domain"
)

// CreateParams holds the fields for creating a link.
type CreateParams struct {
	Slug        string
	Destination string
	Title       string
	Meta        map[string]string
	OwnerID     string
}

// FindAllParams holds filters for listing links.
type FindAllParams struct {
	OwnerID       string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Search        string
	SortOrder     string
	Limit         int
	Offset        int
}

// CountParams holds filters for counting links.
type CountParams struct {
	OwnerID       string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Search        string
}

// LinkRepository is the link store boundary.
type LinkRepository interface {
	// Create persists a new link. Returns domain.ErrSlugConflict when the
	// slug is already taken.
	Create(ctx context.Context, params CreateParams) (*domain.Link, error)
	// FindBySlug is a point read on the unique slug index.
	FindBySlug(ctx context.Context, slug string) (*domain.Link, error)
	FindByID(ctx context.Context, id int64) (*domain.Link, error)
	// UpdateDestination changes the destination and title; the slug is
	// immutable by contract.
	UpdateDestination(ctx context.Context, id int64, destination, title string) error
	// Delete removes a link. Click events cascade with it.
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context, params FindAllParams) ([]*domain.Link, error)
	Count(ctx context.Context, params CountParams) (int64, error)
}

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"linktrack/internal/linkservice/domain"
	"linktrack/internal/linkservice/testutil/mocks"
	"linktrack/internal/linkservice/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBaseURL = "http://localhost:8080"

func newService(repo *mocks.MockLinkRepository, clicks *mocks.MockClickReader) *usecase.LinkService {
	return usecase.NewLinkService(repo, clicks, zap.NewNop(), testBaseURL)
}

// TestCreateLink_GeneratedSlug_ReturnsNewLink tests creation with a generated slug
func TestCreateLink_GeneratedSlug_ReturnsNewLink(t *testing.T) {
	var savedSlug string
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			savedSlug = params.Slug
			return &domain.Link{
				ID:          1,
				Slug:        params.Slug,
				Destination: params.Destination,
				OwnerID:     params.OwnerID,
				CreatedAt:   time.Now(),
			}, nil
		},
	}
	service := newService(repo, nil)

	link, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: "https://example.com/landing",
		OwnerID:     "key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/landing", link.Destination)
	assert.Len(t, savedSlug, 8)
	for _, r := range savedSlug {
		assert.True(t, strings.ContainsRune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r),
			"slug must stay alphanumeric, got %q", savedSlug)
	}
}

// TestCreateLink_CustomSlug_UsesCallerSlug tests creation with a vanity slug
func TestCreateLink_CustomSlug_UsesCallerSlug(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			return &domain.Link{ID: 1, Slug: params.Slug, Destination: params.Destination}, nil
		},
	}
	service := newService(repo, nil)

	link, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Slug:        "promo1",
		Destination: "https://example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "promo1", link.Slug)
}

// TestCreateLink_CustomSlugTaken_ReturnsConflict tests that a taken vanity slug
// is not retried
func TestCreateLink_CustomSlugTaken_ReturnsConflict(t *testing.T) {
	calls := 0
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			calls++
			return nil, domain.ErrSlugConflict
		},
	}
	service := newService(repo, nil)

	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Slug:        "promo1",
		Destination: "https://example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSlugConflict))
	assert.Equal(t, 1, calls, "caller-chosen slugs must not be retried")
}

// TestCreateLink_GeneratedSlugCollision_Retries tests the collision retry loop
func TestCreateLink_GeneratedSlugCollision_Retries(t *testing.T) {
	calls := 0
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			calls++
			if calls < 3 {
				return nil, domain.ErrSlugConflict
			}
			return &domain.Link{ID: 1, Slug: params.Slug}, nil
		},
	}
	service := newService(repo, nil)

	link, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: "https://example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, link.Slug)
	assert.Equal(t, 3, calls)
}

// TestCreateLink_GeneratedSlugExhausted_ReturnsConflict tests giving up after
// five collisions
func TestCreateLink_GeneratedSlugExhausted_ReturnsConflict(t *testing.T) {
	calls := 0
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			calls++
			return nil, domain.ErrSlugConflict
		},
	}
	service := newService(repo, nil)

	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: "https://example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSlugConflict))
	assert.Equal(t, 5, calls)
}

// TestCreateLink_InvalidScheme_ReturnsError tests rejection of ftp:// URLs
func TestCreateLink_InvalidScheme_ReturnsError(t *testing.T) {
	service := newService(&mocks.MockLinkRepository{}, nil)

	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: "ftp://example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDestination))
	assert.Contains(t, err.Error(), "url scheme must be http or https")
}

// TestCreateLink_EmptyHost_ReturnsError tests rejection of URLs without host
func TestCreateLink_EmptyHost_ReturnsError(t *testing.T) {
	service := newService(&mocks.MockLinkRepository{}, nil)

	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: "https://",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDestination))
	assert.Contains(t, err.Error(), "url must have a host")
}

// TestCreateLink_ExceedsMaxLength_ReturnsError tests rejection of URLs
// exceeding 2048 chars
func TestCreateLink_ExceedsMaxLength_ReturnsError(t *testing.T) {
	service := newService(&mocks.MockLinkRepository{}, nil)

	long := "https://example.com/" + strings.Repeat("a", 2048)
	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Destination: long,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDestination))
	assert.Contains(t, err.Error(), "url exceeds maximum length")
}

// TestCreateLink_BadSlugCharacters_ReturnsError tests slug charset validation
func TestCreateLink_BadSlugCharacters_ReturnsError(t *testing.T) {
	service := newService(&mocks.MockLinkRepository{}, nil)

	_, err := service.CreateLink(context.Background(), usecase.CreateLinkParams{
		Slug:        "bad slug!",
		Destination: "https://example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSlug))
}

// TestResolve_UnknownSlug_ReturnsNotFound tests resolution of a missing slug
func TestResolve_UnknownSlug_ReturnsNotFound(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindBySlugFunc: func(ctx context.Context, slug string) (*domain.Link, error) {
			return nil, domain.ErrLinkNotFound
		},
	}
	service := newService(repo, nil)

	_, err := service.Resolve(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLinkNotFound))
}

// TestUpdateDestination_NotOwner_ReturnsForbidden tests the owner check on update
func TestUpdateDestination_NotOwner_ReturnsForbidden(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Link, error) {
			return &domain.Link{ID: id, Slug: "promo1", OwnerID: "owner-a"}, nil
		},
	}
	service := newService(repo, nil)

	_, err := service.UpdateDestination(context.Background(), 1, "owner-b", "https://example.com/new", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotOwner))
}

// TestUpdateDestination_Owner_UpdatesDestinationKeepsSlug tests a successful update
func TestUpdateDestination_Owner_UpdatesDestinationKeepsSlug(t *testing.T) {
	var gotDestination string
	repo := &mocks.MockLinkRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Link, error) {
			return &domain.Link{ID: id, Slug: "promo1", Destination: "https://old.example.com", Title: "Promo", OwnerID: "owner-a"}, nil
		},
		UpdateDestinationFunc: func(ctx context.Context, id int64, destination, title string) error {
			gotDestination = destination
			return nil
		},
	}
	service := newService(repo, nil)

	link, err := service.UpdateDestination(context.Background(), 1, "owner-a", "https://new.example.com", "")

	require.NoError(t, err)
	assert.Equal(t, "promo1", link.Slug)
	assert.Equal(t, "https://new.example.com", link.Destination)
	assert.Equal(t, "https://new.example.com", gotDestination)
	assert.Equal(t, "Promo", link.Title, "empty title keeps the existing one")
}

// TestDeleteLink_NotOwner_ReturnsForbidden tests the owner check on delete
func TestDeleteLink_NotOwner_ReturnsForbidden(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Link, error) {
			return &domain.Link{ID: id, Slug: "promo1", OwnerID: "owner-a"}, nil
		},
	}
	service := newService(repo, nil)

	err := service.DeleteLink(context.Background(), 1, "owner-b")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotOwner))
}

// TestGetLinkStats_ReturnsCountAndRecentClicks tests the stats read path
func TestGetLinkStats_ReturnsCountAndRecentClicks(t *testing.T) {
	now := time.Now().UTC()
	repo := &mocks.MockLinkRepository{
		FindBySlugFunc: func(ctx context.Context, slug string) (*domain.Link, error) {
			return &domain.Link{ID: 7, Slug: slug, Destination: "https://example.com"}, nil
		},
	}
	clicks := &mocks.MockClickReader{
		CountByLinkFunc: func(ctx context.Context, linkID int64) (int64, error) {
			assert.Equal(t, int64(7), linkID)
			return 2, nil
		},
		RecentByLinkFunc: func(ctx context.Context, linkID int64, limit int) ([]usecase.ClickRecord, error) {
			return []usecase.ClickRecord{
				{OccurredAt: now, ClientIP: "203.0.113.9"},
				{OccurredAt: now.Add(-time.Minute), ClientIP: "203.0.113.8"},
			}, nil
		},
	}
	service := newService(repo, clicks)

	stats, err := service.GetLinkStats(context.Background(), "promo1")

	require.NoError(t, err)
	assert.Equal(t, "promo1", stats.Slug)
	assert.Equal(t, int64(2), stats.ClicksCount)
	require.Len(t, stats.Clicks, 2)
	assert.True(t, stats.Clicks[0].OccurredAt.After(stats.Clicks[1].OccurredAt),
		"clicks must come back most recent first")
}

// TestListLinks_ClickCountFailure_DegradesToZeros tests that a count failure
// does not fail the listing
func TestListLinks_ClickCountFailure_DegradesToZeros(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindAllFunc: func(ctx context.Context, params usecase.FindAllParams) ([]*domain.Link, error) {
			return []*domain.Link{
				{ID: 1, Slug: "a", Destination: "https://example.com/a"},
				{ID: 2, Slug: "b", Destination: "https://example.com/b"},
			}, nil
		},
		CountFunc: func(ctx context.Context, params usecase.CountParams) (int64, error) {
			return 2, nil
		},
	}
	clicks := &mocks.MockClickReader{
		CountByLinksFunc: func(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
			return nil, errors.New("store unavailable")
		},
	}
	service := newService(repo, clicks)

	result, err := service.ListLinks(context.Background(), usecase.ListLinksParams{Page: 1, PerPage: 20})

	require.NoError(t, err)
	require.Len(t, result.Links, 2)
	assert.Equal(t, int64(0), result.Links[0].TotalClicks)
	assert.Equal(t, testBaseURL+"/a", result.Links[0].ShortURL)
}

// TestListLinks_Pagination_ComputesTotalPages tests total page math
func TestListLinks_Pagination_ComputesTotalPages(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindAllFunc: func(ctx context.Context, params usecase.FindAllParams) ([]*domain.Link, error) {
			assert.Equal(t, 10, params.Limit)
			assert.Equal(t, 10, params.Offset)
			return []*domain.Link{{ID: 11, Slug: "k"}}, nil
		},
		CountFunc: func(ctx context.Context, params usecase.CountParams) (int64, error) {
			return 11, nil
		},
	}
	clicks := &mocks.MockClickReader{
		CountByLinksFunc: func(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
			return map[int64]int64{11: 4}, nil
		},
	}
	service := newService(repo, clicks)

	result, err := service.ListLinks(context.Background(), usecase.ListLinksParams{Page: 2, PerPage: 10})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, int64(4), result.Links[0].TotalClicks)
}

// TestBulkCreateLinks_PartialFailure_ReportsPerItem tests independent item outcomes
func TestBulkCreateLinks_PartialFailure_ReportsPerItem(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		CreateFunc: func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
			return &domain.Link{ID: 1, Slug: params.Slug, Destination: params.Destination}, nil
		},
	}
	service := newService(repo, nil)

	result, err := service.BulkCreateLinks(context.Background(), []usecase.CreateLinkParams{
		{Slug: "ok1", Destination: "https://example.com/1"},
		{Slug: "bad", Destination: "ftp://example.com"},
		{Slug: "ok2", Destination: "https://example.com/2"},
	})

	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
}

// TestBulkUpdateLinks_PartialFailure_ReportsPerItem tests that foreign
// links and bad destinations fail their item without aborting the rest
func TestBulkUpdateLinks_PartialFailure_ReportsPerItem(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Link, error) {
			if id == 2 {
				return &domain.Link{ID: 2, Slug: "theirs", OwnerID: "owner-b"}, nil
			}
			return &domain.Link{ID: id, Slug: "mine", OwnerID: "owner-a", Title: "old"}, nil
		},
		UpdateDestinationFunc: func(ctx context.Context, id int64, destination, title string) error {
			assert.Equal(t, int64(1), id)
			return nil
		},
	}
	service := newService(repo, nil)

	result, err := service.BulkUpdateLinks(context.Background(), []usecase.BulkUpdateItem{
		{ID: 1, Destination: "https://example.com/new", Title: "fresh"},
		{ID: 2, Destination: "https://example.com/other"},
		{ID: 3, Destination: "ftp://example.com"},
	}, "owner-a")

	require.NoError(t, err)
	require.Len(t, result.Updated, 1)
	assert.Equal(t, "https://example.com/new", result.Updated[0].Destination)
	assert.Equal(t, "fresh", result.Updated[0].Title)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 2, result.Failed[1].Index)
}

// TestBulkDeleteLinks_SkipsMissingAndForeign tests that missing and foreign
// links are skipped, not fatal
func TestBulkDeleteLinks_SkipsMissingAndForeign(t *testing.T) {
	repo := &mocks.MockLinkRepository{
		FindByIDFunc: func(ctx context.Context, id int64) (*domain.Link, error) {
			switch id {
			case 1:
				return &domain.Link{ID: 1, Slug: "mine", OwnerID: "owner-a"}, nil
			case 2:
				return nil, domain.ErrLinkNotFound
			default:
				return &domain.Link{ID: id, Slug: "theirs", OwnerID: "owner-b"}, nil
			}
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			assert.Equal(t, int64(1), id)
			return nil
		},
	}
	service := newService(repo, nil)

	deleted, err := service.BulkDeleteLinks(context.Background(), []int64{1, 2, 3}, "owner-a")

	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

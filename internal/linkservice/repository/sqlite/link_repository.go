package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"linktrack/internal/linkservice/domain"
	"linktrack/internal/linkservice/usecase"
)

// LinkRepository implements usecase.LinkRepository on database/sql.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new SQLite-backed link repository.
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Ensure LinkRepository implements usecase.LinkRepository at compile time
var _ usecase.LinkRepository = (*LinkRepository)(nil)

// Create persists a new link row.
func (r *LinkRepository) Create(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
	meta, err := marshalMeta(params.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meta: %w", err)
	}

	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO links (slug, destination, title, meta, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.Slug, params.Destination, params.Title, meta, params.OwnerID, createdAt,
	)
	if err != nil {
		// SQLite reports duplicate slugs as a unique constraint violation.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrSlugConflict
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &domain.Link{
		ID:          id,
		Slug:        params.Slug,
		Destination: params.Destination,
		Title:       params.Title,
		Meta:        params.Meta,
		OwnerID:     params.OwnerID,
		CreatedAt:   createdAt,
	}, nil
}

const linkColumns = `id, slug, destination, title, meta, owner_id, created_at`

// FindBySlug retrieves a link by its unique slug.
func (r *LinkRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE slug = ?`, slug)
	return scanLink(row)
}

// FindByID retrieves a link by its primary key.
func (r *LinkRepository) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	return scanLink(row)
}

// UpdateDestination changes the destination and title of a link.
func (r *LinkRepository) UpdateDestination(ctx context.Context, id int64, destination, title string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET destination = ?, title = ? WHERE id = ?`,
		destination, title, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

// Delete removes a link. Click rows cascade through the foreign key.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

// FindAll retrieves links matching the filters, ordered by creation time.
func (r *LinkRepository) FindAll(ctx context.Context, params usecase.FindAllParams) ([]*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links`
	where, args := buildFilters(params.OwnerID, params.CreatedAfter, params.CreatedBefore, params.Search)
	query += where

	order := "DESC"
	if params.SortOrder == "asc" {
		order = "ASC"
	}
	query += " ORDER BY created_at " + order + " LIMIT ? OFFSET ?"
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Count returns the number of links matching the filters.
func (r *LinkRepository) Count(ctx context.Context, params usecase.CountParams) (int64, error) {
	query := `SELECT COUNT(*) FROM links`
	where, args := buildFilters(params.OwnerID, params.CreatedAfter, params.CreatedBefore, params.Search)
	query += where

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildFilters(ownerID string, createdAfter, createdBefore time.Time, search string) (string, []any) {
	var conditions []string
	var args []any

	if ownerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, ownerID)
	}
	if !createdAfter.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, createdAfter)
	}
	if !createdBefore.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, createdBefore)
	}
	if search != "" {
		conditions = append(conditions, "(slug LIKE ? OR destination LIKE ? OR title LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var link domain.Link
	var meta string
	err := row.Scan(&link.ID, &link.Slug, &link.Destination, &link.Title, &meta, &link.OwnerID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &link.Meta); err != nil {
			// A corrupt meta blob must not hide the link itself.
			link.Meta = nil
		}
	}
	return &link, nil
}

func marshalMeta(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

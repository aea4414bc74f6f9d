package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"linktrack/internal/analytics/usecase"
)

// ClickRepository implements usecase.ClickRepository on database/sql.
type ClickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new SQLite-backed click repository.
func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// Ensure ClickRepository implements usecase.ClickRepository at compile time
var _ usecase.ClickRepository = (*ClickRepository)(nil)

// AppendClick stores a click event. Empty geo fields are stored as NULL so
// distinct-country queries can exclude them.
func (r *ClickRepository) AppendClick(ctx context.Context, click usecase.Click) error {
	headers := "{}"
	if len(click.Headers) > 0 {
		data, err := json.Marshal(click.Headers)
		if err != nil {
			return fmt.Errorf("failed to encode headers: %w", err)
		}
		headers = string(data)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clicks (link_id, occurred_at, ip, country, region, city, user_agent, referrer, headers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		click.LinkID, click.OccurredAt.UTC(), click.IP,
		nullable(click.Country), nullable(click.Region), nullable(click.City),
		click.UserAgent, nullable(click.Referrer), headers,
	)
	return err
}

// AppendRequestLog stores a request log entry.
func (r *ClickRepository) AppendRequestLog(ctx context.Context, entry usecase.RequestLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO request_logs (time, method, path, ip, country, region, city)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Time.UTC(), entry.Method, entry.Path, entry.IP,
		nullable(entry.Country), nullable(entry.Region), nullable(entry.City),
	)
	return err
}

// CountByLink returns the total number of clicks for a link.
func (r *ClickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clicks WHERE link_id = ?`, linkID).Scan(&count)
	return count, err
}

// CountByLinks returns click counts per link in one query.
func (r *ClickRepository) CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64)
	if len(linkIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(linkIDs)), ",")
	args := make([]any, len(linkIDs))
	for i, id := range linkIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT link_id, COUNT(*) FROM clicks WHERE link_id IN (`+placeholders+`) GROUP BY link_id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		result[id] = count
	}
	return result, rows.Err()
}

// RecentByLink returns a link's clicks most recent first.
func (r *ClickRepository) RecentByLink(ctx context.Context, linkID int64, limit int) ([]usecase.Click, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, link_id, occurred_at, ip, country, region, city, user_agent, referrer, headers
		 FROM clicks WHERE link_id = ?
		 ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		linkID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := make([]usecase.Click, 0, limit)
	for rows.Next() {
		click, err := scanClick(rows)
		if err != nil {
			// A malformed row must not abort the whole listing.
			continue
		}
		clicks = append(clicks, click)
	}
	return clicks, rows.Err()
}

// CountClicksByDay buckets clicks by UTC calendar day. Bucketing happens in
// Go so a row with an unparseable timestamp is skipped, not fatal.
func (r *ClickRepository) CountClicksByDay(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.bucketClicks(ctx, from, to, "2006-01-02")
}

// CountClicksByHour buckets clicks by UTC hour.
func (r *ClickRepository) CountClicksByHour(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.bucketClicks(ctx, from, to, "2006-01-02T15")
}

func (r *ClickRepository) bucketClicks(ctx context.Context, from, to time.Time, layout string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT occurred_at FROM clicks WHERE occurred_at >= ? AND occurred_at <= ?`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var occurredAt time.Time
		if err := rows.Scan(&occurredAt); err != nil {
			continue
		}
		counts[occurredAt.UTC().Format(layout)]++
	}
	return counts, rows.Err()
}

// GroupClicks counts clicks grouped by the given field.
func (r *ClickRepository) GroupClicks(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
	var column string
	switch field {
	case usecase.FieldUserAgent:
		column = "user_agent"
	case usecase.FieldReferrer:
		column = "referrer"
	case usecase.FieldCountry:
		column = "country"
	default:
		return nil, fmt.Errorf("unsupported group field: %s", field)
	}

	query := `SELECT IFNULL(` + column + `, ''), COUNT(*) FROM clicks`
	var args []any
	if !from.IsZero() || !to.IsZero() {
		query += ` WHERE occurred_at >= ? AND occurred_at <= ?`
		args = append(args, from.UTC(), to.UTC())
	}
	query += ` GROUP BY ` + column

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []usecase.GroupCount
	for rows.Next() {
		var gc usecase.GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			continue
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

// TopLinks ranks links by click count descending, ties by creation time
// ascending. Links without clicks are included with zero.
func (r *ClickRepository) TopLinks(ctx context.Context, limit int) ([]usecase.LinkClickCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.slug, l.destination, l.created_at, COUNT(c.id) AS clicks
		 FROM links l LEFT JOIN clicks c ON c.link_id = l.id
		 GROUP BY l.id
		 ORDER BY clicks DESC, l.created_at ASC, l.id ASC
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]usecase.LinkClickCount, 0, limit)
	for rows.Next() {
		var lc usecase.LinkClickCount
		if err := rows.Scan(&lc.LinkID, &lc.Slug, &lc.Destination, &lc.CreatedAt, &lc.Clicks); err != nil {
			continue
		}
		result = append(result, lc)
	}
	return result, rows.Err()
}

// RequestTotals returns overall traffic counters from the request log.
func (r *ClickRepository) RequestTotals(ctx context.Context) (usecase.RequestTotals, error) {
	var totals usecase.RequestTotals

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_logs`).Scan(&totals.TotalRequests); err != nil {
		return totals, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT ip) FROM request_logs`).Scan(&totals.UniqueIPs); err != nil {
		return totals, err
	}
	// Unknown-country rows count toward totals but not distinct countries.
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT country) FROM request_logs WHERE country IS NOT NULL AND country != ''`).Scan(&totals.UniqueCountries); err != nil {
		return totals, err
	}

	return totals, nil
}

// ListRequestLogs returns entries newest first with the total count.
func (r *ClickRepository) ListRequestLogs(ctx context.Context, limit, offset int) ([]usecase.RequestLog, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, time, method, path, ip, country, region, city
		 FROM request_logs ORDER BY time DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]usecase.RequestLog, 0, limit)
	for rows.Next() {
		var entry usecase.RequestLog
		var country, region, city sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Time, &entry.Method, &entry.Path, &entry.IP, &country, &region, &city); err != nil {
			continue
		}
		entry.Country = country.String
		entry.Region = region.String
		entry.City = city.String
		logs = append(logs, entry)
	}
	return logs, total, rows.Err()
}

func scanClick(rows *sql.Rows) (usecase.Click, error) {
	var click usecase.Click
	var country, region, city, referrer sql.NullString
	var headers string
	err := rows.Scan(&click.ID, &click.LinkID, &click.OccurredAt, &click.IP,
		&country, &region, &city, &click.UserAgent, &referrer, &headers)
	if err != nil {
		return click, err
	}

	click.Country = country.String
	click.Region = region.String
	click.City = city.String
	click.Referrer = referrer.String
	if headers != "" && headers != "{}" {
		if err := json.Unmarshal([]byte(headers), &click.Headers); err != nil {
			click.Headers = nil
		}
	}
	return click, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package domain

import "time"

// Link maps a slug to a destination URL. The slug is unique and immutable
// once assigned; the destination may be updated by the owner only.
type Link struct {
	ID          int64             `json:"id"`
	Slug        string            `json:"slug"`
	Destination string            `json:"destination"`
	Title       string            `json:"title,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	OwnerID     string            `json:"owner_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

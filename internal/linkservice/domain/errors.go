package domain

import "errors"

var (
	ErrLinkNotFound       = errors.New("link not found")
	ErrInvalidDestination = errors.New("invalid destination url")
	ErrSlugConflict       = errors.New("slug already exists")
	ErrInvalidSlug        = errors.New("invalid slug")
	ErrNotOwner           = errors.New("link belongs to a different owner")
)

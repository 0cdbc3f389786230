package feed

import (
	"time"
)

// Metadata describes the feed itself.
type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string
	UpdatedAt   *time.Time
}

// PostRecord is one canonical post decoded from a raw feed body.
type PostRecord struct {
	GUID           string
	Title          string
	Description    string
	Link           string
	Author         string
	PubDate        time.Time
	ContentEncoded string
}

package database

import (
	"time"
)

// Folder is a flat named grouping of sources.
type Folder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Source is a subscribed feed belonging to exactly one folder.
type Source struct {
	ID         int64      `json:"-"`
	SourceID   string     `json:"source_id"` // Stable, externally assigned identifier; join key everywhere
	FolderID   int64      `json:"folder_id"`
	Title      string     `json:"title"`
	HTMLURL    string     `json:"html_url"`
	FeedURL    string     `json:"feed_url"`
	Avatar     string     `json:"avatar,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
}

// Article is one ingested post, keyed by its feed-provided guid. Content is
// stored as an opaque base64 blob and decoded at read time.
type Article struct {
	ID         int64     `json:"-"`
	SourceID   string    `json:"source_id"`
	GUID       string    `json:"guid"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	Link       string    `json:"link"`
	Content    string    `json:"content"` // Decoded
	Read       bool      `json:"read"`
	Favorite   bool      `json:"favorite"`
	UpdateTime time.Time `json:"update_time"`
}

// ArticleSummary is the list-view projection of an article: decoded content
// reduced to a short plain-text excerpt, plus parent display metadata.
type ArticleSummary struct {
	GUID        string    `json:"guid"`
	SourceID    string    `json:"source_id"`
	SourceTitle string    `json:"source_title"`
	FolderName  string    `json:"folder_name"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	Read        bool      `json:"read"`
	Favorite    bool      `json:"favorite"`
	UpdateTime  time.Time `json:"update_time"`
}

// Post is an incoming decoded feed entry handed to article ingestion.
type Post struct {
	GUID           string
	Title          string
	Author         string
	Link           string
	Description    string
	ContentEncoded string
	UpdateTime     time.Time
}

// SourceInfo describes the desired state of one source inside a folder tree
// reconciliation.
type SourceInfo struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	HTMLURL    string     `json:"html_url"`
	FeedURL    string     `json:"feed_url"`
	Avatar     string     `json:"avatar,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
}

// FolderGroup is one folder plus its desired sources.
type FolderGroup struct {
	Name    string       `json:"name"`
	Sources []SourceInfo `json:"sources"`
}

// SearchOptions narrows a full-text search.
type SearchOptions struct {
	FolderID *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// DefaultSearchLimit caps search results when no explicit limit is given.
const DefaultSearchLimit = 100

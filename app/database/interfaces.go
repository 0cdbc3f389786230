package database

import (
	"errors"
)

// ErrNotFound is returned when a requested folder, source or article does
// not exist. Callers treat it as an empty result, not a fatal error.
var ErrNotFound = errors.New("database: not found")

type SourceRepository interface {
	SyncFolderTree(folders []FolderGroup) error
	LoadFolderTree() ([]FolderGroup, error)
	GetAllSources() ([]Source, error)
	GetSource(sourceID string) (*Source, error)
	CheckSourceExists(urlOrID string) (bool, error)
}

type ArticleRepository interface {
	IngestArticles(sourceID string, posts []Post) (int, error)
	QueryArticlesBySource(sourceID string) ([]ArticleSummary, error)
	QueryArticleByGuidOrLink(key string) (*Article, error)
	MarkRead(guid string, read bool) error
	SetFavorite(guid string, favorite bool) error
	QueryFavorites() ([]ArticleSummary, error)
	ClearAllFavorites() error
	Search(query string, opts SearchOptions) ([]ArticleSummary, error)
}

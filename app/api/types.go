package api

import (
	"github.com/protosskai/RssReader/app/database"
	"github.com/protosskai/RssReader/app/feed"
	"github.com/protosskai/RssReader/app/syncer"
)

type ExtractorInterface interface {
	Run(data []byte) (string, error)
}

var _ ExtractorInterface = (*feed.ContentExtractor)(nil)

type Handler struct {
	sourceRepo   database.SourceRepository
	articleRepo  database.ArticleRepository
	orchestrator *syncer.Orchestrator
	extractor    ExtractorInterface
}

type readRequest struct {
	Read bool `json:"read"`
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/protosskai/RssReader/app/cfg"
	"github.com/protosskai/RssReader/app/database"
	"github.com/protosskai/RssReader/app/opml"
	"github.com/protosskai/RssReader/app/syncer"
)

func NewHandler(sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	orchestrator *syncer.Orchestrator, extractor ExtractorInterface) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		articleRepo:  articleRepo,
		orchestrator: orchestrator,
		extractor:    extractor,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if sources, err := h.sourceRepo.GetAllSources(); err == nil {
		health["sources"] = len(sources)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.GetStatus())
}

func (h *Handler) GetFolderTree(c *gin.Context) {
	groups, err := h.sourceRepo.LoadFolderTree()
	if err != nil {
		slog.Error("Database error", "operation", "load_folder_tree", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handler) PutFolderTree(c *gin.Context) {
	var groups []database.FolderGroup
	if err := c.ShouldBindJSON(&groups); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sourceRepo.SyncFolderTree(groups); err != nil {
		slog.Error("Database error", "operation", "sync_folder_tree", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ImportOPML(c *gin.Context) {
	groups, err := opml.Parse(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sourceRepo.SyncFolderTree(groups); err != nil {
		slog.Error("Database error", "operation", "import_opml", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sourceCount := 0
	for _, group := range groups {
		sourceCount += len(group.Sources)
	}
	c.JSON(http.StatusOK, gin.H{"folders": len(groups), "sources": sourceCount})
}

func (h *Handler) ExportOPML(c *gin.Context) {
	groups, err := h.sourceRepo.LoadFolderTree()
	if err != nil {
		slog.Error("Database error", "operation", "export_opml", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	data, err := opml.Render("RssReader subscriptions", groups)
	if err != nil {
		slog.Error("OPML rendering error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, string(data))
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.GetAllSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (h *Handler) GetSourceArticles(c *gin.Context) {
	sourceID := c.Param("id")

	if _, err := h.sourceRepo.GetSource(sourceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Database error", "operation", "get_source", "source_id", sourceID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	summaries, err := h.articleRepo.QueryArticlesBySource(sourceID)
	if err != nil {
		slog.Error("Database error", "operation", "query_articles", "source_id", sourceID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetArticle(c *gin.Context) {
	key := c.Param("key")

	article, err := h.articleRepo.QueryArticleByGuidOrLink(key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Database error", "operation", "get_article", "key", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if c.Query("extract") == "true" {
		if extracted, err := h.extractor.Run([]byte(article.Content)); err == nil {
			article.Content = extracted
		} else {
			slog.Debug("Reader view extraction failed, serving original content", "key", key, "error", err)
		}
	}

	c.JSON(http.StatusOK, article)
}

func (h *Handler) MarkArticleRead(c *gin.Context) {
	key := c.Param("key")

	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.articleRepo.MarkRead(key, req.Read); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Database error", "operation", "mark_read", "guid", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetArticleFavorite(c *gin.Context) {
	key := c.Param("key")

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.articleRepo.SetFavorite(key, req.Favorite); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Database error", "operation", "set_favorite", "guid", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListFavorites(c *gin.Context) {
	favorites, err := h.articleRepo.QueryFavorites()
	if err != nil {
		slog.Error("Database error", "operation", "list_favorites", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (h *Handler) ClearFavorites(c *gin.Context) {
	if err := h.articleRepo.ClearAllFavorites(); err != nil {
		slog.Error("Database error", "operation", "clear_favorites", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SearchArticles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}

	var opts database.SearchOptions

	if folderStr := c.Query("folder_id"); folderStr != "" {
		folderID, err := strconv.ParseInt(folderStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder_id"})
			return
		}
		opts.FolderID = &folderID
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp"})
			return
		}
		opts.DateFrom = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp"})
			return
		}
		opts.DateTo = &to
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		opts.Limit = limit
	}

	results, err := h.articleRepo.Search(query, opts)
	if err != nil {
		slog.Error("Database error", "operation", "search", "query", query, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "count": len(results), "results": results})
}

func (h *Handler) TriggerSync(c *gin.Context) {
	stats, err := h.orchestrator.SyncAll(c.Request.Context())
	if err != nil {
		slog.Error("Sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetSyncConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.GetConfig())
}

func (h *Handler) PutSyncConfig(c *gin.Context) {
	var config syncer.Config
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orchestrator.UpdateConfig(config); err != nil {
		slog.Error("Failed to update sync config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.orchestrator.GetConfig())
}

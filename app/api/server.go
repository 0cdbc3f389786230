package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/protosskai/RssReader/app/cfg"
)

// NewServer creates the HTTP server with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)
	r.GET("/status", handler.GetStatus)

	api := r.Group("/api")

	apiAccessKey := cfg.Get().APIAccessKey
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Info("API authentication disabled (API_ACCESS_KEY not set)")
	}

	api.GET("/folders", handler.GetFolderTree)
	api.PUT("/folders", handler.PutFolderTree)

	api.POST("/opml/import", handler.ImportOPML)
	api.GET("/opml/export", handler.ExportOPML)

	api.GET("/sources", handler.ListSources)
	api.GET("/sources/:id/articles", handler.GetSourceArticles)

	api.GET("/articles/:key", handler.GetArticle)
	api.POST("/articles/:key/read", handler.MarkArticleRead)
	api.POST("/articles/:key/favorite", handler.SetArticleFavorite)

	api.GET("/favorites", handler.ListFavorites)
	api.DELETE("/favorites", handler.ClearFavorites)

	api.GET("/search", handler.SearchArticles)

	api.POST("/sync", handler.TriggerSync)
	api.GET("/sync/config", handler.GetSyncConfig)
	api.PUT("/sync/config", handler.PutSyncConfig)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "RssReader",
			"version":     cfg.Get().Version,
			"description": "RSS reader backend with folder management, sync and full-text search",
			"endpoints": map[string]string{
				"health":    "/health",
				"status":    "/status",
				"folders":   "/api/folders",
				"sources":   "/api/sources",
				"articles":  "/api/sources/<id>/articles",
				"article":   "/api/articles/<guid-or-link>",
				"favorites": "/api/favorites",
				"search":    "/api/search?q=<query>",
				"sync":      "/api/sync (POST)",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

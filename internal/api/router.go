package api

import (
	"github.com/gin-gonic/gin"
	"github.com/renfield/atelier/internal/api/handler"
	"github.com/renfield/atelier/internal/api/middleware"
	"github.com/renfield/atelier/internal/logger"
	"github.com/renfield/atelier/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	searchService *service.SearchService,
	ingestionService *service.IngestionService,
	log *logger.Logger,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(searchService)
	artworkHandler := handler.NewArtworkHandler(ingestionService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Search
		v1.POST("/search", searchHandler.TextSearch)
		v1.GET("/search", searchHandler.TextSearchGet)
		v1.POST("/search/advanced", searchHandler.AdvancedSearch)

		// Browsing
		v1.GET("/discover", searchHandler.Discover)

		// Artworks
		v1.POST("/artworks", artworkHandler.Create)
		v1.GET("/artworks/:id", artworkHandler.Get)
		v1.PUT("/artworks/:id", artworkHandler.Update)
		v1.DELETE("/artworks/:id", artworkHandler.Delete)
		v1.GET("/artworks/:id/similar", searchHandler.Similar)
	}

	return r
}

package http

import (
	"github.com/gin-gonic/gin"

	"newsrag/internal/bootstrap"
	"newsrag/internal/transport/http/handler"
	"newsrag/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	ragHandler := handler.NewRAGHandler(app.Ingest, app.Search, app.Store)
	harvestHandler := handler.NewHarvestHandler(app.Harvest)

	v1 := router.Group("/api/v1")
	if app.Config.Auth.Enabled {
		v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	}
	registerRoutes(v1, ragHandler, harvestHandler)

	return router
}

func registerRoutes(v1 *gin.RouterGroup, rag *handler.RAGHandler, harvest *handler.HarvestHandler) {
	ragGroup := v1.Group("/rag")
	ragGroup.POST("/ingest/text", rag.IngestText)
	ragGroup.POST("/ingest/pdf", rag.IngestPDF)
	ragGroup.POST("/search", rag.Search)
	ragGroup.GET("/documents", rag.ListDocuments)

	v1.POST("/harvest/run", harvest.Run)
}

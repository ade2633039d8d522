package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/urban-heat-advisor/internal/domain/session"
	"github.com/yanqian/urban-heat-advisor/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, sessions session.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	api.GET("/healthz", handler.Health)
	api.POST("/heat/resolve", handler.ResolveHeat)
	api.POST("/heat/grid", handler.HeatGrid)
	api.GET("/heat/grid.geojson", handler.HeatGridGeoJSON)
	api.POST("/recommendations", handler.Recommendations)
	api.POST("/buildings/analyze", handler.AnalyzeBuilding)

	surveyGroup := api.Group("")
	surveyGroup.Use(sessionMiddleware(sessions, cfg.Session, handler.logger))
	{
		surveyGroup.POST("/uploads", handler.Upload)
		surveyGroup.GET("/uploads/current", handler.CurrentSchematic)
		surveyGroup.POST("/analyze-location", handler.AnalyzeLocation)
		surveyGroup.GET("/results", handler.LatestResult)
		surveyGroup.GET("/results/:id", handler.GetResult)
	}

	registerStatic(router, cfg.HTTP.StaticDir)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

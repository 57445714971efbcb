package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/resys-shop/backend/internal/handlers"
)

type RouterConfig struct {
	TaxonomyHandler *handlers.TaxonomyHandler
	TaxonHandler    *handlers.TaxonHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Spans are noops until tracing is enabled at startup.
	router.Use(otelgin.Middleware("resys-shop-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Taxonomies
		api.POST("/taxonomies", cfg.TaxonomyHandler.Create)
		api.GET("/taxonomies", cfg.TaxonomyHandler.List)
		api.GET("/taxonomies/:id", cfg.TaxonomyHandler.Get)
		api.PATCH("/taxonomies/:id", cfg.TaxonomyHandler.Update)
		api.DELETE("/taxonomies/:id", cfg.TaxonomyHandler.Delete)
		api.POST("/taxonomies/:id/taxa", cfg.TaxonHandler.Create)
		api.GET("/taxonomies/:id/taxa", cfg.TaxonHandler.ListByTaxonomy)

		// Taxa
		api.GET("/taxa/:id", cfg.TaxonHandler.Get)
		api.PATCH("/taxa/:id", cfg.TaxonHandler.Update)
		api.PUT("/taxa/:id/move", cfg.TaxonHandler.Move)
		api.DELETE("/taxa/:id", cfg.TaxonHandler.Delete)
		api.POST("/taxa/:id/rules", cfg.TaxonHandler.AddRule)
		api.DELETE("/taxa/:id/rules/:rule_id", cfg.TaxonHandler.RemoveRule)
		api.POST("/taxa/:id/regenerate", cfg.TaxonHandler.Regenerate)
	}

	return router
}

// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/database"
	"github.com/farmlink/discovery/internal/handlers"
	"github.com/farmlink/discovery/internal/middleware"
	"github.com/farmlink/discovery/internal/repository"
	"github.com/farmlink/discovery/internal/services"
	"github.com/farmlink/discovery/internal/utils"
)

const version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Stores
	catalogStore := repository.NewCatalogStore(db)
	activityStore := repository.NewActivityStore(db)
	engagementStore := repository.NewEngagementStore(db)

	// Shared infrastructure
	guard := services.NewStoreGuard("catalog", cfg.Discovery)

	searchCache := services.NewNoopSearchCache()
	if cfg.Redis.Enabled() {
		searchCache = services.NewRedisSearchCache(services.NewRedisClient(cfg.Redis), cfg.Discovery.SearchCacheTTL)
		logrus.WithField("addr", cfg.Redis.Addr()).Info("Search cache enabled")
	}

	var media services.ImageResolver
	if mediaService, err := services.NewMediaService(cfg); err != nil {
		logrus.WithError(err).Warn("Media service unavailable, image URLs will not be resolved")
	} else {
		media = mediaService
	}

	// Services
	discoveryService := services.NewDiscoveryService(catalogStore, activityStore, guard, searchCache, media, cfg.Discovery)
	productService := services.NewProductService(catalogStore, guard, media)
	engagementService := services.NewEngagementService(engagementStore, guard)

	// Handlers
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService, cfg.Discovery)
	productHandler := handlers.NewProductHandler(productService, cfg.Discovery)
	engagementHandler := handlers.NewEngagementHandler(engagementService, cfg.Discovery)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	r.GET("/health", func(c *gin.Context) {
		status, health, dbStatus := http.StatusOK, "healthy", "up"
		if err := database.Ping(db); err != nil {
			logrus.WithError(err).Warn("Health check database ping failed")
			status, health, dbStatus = http.StatusServiceUnavailable, "unhealthy", "down"
		}

		c.JSON(status, gin.H{
			"status":          health,
			"version":         version,
			"database":        dbStatus,
			"circuit_breaker": guard.State(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitBurst))
	{
		products := v1.Group("/products")
		{
			products.GET("", discoveryHandler.ListProducts)
			products.GET("/search", middleware.OptionalAuth(), discoveryHandler.Search)
			products.GET("/popular", discoveryHandler.Popular)
			products.GET("/recommendations", middleware.AuthRequired(), discoveryHandler.Recommend)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("/:id/view", middleware.OptionalAuth(), engagementHandler.RecordView)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.POST("/:id/favorite", engagementHandler.ToggleFavorite)
				protected.POST("/:id/chat", engagementHandler.RecordChat)
			}
		}
	}

	return r
}

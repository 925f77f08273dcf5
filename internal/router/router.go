// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/javajoker/imi-royalty/internal/config"
	"github.com/javajoker/imi-royalty/internal/database"
	"github.com/javajoker/imi-royalty/internal/events"
	"github.com/javajoker/imi-royalty/internal/handlers"
	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/middleware"
	"github.com/javajoker/imi-royalty/internal/royalty"
	"github.com/javajoker/imi-royalty/internal/utils"
)

// Deps carries the engine components the router wires handlers onto.
type Deps struct {
	Gateway    ledger.Gateway
	Store      *royalty.Store
	Resolver   *royalty.Resolver
	Reconciler *royalty.Reconciler
	Claimer    *royalty.Claimer
	Bus        *events.Bus
	Flags      *events.FlagStore
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Deps) *gin.Engine {
	var receipts *database.ReceiptStore
	if db != nil {
		receipts = database.NewReceiptStore(db)
	}

	sessionHandler := handlers.NewSessionHandler(deps.Reconciler, deps.Store, cfg)
	royaltyHandler := handlers.NewRoyaltyHandler(deps.Gateway, deps.Store, deps.Resolver, deps.Reconciler, deps.Claimer, deps.Bus, deps.Flags, receipts)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	if db != nil {
		r.Use(middleware.AuditLogMiddleware(db))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Session routes
		session := v1.Group("/session")
		session.Use(middleware.SessionRateLimit())
		{
			session.POST("", sessionHandler.OpenSession)
			session.POST("/account", middleware.AuthRequired(), sessionHandler.SwitchAccount)
		}

		// Royalty routes
		royalties := v1.Group("/royalties")
		royalties.Use(middleware.AuthRequired())
		{
			royalties.GET("", royaltyHandler.ListRoyalties)
			royalties.GET("/:id", royaltyHandler.GetRoyalty)
			royalties.POST("/refresh", royaltyHandler.Refresh)
			royalties.POST("/:id/claim", middleware.ClaimRateLimit(), royaltyHandler.PrepareClaim)
			royalties.POST("/:id/claim/confirm", middleware.ClaimRateLimit(), royaltyHandler.ConfirmClaim)
		}

		// Claim history
		claims := v1.Group("/claims")
		claims.Use(middleware.AuthRequired())
		{
			claims.GET("", royaltyHandler.ListReceipts)
		}

		// Asset lookup (public, typed decode at the gateway)
		assets := v1.Group("/assets")
		{
			assets.GET("/:id", middleware.OptionalAuth(), royaltyHandler.GetAsset)
		}

		// Royalty-changed notification ingestion
		v1.POST("/notify", royaltyHandler.Notify)
	}

	return r
}

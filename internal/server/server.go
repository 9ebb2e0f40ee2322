// Package server wires the HTTP API together.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"leadaudit/internal/asset"
	"leadaudit/internal/auth"
	"leadaudit/internal/editor"
	"leadaudit/internal/events"
	"leadaudit/internal/middleware"
	"leadaudit/internal/prospect"
	"leadaudit/internal/report"
	"leadaudit/internal/setup"
	"leadaudit/internal/storage"
	"leadaudit/pkg/database"
	"leadaudit/pkg/utils"
)

type Deps struct {
	Config utils.Config
	DB     *database.DB
	Blobs  storage.BlobStore
	Hub    *events.Hub
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	router := gin.New()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(middleware.RequestID(), middleware.Recovery(), middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		stats := d.Hub.Stats()
		if err := d.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"driver":     d.DB.Driver,
			"ws_clients": stats.WSClients,
		})
	})

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	users := auth.NewRepo(d.DB)
	assets := asset.NewService(asset.NewRepo(d.DB), d.Blobs, cfg.Storage.MaxUploadMB<<20)
	reports := report.NewService(d.DB, cfg.Report.BaseURL, cfg.Report.HashRouting)

	authHandler := auth.NewHandler(users, tokens)
	prospectHandler := prospect.NewHandler(prospect.NewService(d.DB, assets, cfg.SlugMaxAttempts), d.Hub)
	reportHandler := report.NewHandler(reports)

	var bucket setup.BucketChecker
	if bc, ok := d.Blobs.(setup.BucketChecker); ok {
		bucket = bc
	}

	// Public
	public := router.Group("")
	setup.NewChecker(d.DB, bucket).RegisterRoutes(public)
	prospectHandler.RegisterPublicRoutes(public)
	reportHandler.RegisterPublicRoutes(public)

	login := router.Group("/auth")
	login.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	authHandler.RegisterPublicRoutes(login)

	// Protected
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(tokens, users))
	authHandler.RegisterRoutes(protected.Group("/auth"))
	prospectHandler.RegisterRoutes(protected)
	asset.NewHandler(assets, d.Hub).RegisterRoutes(protected)
	editor.NewHandler(editor.NewService(d.DB, reports), d.Hub).RegisterRoutes(protected)
	reportHandler.RegisterRoutes(protected)
	protected.GET("/events", events.WSHandler(d.Hub, cfg.Server.CORSOrigins))

	return router
}

// NewHandler wraps the router with CORS for the configured origins.
func NewHandler(d Deps) http.Handler {
	origins := d.Config.Server.CORSOrigins
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
	})
	return c.Handler(NewRouter(d))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

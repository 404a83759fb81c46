package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundry-reserve-backend/config"
	"laundry-reserve-backend/internal/engine"
	"laundry-reserve-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(eng *engine.Engine, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(eng)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	identity := mw.Identity(cfg.UserIDHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter, identity)
	{
		// GET /api/appliances
		api.GET("/appliances", caching, handler.ListAppliances)

		// POST /api/appliances/{id}/reserve
		api.POST("/appliances/:id/reserve", handler.Reserve)
	}

	return r
}

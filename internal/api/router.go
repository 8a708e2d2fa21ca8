package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"schedule-sync-backend/config"
	"schedule-sync-backend/internal/ingest"
	"schedule-sync-backend/internal/mw"
	"schedule-sync-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. The cache store is
// shared with the ingestion service, which flushes it after a successful run.
func NewRouter(cfg *config.Config, s store.Store, svc *ingest.Service, cacheStore *cache.Cache, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, svc, webpushOptions)

	rateLimit := cfg.Server.RateLimitPerSec
	if rateLimit <= 0 {
		rateLimit = 10
	}
	rateLimiter := mw.RateLimiter(rate.Limit(rateLimit), 5)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Read surface, cached until the next successful ingestion flushes it.
		api.GET("/terms", caching, GetTerms(db))
		api.GET("/terms/:term_code/sections", caching, GetSections(db))
		api.GET("/runs", GetRuns(db))

		// Ingestion trigger, bearer-token authenticated.
		api.POST("/ingest", IngestAuth(cfg.Server.IngestToken), handler.PostIngest)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

package main

import (
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/giftcards/internal/giftcards"
	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/config"
	"github.com/richxcame/giftcards/pkg/middleware"
	"github.com/richxcame/giftcards/pkg/ratelimit"
)

const (
	serviceVersion     = "1.0.0"
	maxRequestBodySize = 1 << 20
	readinessTimeout   = 3 * time.Second
)

// setupRouter builds the HTTP surface: probes, metrics and the gift card API.
// limiter may be nil when Redis is unavailable.
func setupRouter(cfg *config.Config, handler *giftcards.Handler, checks map[string]common.CheckFunc, limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.Server.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "Retry-After", "X-RateLimit-Remaining"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, serviceVersion))
	router.GET("/health/ready", common.HealthCheckWithDeps(cfg.Server.ServiceName, serviceVersion, readinessTimeout, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.MaxBodySize(maxRequestBodySize))
	handler.RegisterRoutes(api, cfg.JWT.Secret, middleware.RateLimit(limiter))

	return router
}

func splitOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return origins
}

package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/ratelimit"
	"go.uber.org/zap"
)

var rateLimitRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	},
	[]string{"endpoint", "identity"},
)

// RateLimit throttles callers per route, keyed by user ID or client IP.
// A nil limiter or a Redis failure lets the request through.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		identity := c.ClientIP()
		identityType := ratelimit.IdentityAnonymous
		if userID, err := GetUserID(c); err == nil {
			identity = userID.String()
			identityType = ratelimit.IdentityAuthenticated
		}

		result, err := limiter.Allow(c.Request.Context(), endpoint, identity, limiter.RuleFor(endpoint, identityType), identityType)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.String("endpoint", endpoint), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			label := "anonymous"
			if identityType == ratelimit.IdentityAuthenticated {
				label = "authenticated"
			}
			rateLimitRejections.WithLabelValues(endpoint, label).Inc()

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			common.ErrorResponse(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

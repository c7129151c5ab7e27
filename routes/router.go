package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wardsync/cache"
	"wardsync/metrics"
	"wardsync/middlewares"
	"wardsync/services"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Services *services.Services
	Counter  cache.Counter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	Production          bool
	CORSOrigins         []string
	RateLimitPrefix     string
	DailyComplaintLimit int

	// Ready reports backing store health for /ping. Nil means always ready.
	Ready func(context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"http://localhost:5173"}
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.RequestLogger(d.Logger.Named("http")),
		middlewares.Instrument(d.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	auth := middlewares.AuthMiddleware(d.Services.Auth)
	AuthRoutes(r, d, auth)
	WardRoutes(r, d, auth)
	ComplaintRoutes(r, d, auth)
	AuthorityRoutes(r, d, auth)

	r.GET("/ping", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				d.Logger.Warn("readiness check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"message": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))

	return r
}

// SplitOrigins parses a comma separated CORS_ORIGIN value.
func SplitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

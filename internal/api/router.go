package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-ledger-backend/internal/metrics"
	"equipment-ledger-backend/internal/mw"
	"equipment-ledger-backend/internal/respcache"
	"equipment-ledger-backend/internal/store"
)

// RouterOptions carries the dependencies of the HTTP surface.
type RouterOptions struct {
	Store  store.Store
	Logger *zap.Logger
	// Cache enables the GET response cache when non-nil.
	Cache respcache.Backend
	// Metrics enables request metrics and the exposition endpoint when non-nil.
	Metrics     *metrics.Metrics
	MetricsPath string
	// RateLimit of zero disables per-IP rate limiting.
	RateLimit rate.Limit
	RateBurst int
}

// NewRouter creates and configures a new Gin router.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(mw.Metrics(opts.Metrics))
	}

	handler := NewHandler(opts.Store, opts.Metrics, opts.Logger)

	caching := func(c *gin.Context) { c.Next() }
	if opts.Cache != nil {
		caching = mw.Cache(opts.Cache)
	}

	r.GET("/healthz", handler.Healthz)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	// API group
	api := r.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(mw.RateLimiter(opts.RateLimit, opts.RateBurst))
	}
	{
		api.GET("/devices", caching, handler.ListDevices)
		api.POST("/devices", caching, handler.CreateDevice)
		api.GET("/devices/locations", caching, handler.ListLocations)
		api.GET("/devices/resolve", handler.ResolveCode)
		api.GET("/devices/:id", caching, handler.GetDevice)
		api.PATCH("/devices/:id", caching, handler.PatchDevice)
		api.DELETE("/devices/:id", caching, handler.DeleteDevice)
		api.GET("/devices/:id/label.png", caching, handler.DeviceLabel)
	}

	return r
}

// Package server assembles the gin engine for the comic API.
package server

import (
	"context"
	"net/http"
	"time"

	"comichub/internal/metrics"
	"comichub/internal/microservices/http-api/handler"
	"comichub/internal/microservices/http-api/middleware"
	"comichub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the dependencies behind the handlers.
type Services struct {
	Auth      service.AuthService
	Comics    service.ComicService
	Histories service.HistoryService
	Follows   service.FollowService
	Users     service.UserService
	Admin     service.AdminService
}

type Options struct {
	MaxUploadSize  int64
	CORSOrigins    []string
	Metrics        bool
	AuthPerMinute  float64
	AuthBurst      int
	RequestTimeout time.Duration
	// Health checks dependencies for /healthz; nil reports healthy.
	Health func(ctx context.Context) error
}

// NewRouter wires middleware and every route under /api/v1.
func NewRouter(svcs Services, opts Options, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))
	if opts.Metrics {
		r.Use(metrics.Middleware())
	}
	r.Use(middleware.CORS(opts.CORSOrigins), handler.Timeout(opts.RequestTimeout))

	api := r.Group("/api/v1", middleware.OptionalAuth(svcs.Auth), middleware.DeviceID())
	api.GET("/healthz", healthz(opts.Health))
	if opts.Metrics {
		api.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	handler.NewComicHandler(svcs.Comics, log).RegisterRoutes(api)

	histories := handler.NewHistoryHandler(svcs.Histories, log)
	histories.RegisterDeviceRoutes(api.Group("/history"))

	limiter := middleware.NewIPRateLimiter(opts.AuthPerMinute, opts.AuthBurst)
	handler.NewAuthHandler(svcs.Auth, log).RegisterRoutes(api.Group("/auth", limiter.Middleware()))

	authed := api.Group("", middleware.AuthMiddleware(svcs.Auth))
	handler.NewUserHandler(svcs.Users, opts.MaxUploadSize, log).RegisterRoutes(authed.Group("/me"))
	histories.RegisterAccountRoutes(authed.Group("/history"))
	handler.NewFollowHandler(svcs.Follows, log).RegisterRoutes(authed.Group("/follows"))

	admin := authed.Group("/admin", middleware.RequireAdmin())
	handler.NewAdminHandler(svcs.Admin, svcs.Users, opts.MaxUploadSize, log).RegisterRoutes(admin)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

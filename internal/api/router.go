package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/api/middleware"
	"github.com/SeopE9611/sub010-backend/internal/auth"
	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/internal/usecase/notify"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	engine    *gin.Engine
	server    *http.Server
	cfg       *config.Config
	repo      notification.Repository
	enqueueUC *notify.EnqueueUseCase
	retryUC   *notify.RetryUseCase
	sweepUC   *notify.SweepUseCase
	logger    *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	repo notification.Repository,
	enqueueUC *notify.EnqueueUseCase,
	retryUC *notify.RetryUseCase,
	sweepUC *notify.SweepUseCase,
	logger *zap.Logger,
) *Router {
	// Disable GIN default logger
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))

	api := &Router{
		engine:    r,
		cfg:       cfg,
		repo:      repo,
		enqueueUC: enqueueUC,
		retryUC:   retryUC,
		sweepUC:   sweepUC,
		logger:    logger,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Outbox surface: producer enqueue plus the operator back-office.
	outbox := r.engine.Group("/outbox")
	outbox.Use(auth.AdminAuth(r.cfg))
	{
		outbox.POST("", r.EnqueueRecord)
		outbox.GET("", r.ListRecords)
		outbox.GET("/:id", r.GetRecord)
		outbox.POST("/:id/retry", r.RetryRecord)
		outbox.POST("/release-stuck", r.ReleaseStuck)
	}
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

// Engine exposes the underlying gin engine for handler tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

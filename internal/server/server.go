// Package server is the HTTP API behind the client: menu, settings and order
// endpoints over a repo.Repository, plus the update stream that tells
// connected clients to re-fetch orders.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/realtime"
	"github.com/frer-max/fassr/internal/repo"
	"github.com/frer-max/fassr/internal/state"
)

const notifyTimeout = 2 * time.Second

// Options wires a Server. Repo and Hub are required; Notifier defaults to
// the Hub.
type Options struct {
	Repo      repo.Repository
	Hub       *realtime.Hub
	Notifier  realtime.Notifier
	Metrics   *realtime.Metrics
	Gatherer  prometheus.Gatherer
	Token     string
	Heartbeat time.Duration
	Logger    *zap.Logger
	// Now is the clock analytics are computed against. Defaults to time.Now.
	Now       func() time.Time
}

// Server serves the fassr API.
type Server struct {
	repo     repo.Repository
	hub      *realtime.Hub
	notifier realtime.Notifier
	logger   *zap.Logger
	router   *gin.Engine
	now      func() time.Time
}

// New builds the router for opts.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = opts.Hub
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		repo:     opts.Repo,
		hub:      opts.Hub,
		notifier: notifier,
		logger:   logger,
		router:   gin.New(),
		now:      now,
	}
	s.router.Use(recovery(logger), requestLogger(logger))
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api", bearerAuth(opts.Token))
	addCatalogRoutes(api, s)
	addOrderRoutes(api, s)
	api.GET("/updates", realtime.StreamHandler(opts.Hub, opts.Heartbeat, opts.Metrics, logger))
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// notify tells connected clients that kind changed. Failures are logged;
// the write already succeeded.
func (s *Server) notify(c *gin.Context, kind state.Kind) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, kind); err != nil {
		s.logger.Warn("notify failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

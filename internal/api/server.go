// Package api assembles the Echo server, Huma API, and middleware chain
// for listing-gateway.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mclarke/listing-gateway/internal/api/handlers"
	"github.com/mclarke/listing-gateway/internal/api/middleware"
	"github.com/mclarke/listing-gateway/internal/ratelimit"
)

// Options configures the API server.
type Options struct {
	Gateway Gateway
	// Buckets maps provider names to their outbound rate limit buckets,
	// exposed read-only through the quota endpoint.
	Buckets map[string]*ratelimit.Bucket
	Logger  *slog.Logger

	// InboundPerSecond and InboundBurst throttle requests per client IP.
	// Zero disables inbound rate limiting.
	InboundPerSecond float64
	InboundBurst     int
}

// Gateway aliases the handler dependency so callers only import this package.
type Gateway = handlers.Gateway

// Server wraps an Echo instance with all routes and middleware attached.
type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
}

// New builds a fully wired API server.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())
	if opts.InboundPerSecond > 0 {
		e.Use(middleware.RateLimit(opts.InboundPerSecond, opts.InboundBurst))
	}

	// Operational endpoints.
	health := handlers.NewHealthHandler(func() bool { return opts.Gateway != nil })
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Versioned API surface.
	humaCfg := huma.DefaultConfig("Listing Gateway API", "1.0.0")
	humaCfg.DocsPath = "/docs"
	api := humaecho.New(e, humaCfg)

	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(opts.Gateway))
	handlers.RegisterResolveRoutes(api, handlers.NewResolveHandler(opts.Gateway))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(opts.Gateway))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(opts.Buckets))

	return &Server{echo: e, logger: log}
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Handler exposes the underlying http.Handler, used by tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

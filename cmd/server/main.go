package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/zipfinder/internal"
	"github.com/dukerupert/zipfinder/internal/cookie"
	"github.com/dukerupert/zipfinder/internal/handler"
	"github.com/dukerupert/zipfinder/internal/lookup"
	"github.com/dukerupert/zipfinder/internal/middleware"
	"github.com/dukerupert/zipfinder/internal/router"
	"github.com/dukerupert/zipfinder/internal/routes"
	"github.com/dukerupert/zipfinder/internal/telemetry"
	"github.com/dukerupert/zipfinder/internal/zippopotam"
	"github.com/dukerupert/zipfinder/web"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics(cfg.Metrics.Namespace, registry)
	lookupMetrics := telemetry.NewLookupMetrics(cfg.Metrics.Namespace, registry)

	// Lookup service client
	clientOpts := []zippopotam.Option{
		zippopotam.WithBaseURL(cfg.Lookup.BaseURL),
		zippopotam.WithTimeout(cfg.Lookup.Timeout),
		zippopotam.WithUserAgent(cfg.Lookup.UserAgent),
		zippopotam.WithTransport(&telemetry.HTTPTransport{Transport: http.DefaultTransport}),
	}
	if cfg.Lookup.Trace {
		clientOpts = append(clientOpts, zippopotam.WithTrace(logger))
	}
	client := zippopotam.NewClient(clientOpts...)
	logger.Info("Lookup client configured", "base_url", cfg.Lookup.BaseURL, "timeout", cfg.Lookup.Timeout)

	controller := lookup.NewController(client, lookup.NewFormValidator(), lookupMetrics, logger)

	pages := lookup.NewStore(lookup.StoreConfig{
		TTL:             cfg.Session.TTL,
		CleanupInterval: time.Minute,
	})
	defer pages.Stop()

	// Load templates with renderer
	logger.Info("Loading templates...")
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	logger.Info("Templates loaded successfully")

	lookupHandler := handler.NewLookupHandler(controller, pages, renderer)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	cookieConfig := cookie.NewConfig(cfg.Session.CookieDomain, cfg.Session.CookieSecure || cfg.Env == "prod")

	// Configure security headers
	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0 // Disable HSTS in development
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Limits.RateLimitRPS,
		BurstSize:         cfg.Limits.RateLimitBurst,
		CleanupInterval:   time.Minute,
		KeyFunc:           middleware.GetClientIP,
	})
	defer rateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.Session(middleware.SessionConfig{
			CookieConfig: cookieConfig,
			TTL:          cfg.Session.TTL,
		}),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		telemetry.SentryMiddleware(),
		telemetry.SessionTagger(middleware.GetSessionID),
		rateLimiter.Middleware,
		middleware.Timeout(cfg.Limits.RequestTimeout),
	)

	routes.RegisterLookupRoutes(r, routes.LookupDeps{
		Handler: lookupHandler,
		PageMiddleware: []router.Middleware{
			middleware.MaxBodySize(cfg.Limits.MaxBodyBytes),
			middleware.CSRF(middleware.DefaultCSRFConfig(cookieConfig)),
		},
		APIMiddleware: []router.Middleware{
			router.CORS(cfg.CORS.AllowedOrigins),
		},
	})
	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health:   lookupHandler.Health,
		Metrics:  middleware.Handler(registry),
		Static:   web.Static(),
		NotFound: handler.NotFoundResponse,
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.CaptureError(err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

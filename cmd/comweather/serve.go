package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	httphandler "github.com/kjstillabower/com-weather/internal/http"
	"github.com/kjstillabower/com-weather/internal/lifecycle"
	"github.com/kjstillabower/com-weather/internal/observability"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve /feed, /weather, /health and /metrics over HTTP",
		Description: `Resolves campus content per request. Resources whose endpoint is
empty, or whose upstream fails, are answered with bundled content.

A non-empty endpoint that is not an absolute http(s) URL is rejected at
startup rather than treated as unconfigured, so a typo cannot silently
switch a resource to bundled content. Set FEED_URL= or WEATHER_URL= (empty)
to run that resource on bundled content.`,
		Flags: append(endpointFlags(),
			&cli.StringFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		),
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.ServerPort = c.String("port")
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = observability.FlushTelemetry(logger) }()

	contentService, feedClient := newContentService(cfg, logger)
	if !feedClient.FeedConfigured() {
		logger.Info("feed endpoint not configured; serving bundled feed")
	}
	if !feedClient.WeatherConfigured() {
		logger.Info("weather endpoint not configured; serving bundled weather")
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(contentService, feedClient, logger, version)
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	lifecycle.SetPhase(lifecycle.PhaseReady)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("server", zap.Error(err))
			return err
		}
	}
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetPhase(lifecycle.PhaseDraining)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	logger.Info("shutdown complete")
	return nil
}

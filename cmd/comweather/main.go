package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kjstillabower/com-weather/internal/circuitbreaker"
	"github.com/kjstillabower/com-weather/internal/client"
	"github.com/kjstillabower/com-weather/internal/config"
	"github.com/kjstillabower/com-weather/internal/observability"
	"github.com/kjstillabower/com-weather/internal/service"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "comweather",
		Usage:   "Campus news feed and weather content service",
		Version: version,
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "comweather: %v\n", err)
		os.Exit(1)
	}
}

// endpointFlags override the configured endpoints for a single run.
func endpointFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "feed-url",
			Usage: "Feed endpoint URL; empty serves bundled content",
		},
		&cli.StringFlag{
			Name:  "weather-url",
			Usage: "Weather endpoint URL; empty serves bundled content",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Upstream fetch timeout (0 = platform default)",
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("feed-url") {
		cfg.FeedURL = c.String("feed-url")
	}
	if c.IsSet("weather-url") {
		cfg.WeatherURL = c.String("weather-url")
	}
	if c.IsSet("timeout") {
		cfg.FetchTimeout = c.Duration("timeout")
	}
	if err := client.ValidateEndpoint(cfg.FeedURL); err != nil {
		return nil, fmt.Errorf("feed url: %w", err)
	}
	if err := client.ValidateEndpoint(cfg.WeatherURL); err != nil {
		return nil, fmt.Errorf("weather url: %w", err)
	}
	return cfg, nil
}

func newContentService(cfg *config.Config, logger *zap.Logger) (*service.ContentService, *client.FeedClient) {
	feedClient := client.New(cfg.ClientConfig(), client.WithLogger(logger))

	var opts []service.Option
	if cfg.CircuitBreakerEnabled {
		opts = append(opts, service.WithCircuitBreakers(circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
			OnStateChange: func(component string, from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition(component, from.String(), to.String())
				logger.Info("circuit breaker state change",
					zap.String("component", component),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}))
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}
	return service.New(feedClient, logger, opts...), feedClient
}

// Package service resolves campus content for the presentation layer: live
// data when the upstream endpoint delivers it, bundled fallback otherwise.
package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kjstillabower/com-weather/internal/circuitbreaker"
	"github.com/kjstillabower/com-weather/internal/client"
	"github.com/kjstillabower/com-weather/internal/fallback"
	"github.com/kjstillabower/com-weather/internal/models"
	"github.com/kjstillabower/com-weather/internal/observability"
)

// Fetcher retrieves live collections. *client.FeedClient implements it.
type Fetcher interface {
	FetchFeed(ctx context.Context) ([]models.FeedItem, error)
	FetchWeather(ctx context.Context) ([]models.WeatherRecord, error)
}

// Source says where a collection came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Content is a resolved collection. Reason is set only for fallback content.
type Content[T any] struct {
	Items  []T         `json:"items"`
	Source Source      `json:"source"`
	Reason client.Kind `json:"reason,omitempty"`
}

// ContentService applies the fallback policy: on any fetch error, serve the
// bundled collection for that resource so the user always sees content.
type ContentService struct {
	fetcher        Fetcher
	logger         *zap.Logger
	feedBreaker    *circuitbreaker.CircuitBreaker
	weatherBreaker *circuitbreaker.CircuitBreaker
}

// Option configures a ContentService.
type Option func(*ContentService)

// WithCircuitBreakers guards each resource with its own breaker built from cfg.
// cfg.Component is replaced with the resource name.
func WithCircuitBreakers(cfg circuitbreaker.Config) Option {
	return func(s *ContentService) {
		feedCfg, weatherCfg := cfg, cfg
		feedCfg.Component = client.ResourceFeed
		weatherCfg.Component = client.ResourceWeather
		s.feedBreaker = circuitbreaker.New(feedCfg)
		s.weatherBreaker = circuitbreaker.New(weatherCfg)
	}
}

// New returns a ContentService backed by fetcher.
func New(fetcher Fetcher, logger *zap.Logger, opts ...Option) *ContentService {
	s := &ContentService{
		fetcher: fetcher,
		logger:  observability.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed resolves the newsletter feed.
func (s *ContentService) Feed(ctx context.Context) Content[models.FeedItem] {
	return resolve(ctx, s, client.ResourceFeed, s.feedBreaker, s.fetcher.FetchFeed, fallback.Feed)
}

// FeedByType resolves the newsletter feed and keeps only items of type t,
// preserving order. The source and reason are those of the full feed.
func (s *ContentService) FeedByType(ctx context.Context, t models.MediaType) Content[models.FeedItem] {
	c := s.Feed(ctx)
	c.Items = lo.Filter(c.Items, func(item models.FeedItem, _ int) bool {
		return item.Type == t
	})
	return c
}

// Weather resolves the campus weather records.
func (s *ContentService) Weather(ctx context.Context) Content[models.WeatherRecord] {
	return resolve(ctx, s, client.ResourceWeather, s.weatherBreaker, s.fetcher.FetchWeather, fallback.Weather)
}

func resolve[T any](ctx context.Context, s *ContentService, resource string, cb *circuitbreaker.CircuitBreaker, fetch func(context.Context) ([]T, error), bundled func() []T) Content[T] {
	logger := observability.LoggerFrom(ctx, s.logger).With(zap.String("resource", resource))

	var items []T
	call := func() error {
		var err error
		items, err = fetch(ctx)
		return err
	}

	var err error
	if cb != nil {
		err = cb.Execute(call, notUpstreamFailure)
	} else {
		err = call()
	}
	if err == nil {
		return Content[T]{Items: items, Source: SourceLive}
	}

	reason := client.KindOf(err)
	if reason == "" {
		// ErrOpen or a Fetcher that does not classify its errors.
		reason = client.KindTransport
	}
	observability.RecordFallbackServe(resource, string(reason))

	if reason == client.KindNotConfigured {
		logger.Debug("endpoint not configured, serving fallback")
	} else {
		fields := []zap.Field{
			zap.String("reason", string(reason)),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err),
		}
		if code := client.StatusCode(err); code != 0 {
			fields = append(fields, zap.Int("upstream_status", code))
		}
		logger.Warn("fetch failed, serving fallback", fields...)
	}
	return Content[T]{Items: bundled(), Source: SourceFallback, Reason: reason}
}

// notUpstreamFailure keeps demo mode and caller cancellation from tripping a breaker.
func notUpstreamFailure(err error) bool {
	return errors.Is(err, client.ErrNotConfigured) || errors.Is(err, context.Canceled)
}

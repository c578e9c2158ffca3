package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/com-weather/internal/models"
	"github.com/kjstillabower/com-weather/internal/observability"
)

// Resource names used in errors, logs and metric labels.
const (
	ResourceFeed    = "feed"
	ResourceWeather = "weather"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

var errBodyTooLarge = fmt.Errorf("response exceeds %d MiB", maxBodyBytes>>20)

// Config holds the endpoint configuration. Either URL may be empty, which
// puts that resource in fallback-only mode.
type Config struct {
	FeedURL    string
	WeatherURL string
	// Timeout bounds a whole request. Zero or negative leaves the platform default.
	Timeout time.Duration
}

// FeedClient fetches campus feed and weather collections. It holds no
// per-call state and is safe for concurrent use.
type FeedClient struct {
	feedURL    string
	weatherURL string
	client     *http.Client
	logger     *zap.Logger
}

// Option configures a FeedClient.
type Option func(*FeedClient)

// WithHTTPClient replaces the HTTP client. The configured Timeout is not applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *FeedClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *FeedClient) {
		c.logger = observability.OrNop(logger)
	}
}

// New returns a FeedClient for cfg.
func New(cfg Config, opts ...Option) *FeedClient {
	hc := &http.Client{}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	c := &FeedClient{
		feedURL:    cfg.FeedURL,
		weatherURL: cfg.WeatherURL,
		client:     hc,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FeedConfigured reports whether the feed endpoint is usable.
func (c *FeedClient) FeedConfigured() bool {
	_, err := parseEndpoint(c.feedURL)
	return err == nil
}

// WeatherConfigured reports whether the weather endpoint is usable.
func (c *FeedClient) WeatherConfigured() bool {
	_, err := parseEndpoint(c.weatherURL)
	return err == nil
}

// FetchFeed fetches the newsletter feed. Records keep server order.
func (c *FeedClient) FetchFeed(ctx context.Context) ([]models.FeedItem, error) {
	return fetchArray[models.FeedItem](ctx, c, ResourceFeed, c.feedURL, feedItemSchema)
}

// FetchWeather fetches the campus weather records. Records keep server order.
func (c *FeedClient) FetchWeather(ctx context.Context) ([]models.WeatherRecord, error) {
	return fetchArray[models.WeatherRecord](ctx, c, ResourceWeather, c.weatherURL, weatherRecordSchema)
}

// fetchArray issues a single GET to rawURL and decodes a JSON array of T
// under schema s.
func fetchArray[T any](ctx context.Context, c *FeedClient, resource, rawURL string, s schema) ([]T, error) {
	endpoint, err := parseEndpoint(rawURL)
	if err != nil {
		return nil, newError(KindNotConfigured, resource, err)
	}

	start := time.Now()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		fe := newError(KindTransport, resource, err)
		observability.RecordFetch(resource, "error", string(CategorizeError(fe)), time.Since(start).Seconds())
		c.logger.Debug("fetch failed", zap.String("resource", resource), zap.Error(err))
		return nil, fe
	}

	items, err := decodeArray[T](body, s)
	if err != nil {
		fe := newError(KindDecode, resource, err)
		observability.RecordFetch(resource, "decode_error", string(ErrorCategoryDecode), time.Since(start).Seconds())
		c.logger.Debug("decode failed", zap.String("resource", resource), zap.Error(err))
		return nil, fe
	}

	observability.RecordFetch(resource, "success", "", time.Since(start).Seconds())
	c.logger.Debug("fetched", zap.String("resource", resource), zap.Int("count", len(items)))
	return items, nil
}

func (c *FeedClient) get(ctx context.Context, endpoint *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request aborted: %w", ctxErr)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// parseEndpoint accepts only absolute http(s) URLs with a host.
func parseEndpoint(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("no URL provided")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u, nil
}

// ValidateEndpoint returns an error if raw is non-empty and not a usable endpoint.
func ValidateEndpoint(raw string) error {
	if raw == "" {
		return nil
	}
	_, err := parseEndpoint(raw)
	return err
}

// schema is an entity's decode rule: the exact, case-sensitive set of
// required string fields.
type schema []string

var (
	feedItemSchema      = schema{"type", "tag", "title", "body", "mediaName", "location"}
	weatherRecordSchema = schema{"locationName", "temperature", "humidity", "pressure", "timestamp", "imageName", "detailLocation"}
)

// project checks that every field is present as a JSON string and returns an
// object holding only those fields. encoding/json folds key case when
// decoding into structs, so unknown keys are dropped before that step.
func (s schema) project(obj map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s))
	for _, name := range s {
		v, ok := obj[name]
		if !ok {
			return nil, fmt.Errorf("missing required field %q", name)
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || v[0] != '"' {
			return nil, fmt.Errorf("field %q must be a string", name)
		}
		out[name] = v
	}
	return json.Marshal(out)
}

func decodeArray[T any](body []byte, s schema) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("response is not a JSON array")
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	out := make([]T, 0, len(raws))
	for i, r := range raws {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(r, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("element %d: not a JSON object", i)
		}
		projected, err := s.project(obj)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		var v T
		if err := json.Unmarshal(projected, &v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

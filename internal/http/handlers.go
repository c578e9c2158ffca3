package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/com-weather/internal/client"
	"github.com/kjstillabower/com-weather/internal/lifecycle"
	"github.com/kjstillabower/com-weather/internal/models"
	"github.com/kjstillabower/com-weather/internal/observability"
	"github.com/kjstillabower/com-weather/internal/service"
)

// ContentResolver resolves collections with fallback applied.
// *service.ContentService implements it.
type ContentResolver interface {
	Feed(ctx context.Context) service.Content[models.FeedItem]
	FeedByType(ctx context.Context, t models.MediaType) service.Content[models.FeedItem]
	Weather(ctx context.Context) service.Content[models.WeatherRecord]
}

// EndpointStatus reports which upstream endpoints are configured.
// *client.FeedClient implements it.
type EndpointStatus interface {
	FeedConfigured() bool
	WeatherConfigured() bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	content          ContentResolver
	endpoints        EndpointStatus
	logger           *zap.Logger
	version          string
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. endpoints may be nil.
func NewHandler(content ContentResolver, endpoints EndpointStatus, logger *zap.Logger, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		content:   content,
		endpoints: endpoints,
		logger:    observability.OrNop(logger),
		version:   version,
	}
}

// RouterConfig holds the knobs for NewRouter.
type RouterConfig struct {
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting
}

// NewRouter wires the handlers and middleware. /health and /metrics are not
// rate limited.
func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(h.logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	limit := RateLimitMiddleware(cfg.Limiter)
	contentRoute := func(fn http.HandlerFunc) http.Handler {
		var next http.Handler = fn
		if cfg.RequestTimeout > 0 {
			next = TimeoutMiddleware(cfg.RequestTimeout)(next)
		}
		return limit(next)
	}
	router.Handle("/feed", contentRoute(h.GetFeed)).Methods(http.MethodGet)
	router.Handle("/weather", contentRoute(h.GetWeather)).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	return router
}

// GetFeed handles GET /feed and GET /feed?type=video|image.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("type"); t != "" {
		mt := models.MediaType(t)
		if !mt.Valid() {
			writeError(w, r, http.StatusBadRequest, "INVALID_TYPE", "type must be video or image")
			return
		}
		writeContent(w, h.content.FeedByType(r.Context(), mt))
		return
	}
	writeContent(w, h.content.Feed(r.Context()))
}

// GetWeather handles GET /weather.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	writeContent(w, h.content.Weather(r.Context()))
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	phase := lifecycle.Current()
	status, statusCode := "ok", http.StatusOK
	switch phase {
	case lifecycle.PhaseStarting:
		status = "starting"
	case lifecycle.PhaseDraining:
		status, statusCode = "shutting-down", http.StatusServiceUnavailable
	}

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	checks := map[string]string{
		"feedEndpoint":    "fallback-only",
		"weatherEndpoint": "fallback-only",
	}
	if h.endpoints != nil {
		if h.endpoints.FeedConfigured() {
			checks["feedEndpoint"] = "configured"
		}
		if h.endpoints.WeatherConfigured() {
			checks["weatherEndpoint"] = "configured"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "com-weather",
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeContent writes a resolved collection. The source is mirrored in
// X-Content-Source so clients can tell live from bundled data without parsing.
func writeContent[T any](w http.ResponseWriter, c service.Content[T]) {
	if c.Items == nil {
		c.Items = []T{}
	}
	w.Header().Set("X-Content-Source", string(c.Source))
	writeJSON(w, http.StatusOK, c)
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message and the request's correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": client.CorrelationID(r.Context()),
		},
	})
}

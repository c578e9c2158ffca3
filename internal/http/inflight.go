package http

import (
	"context"
	"sync/atomic"
	"time"
)

// InFlightTracker is a request gauge that shutdown can block on.
type InFlightTracker struct {
	count atomic.Int64
}

func (t *InFlightTracker) Increment() { t.count.Add(1) }

func (t *InFlightTracker) Decrement() { t.count.Add(-1) }

func (t *InFlightTracker) Count() int64 { return t.count.Load() }

// WaitForZero polls every checkInterval until no request is in flight.
// It returns ctx.Err() if ctx ends first.
func (t *InFlightTracker) WaitForZero(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for t.Count() != 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// requests is fed by MetricsMiddleware and drained by serve on shutdown.
var requests = &InFlightTracker{}

// InFlightCount reports how many requests the router is serving right now.
func InFlightCount() int64 {
	return requests.Count()
}

// WaitForInFlight waits for the router's in-flight requests to finish.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return requests.WaitForZero(ctx, checkInterval)
}

package client

import (
	"context"
	"sync"

	"github.com/kjstillabower/com-weather/internal/models"
)

// Executor runs completion callbacks on a caller-chosen execution context,
// such as a UI loop.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// Inline runs callbacks on whichever goroutine completed the fetch.
var Inline Executor = ExecutorFunc(func(fn func()) { fn() })

// Loop is a serial Executor: callbacks queue without blocking the submitter
// and run one at a time, in submission order, on the goroutine calling Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewLoop returns an idle Loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Execute enqueues fn.
func (l *Loop) Execute(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains queued callbacks until ctx is done. Callbacks still queued at
// that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// FetchFeedAsync starts FetchFeed and returns immediately. done is invoked
// exactly once through exec, unless ctx is cancelled first, in which case
// it is never invoked. A nil exec means Inline.
func (c *FeedClient) FetchFeedAsync(ctx context.Context, exec Executor, done func([]models.FeedItem, error)) {
	runAsync(ctx, exec, c.FeedConfigured(), c.FetchFeed, done)
}

// FetchWeatherAsync is the weather counterpart of FetchFeedAsync.
func (c *FeedClient) FetchWeatherAsync(ctx context.Context, exec Executor, done func([]models.WeatherRecord, error)) {
	runAsync(ctx, exec, c.WeatherConfigured(), c.FetchWeather, done)
}

// runAsync skips the goroutine when the endpoint is not configured; fetch
// then fails without touching the network.
func runAsync[T any](ctx context.Context, exec Executor, configured bool, fetch func(context.Context) ([]T, error), done func([]T, error)) {
	if exec == nil {
		exec = Inline
	}
	if !configured {
		items, err := fetch(ctx)
		deliver(ctx, exec, items, err, done)
		return
	}
	go func() {
		items, err := fetch(ctx)
		deliver(ctx, exec, items, err, done)
	}()
}

func deliver[T any](ctx context.Context, exec Executor, items []T, err error, done func([]T, error)) {
	if ctx.Err() != nil {
		return
	}
	exec.Execute(func() {
		if ctx.Err() != nil {
			return
		}
		done(items, err)
	})
}

// Future is the result of an operation running on its own goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn(ctx) on a new goroutine and returns its Future.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

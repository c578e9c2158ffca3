package client

import (
	"errors"
	"fmt"
)

// Kind classifies why a fetch did not produce records. Every kind is
// recoverable; callers substitute bundled content.
type Kind string

const (
	// KindNotConfigured means the endpoint URL is empty or not an absolute
	// http(s) URL. This is the offline/demo path, not a defect.
	KindNotConfigured Kind = "not_configured"
	// KindTransport covers connection, timeout, DNS and non-2xx failures.
	KindTransport Kind = "transport"
	// KindDecode means the body was not a JSON array of the expected shape.
	KindDecode Kind = "decode"
)

var (
	ErrNotConfigured = errors.New("endpoint not configured")
	ErrTransport     = errors.New("transport failure")
	ErrDecode        = errors.New("decode failure")
)

// FetchError is returned by every failed fetch.
type FetchError struct {
	Kind     Kind
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Resource, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Resource, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrDecode) works.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotConfigured:
		return e.Kind == KindNotConfigured
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf returns the Kind of a FetchError anywhere in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// statusError reports a non-2xx upstream response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.code)
}

func newError(kind Kind, resource string, err error) *FetchError {
	return &FetchError{Kind: kind, Resource: resource, Err: err}
}

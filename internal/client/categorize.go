package client

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

const (
	ErrorCategoryNotConfigured ErrorCategory = "not_configured"
	ErrorCategoryCanceled      ErrorCategory = "canceled"
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryHTTPStatus    ErrorCategory = "http_status"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryTransport     ErrorCategory = "transport"
	ErrorCategoryDecode        ErrorCategory = "decode"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// CategorizeError maps a fetch error to a finer-grained ErrorCategory than Kind.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindNotConfigured:
		return ErrorCategoryNotConfigured
	case KindDecode:
		return ErrorCategoryDecode
	}

	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}

	var se *statusError
	if errors.As(err, &se) {
		return ErrorCategoryHTTPStatus
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCategoryTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr) {
		return ErrorCategoryNetwork
	}

	if KindOf(err) == KindTransport {
		return ErrorCategoryTransport
	}
	return ErrorCategoryUnknown
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

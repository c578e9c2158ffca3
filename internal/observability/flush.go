package observability

import (
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry flushes buffered logs before process exit. Metrics are
// pull-based and need no flush. Sync errors from unbuffered terminals
// (EINVAL, ENOTTY) are ignored.
func FlushTelemetry(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
			return nil
		}
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}

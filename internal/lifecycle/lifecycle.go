// Package lifecycle tracks the process phase reported by /health.
package lifecycle

import "sync/atomic"

// Phase is the process lifecycle phase.
type Phase int32

const (
	PhaseStarting Phase = iota
	PhaseReady
	PhaseDraining
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseReady:
		return "ready"
	case PhaseDraining:
		return "shutting-down"
	default:
		return "unknown"
	}
}

var phase atomic.Int32

// SetPhase records the current phase. Call with PhaseReady once listening and
// PhaseDraining when SIGTERM/SIGINT is received.
func SetPhase(p Phase) {
	phase.Store(int32(p))
}

// Current returns the current phase.
func Current() Phase {
	return Phase(phase.Load())
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return Current() == PhaseDraining
}

package lifecycle

import "testing"

func TestCurrent_DefaultStarting(t *testing.T) {
	if got := Phase(0); got != PhaseStarting {
		t.Errorf("zero Phase = %v, want starting", got)
	}
}

func TestSetPhase(t *testing.T) {
	defer SetPhase(PhaseStarting)

	SetPhase(PhaseReady)
	if Current() != PhaseReady {
		t.Errorf("Current() = %v, want ready", Current())
	}
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true while ready")
	}

	SetPhase(PhaseDraining)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetPhase(PhaseDraining)")
	}
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		PhaseStarting: "starting",
		PhaseReady:    "ready",
		PhaseDraining: "shutting-down",
		Phase(7):      "unknown",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int32(p), p.String(), want)
		}
	}
}

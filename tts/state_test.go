package tts

import (
	"testing"
)

// TestPhaseString tests the String() method for Phase.
func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseIdle, "idle"},
		{PhaseUploading, "uploading"},
		{PhaseProcessing, "processing"},
		{PhaseReady, "ready"},
		{PhaseError, "error"},
		{Phase(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.phase.String(); result != tt.expected {
				t.Errorf("Phase.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPhaseInFlight(t *testing.T) {
	tests := map[Phase]bool{
		PhaseIdle:       false,
		PhaseUploading:  true,
		PhaseProcessing: true,
		PhaseReady:      false,
		PhaseError:      false,
	}
	for p, want := range tests {
		if got := p.InFlight(); got != want {
			t.Errorf("%s.InFlight() = %v, want %v", p, got, want)
		}
		if got := p.Terminal(); got != (p == PhaseReady || p == PhaseError) {
			t.Errorf("%s.Terminal() = %v", p, got)
		}
	}
}

// TestStateMachineTransitions tests valid and invalid transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []Phase
		to   Phase
		want bool
	}{
		{"idle to uploading", nil, PhaseUploading, true},
		{"idle to processing", nil, PhaseProcessing, false},
		{"idle to ready", nil, PhaseReady, false},
		{"idle to idle", nil, PhaseIdle, false},
		{"uploading to processing", []Phase{PhaseUploading}, PhaseProcessing, true},
		{"uploading to error", []Phase{PhaseUploading}, PhaseError, true},
		{"uploading to ready", []Phase{PhaseUploading}, PhaseReady, false},
		{"uploading to idle", []Phase{PhaseUploading}, PhaseIdle, true},
		{"processing to ready", []Phase{PhaseUploading, PhaseProcessing}, PhaseReady, true},
		{"processing to error", []Phase{PhaseUploading, PhaseProcessing}, PhaseError, true},
		{"processing to uploading", []Phase{PhaseUploading, PhaseProcessing}, PhaseUploading, false},
		{"ready to uploading", []Phase{PhaseUploading, PhaseProcessing, PhaseReady}, PhaseUploading, true},
		{"ready to idle", []Phase{PhaseUploading, PhaseProcessing, PhaseReady}, PhaseIdle, true},
		{"ready to error", []Phase{PhaseUploading, PhaseProcessing, PhaseReady}, PhaseError, false},
		{"error to uploading", []Phase{PhaseUploading, PhaseError}, PhaseUploading, true},
		{"error to idle", []Phase{PhaseUploading, PhaseError}, PhaseIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for _, p := range tt.path {
				if !sm.Transition(p) {
					t.Fatalf("setup transition to %s failed", p)
				}
			}

			from := sm.Current()
			if got := sm.Transition(tt.to); got != tt.want {
				t.Errorf("Transition(%s -> %s) = %v, want %v", from, tt.to, got, tt.want)
			}
			if !tt.want && sm.Current() != from {
				t.Errorf("rejected transition changed phase to %s", sm.Current())
			}
		})
	}
}

// TestStateMachineCallbacks tests enter and exit callbacks.
func TestStateMachineCallbacks(t *testing.T) {
	sm := NewStateMachine()

	var calls []string
	sm.OnExit(PhaseIdle, func() { calls = append(calls, "exit idle") })
	sm.OnEnter(PhaseUploading, func() { calls = append(calls, "enter uploading") })

	sm.Transition(PhaseUploading)

	if len(calls) != 2 || calls[0] != "exit idle" || calls[1] != "enter uploading" {
		t.Errorf("unexpected callback order: %v", calls)
	}

	calls = nil
	sm.Transition(PhaseReady)
	if len(calls) != 0 {
		t.Errorf("callbacks ran for rejected transition: %v", calls)
	}
}

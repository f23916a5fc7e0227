package tts

// Phase is the stage of the conversion flow the controller is in.
type Phase int

const (
	// PhaseIdle means no conversion is in flight.
	PhaseIdle Phase = iota
	// PhaseUploading means the file is being sent to the server.
	PhaseUploading
	// PhaseProcessing means the server accepted the file and is being polled.
	PhaseProcessing
	// PhaseReady means the audio is available.
	PhaseReady
	// PhaseError means the last attempt failed.
	PhaseError
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseProcessing:
		return "processing"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// InFlight returns true while a job is being uploaded or processed.
func (p Phase) InFlight() bool {
	return p == PhaseUploading || p == PhaseProcessing
}

// Terminal returns true for the phases an attempt ends in.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseError
}

// StateMachine manages phase transitions for a conversion.
type StateMachine struct {
	current     Phase
	transitions map[Phase][]Phase
	onEnter     map[Phase]func()
	onExit      map[Phase]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: PhaseIdle,
		transitions: map[Phase][]Phase{
			PhaseIdle:       {PhaseUploading},
			PhaseUploading:  {PhaseProcessing, PhaseError, PhaseIdle},
			PhaseProcessing: {PhaseReady, PhaseError, PhaseIdle},
			PhaseReady:      {PhaseUploading, PhaseIdle},
			PhaseError:      {PhaseUploading, PhaseIdle},
		},
		onEnter: make(map[Phase]func()),
		onExit:  make(map[Phase]func()),
	}
}

// Transition attempts to transition to the specified phase.
func (sm *StateMachine) Transition(to Phase) bool {
	if !sm.CanTransition(to) {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// CanTransition reports whether moving to the phase is allowed.
func (sm *StateMachine) CanTransition(to Phase) bool {
	for _, p := range sm.transitions[sm.current] {
		if p == to {
			return true
		}
	}
	return false
}

// Current returns the current phase.
func (sm *StateMachine) Current() Phase {
	return sm.current
}

// OnEnter registers a callback for entering a phase.
func (sm *StateMachine) OnEnter(p Phase, fn func()) {
	sm.onEnter[p] = fn
}

// OnExit registers a callback for exiting a phase.
func (sm *StateMachine) OnExit(p Phase, fn func()) {
	sm.onExit[p] = fn
}

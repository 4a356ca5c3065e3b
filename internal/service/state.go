package service

// State of a Supervisor run.
type State int

const (
	StateIdle State = iota
	StateAwaitingSequencer
	StateValidatingPreconditions
	StateExecuting
	StatePostProcessing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                    "idle",
	StateAwaitingSequencer:       "awaiting_sequencer",
	StateValidatingPreconditions: "validating_preconditions",
	StateExecuting:               "executing",
	StatePostProcessing:          "post_processing",
	StateDone:                    "done",
	StateFailed:                  "failed",
}

// States lists every state in lifecycle order.
func States() []State {
	return []State{
		StateIdle,
		StateAwaitingSequencer,
		StateValidatingPreconditions,
		StateExecuting,
		StatePostProcessing,
		StateDone,
		StateFailed,
	}
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Idle goes straight to Done in command-only mode.
func (s State) CanTransition(next State) bool {
	if next == StateFailed {
		return !s.Terminal()
	}
	switch s {
	case StateIdle:
		return next == StateAwaitingSequencer || next == StateDone
	case StateAwaitingSequencer:
		return next == StateValidatingPreconditions
	case StateValidatingPreconditions:
		return next == StateExecuting
	case StateExecuting:
		return next == StatePostProcessing
	case StatePostProcessing:
		return next == StateDone
	default:
		return false
	}
}

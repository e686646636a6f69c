package domain

// State is a pipeline run state.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateMapping    State = "mapping"
	StateSelecting  State = "selecting"
	StateExplaining State = "explaining"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var stateOrder = []State{StateIdle, StateExtracting, StateMapping, StateSelecting, StateExplaining, StateDone}

func (s State) String() string { return string(s) }

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Next returns the successor of s on the happy path.
func (s State) Next() (State, bool) {
	for i, st := range stateOrder {
		if st == s && i+1 < len(stateOrder) {
			return stateOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether from -> to is a legal pipeline transition.
// Failed is reachable from any non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

package history

// State is the engine lifecycle: Uninitialized until the first sweep, Running
// during sweeps, then one of the two terminal states. MaxIterationsReached is
// a degraded-confidence result, not an error; both terminal states expose the
// same read API.
type State int

// Engine states.
const (
	Uninitialized State = iota
	Running
	Converged
	MaxIterationsReached
)

// Terminal reports whether the engine has finished a run.
func (s State) Terminal() bool {
	return s == Converged || s == MaxIterationsReached
}

// String renders the state for logs and status reports.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max_iterations_reached"
	default:
		return "unknown"
	}
}

package resource

// State is the lifecycle state of a resource.
type State int

const (
	Pending   State = iota // created, no load started
	Loading                // load in flight for a new request
	Reloading              // load in flight for the same request, value kept
	Ready                  // value loaded
	Error                  // last load failed
	Local                  // value set locally with Set or Update
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Reloading:
		return "reloading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	case Local:
		return "local"
	default:
		return "unknown"
	}
}

// Busy reports whether a load is in flight.
func (s State) Busy() bool {
	return s == Pending || s == Loading || s == Reloading
}

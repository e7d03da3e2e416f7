package pipetask

// State is the position of a Task in its single execution attempt.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateExecuting
	StateSucceeded
	StateFailed
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInitializing:
		return "INITIALIZING"
	case StateExecuting:
		return "EXECUTING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	case StateFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

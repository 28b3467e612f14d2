package domain

// BuildState is the rebuild state machine of the bin.
type BuildState int

const (
	// StateIdle streams data; structural changes are latched for later.
	StateIdle BuildState = iota
	// StateDraining waits for every output to acknowledge the drain marker.
	StateDraining
	// StateRebuilding tears the prior graph down and commits the new plan.
	StateRebuilding
)

func (s BuildState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

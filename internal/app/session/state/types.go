// Package state provides session state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseActive    Phase = iota // Credential valid, catalog reachable
	PhaseLoggedOut              // Credential rejected; catalog operations refused until restart
	PhaseClosed                 // Session shut down
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseLoggedOut:
		return "logged_out"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

package hooks

import "fmt"

// Phase is the lifecycle state of one compilation.
type Phase int

const (
	PhaseEvaluating Phase = iota
	PhaseBeforeHooks
	PhaseAssembling
	PhaseBuilding
	PhaseAfterHooks
	PhaseClosed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseEvaluating:
		return "Evaluating"
	case PhaseBeforeHooks:
		return "BeforeHooks"
	case PhaseAssembling:
		return "Assembling"
	case PhaseBuilding:
		return "Building"
	case PhaseAfterHooks:
		return "AfterHooks"
	case PhaseClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

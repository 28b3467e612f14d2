package ports

import (
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
)

// Policy is the record of hooks a domain layer (e.g. a video policy) passes
// to the bin at construction. Every field except GetFactories is optional;
// nil fields fall back to the core defaults.
type Policy struct {
	// GetFactories provides the candidate catalog. Required.
	GetFactories func() []ElementFactory

	// ValidateRoute may reject a transformation route before any chain is
	// enumerated for it. Default: accept.
	ValidateRoute func(route domain.TransformRoute) bool

	// ValidateChain replaces the built-in validator pipeline. It returns
	// ok=true when the chain is acceptable; otherwise failingDepth is the
	// deepest index at which the chain must change, steering the
	// enumerator's backtracking.
	ValidateChain func(sinkCaps, srcCaps caps.Caps, chain []*domain.FactoryEntry) (failingDepth int, ok bool)

	// CostStep prices one fixated transformation step. Default: 1.
	CostStep func(step *domain.TransformationStep) uint32

	// BeginBuild runs under the structural lock right before a planning
	// pass, so the policy can snapshot pre-planning state.
	BeginBuild func()
}

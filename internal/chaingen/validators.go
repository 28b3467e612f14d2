package chaingen

import (
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
)

// ValidateFunc judges a candidate chain. ok=true accepts the chain;
// otherwise failingDepth is the deepest position at which the chain must
// change, which steers the generator's backtracking.
type ValidateFunc func(sinkCaps, srcCaps caps.Caps, chain []*domain.FactoryEntry) (failingDepth int, ok bool)

// Compose runs validators in order; the first failure determines the
// backtrack point.
func Compose(validators ...ValidateFunc) ValidateFunc {
	return func(sinkCaps, srcCaps caps.Caps, chain []*domain.FactoryEntry) (int, bool) {
		for _, v := range validators {
			if depth, ok := v(sinkCaps, srcCaps, chain); !ok {
				return depth, false
			}
		}
		return 0, true
	}
}

// Default is the built-in validator pipeline: caps connectivity, then the
// consecutive-duplicate rule.
func Default() ValidateFunc {
	return Compose(ValidateChainCaps, ValidateNoConsecutiveDuplicates)
}

// ValidateChainCaps checks that every boundary of the chain can connect:
// the src side of each position intersects the sink side of the next.
// Position 0 is the sink end of the chain. The failing depth is the
// highest boundary that cannot connect.
func ValidateChainCaps(sinkCaps, srcCaps caps.Caps, chain []*domain.FactoryEntry) (int, bool) {
	for depth := len(chain); depth >= 0; depth-- {
		srcSide := sinkCaps
		if depth > 0 {
			srcSide = chain[depth-1].SrcCaps
		}
		sinkSide := srcCaps
		if depth < len(chain) {
			sinkSide = chain[depth].SinkCaps
		}
		if !caps.Intersects(srcSide, sinkSide) {
			return depth, false
		}
	}
	return 0, true
}

// ValidateNoConsecutiveDuplicates forbids the same factory twice in a row.
func ValidateNoConsecutiveDuplicates(_, _ caps.Caps, chain []*domain.FactoryEntry) (int, bool) {
	for depth := len(chain) - 2; depth >= 0; depth-- {
		if chain[depth] == chain[depth+1] {
			return depth, false
		}
	}
	return 0, true
}

// ValidateKlassOrdering requires the pipeline stages parser, decoder,
// converter, encoder to be non-decreasing from the sink end to the src
// end. Entries with no recognized class fail the ordering. Not part of the
// default pipeline; policies opt in.
func ValidateKlassOrdering(_, _ caps.Caps, chain []*domain.FactoryEntry) (int, bool) {
	prevStage := len(domain.StageOrder) - 1
	for depth := len(chain) - 1; depth >= 0; depth-- {
		stage := chain[depth].Klass.Stage()
		if stage > prevStage {
			return depth, false
		}
		prevStage = stage
	}
	return 0, true
}

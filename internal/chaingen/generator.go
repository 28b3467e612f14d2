// Package chaingen enumerates candidate factory chains of a fixed length:
// an odometer over the factory index, pruned by a validator that reports
// the deepest position needing change so whole regions of the permutation
// space are skipped at once.
package chaingen

import (
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
)

// Generator lazily walks the permutations of the catalog for one chain
// length. Position 0 is the sink end; position 0 advances fastest.
// The caller pulls one candidate at a time with Next; the generator is
// restartable and deterministic in the catalog order.
type Generator struct {
	entries  []*domain.FactoryEntry
	sinkCaps caps.Caps
	srcCaps  caps.Caps

	positions []int
	chain     []*domain.FactoryEntry
	started   bool
	exhausted bool
}

// New creates a generator for chains of the given length over entries.
func New(entries []*domain.FactoryEntry, sinkCaps, srcCaps caps.Caps, length int) *Generator {
	return &Generator{
		entries:   entries,
		sinkCaps:  sinkCaps,
		srcCaps:   srcCaps,
		positions: make([]int, length),
		chain:     make([]*domain.FactoryEntry, length),
	}
}

// Next returns the next chain accepted by validate, or ok=false when the
// permutation space is exhausted. The returned slice is reused by
// subsequent calls; callers keeping it must copy.
func (g *Generator) Next(validate ValidateFunc) ([]*domain.FactoryEntry, bool) {
	if g.exhausted || len(g.entries) == 0 || len(g.positions) == 0 {
		g.exhausted = true
		return nil, false
	}

	depth := 0
	for {
		if !g.started {
			g.started = true
		} else if !g.advance(depth) {
			g.exhausted = true
			return nil, false
		}

		for i, p := range g.positions {
			g.chain[i] = g.entries[p]
		}

		failing, ok := validate(g.sinkCaps, g.srcCaps, g.chain)
		if ok {
			return g.chain, true
		}

		// The failing depth names a boundary or position; advancing the
		// position just below it is the deepest change that can fix it.
		depth = failing
		if depth > 0 {
			depth--
		}
	}
}

// advance steps the odometer at startDepth, carrying towards the src end,
// and resets every position below startDepth. Returns false when every
// position wrapped.
func (g *Generator) advance(startDepth int) bool {
	i := startDepth
	for ; i < len(g.positions); i++ {
		g.positions[i]++
		if g.positions[i] < len(g.entries) {
			break
		}
		g.positions[i] = 0
	}
	if i == len(g.positions) {
		return false
	}

	for i := 0; i < startDepth; i++ {
		g.positions[i] = 0
	}
	return true
}

package planner

import (
	"math"

	"github.com/aretw0/switchyard/pkg/domain"
)

// selectCover picks the minimum-cost set of proposals whose covered
// outputs union to the full output set. Each proposal covers the outputs
// along its ancestor chain at the chain's summed cost; the subset-sum
// recurrence then combines disjoint covers. Infinity is absorbing: sets
// with no candidate stay unreachable.
func selectCover(arena []domain.Proposal, outputs []Port) ([]int, uint32) {
	m := len(outputs)
	if m == 0 || m > 30 {
		return nil, 0
	}

	bit := make(map[string]int, m)
	for i, out := range outputs {
		bit[out.ID] = i
	}

	const inf = math.MaxUint64
	full := (1 << m) - 1
	minCost := make([]uint64, 1<<m)
	selected := make([][]int, 1<<m)
	for i := range minCost {
		minCost[i] = inf
	}

	// Seed with every proposal's ancestor chain.
	for h := range arena {
		set := 0
		cost := uint64(0)
		var sel []int
		for a := h; ; {
			prop := &arena[a]
			sel = append(sel, a)
			set |= 1 << bit[prop.SrcEndpoint]
			cost += uint64(prop.Cost)
			if prop.Parent.Kind != domain.ParentBranch {
				break
			}
			a = prop.Parent.Proposal
		}
		if cost < minCost[set] {
			minCost[set] = cost
			selected[set] = sel
		}
	}

	// Improve every set by splitting it into disjoint halves.
	for set := 1; set <= full; set++ {
		cost := minCost[set]
		sel := selected[set]
		for sub := set; sub != 0; sub = (sub - 1) & set {
			other := set ^ sub
			if minCost[sub] == inf || minCost[other] == inf {
				continue
			}
			if alt := minCost[sub] + minCost[other]; alt < cost {
				cost = alt
				sel = append(append([]int(nil), selected[sub]...), selected[other]...)
			}
		}
		minCost[set] = cost
		selected[set] = sel
	}

	if minCost[full] == inf {
		return nil, 0
	}
	return dedupe(selected[full]), uint32(minCost[full])
}

func dedupe(handles []int) []int {
	seen := make(map[int]struct{}, len(handles))
	out := make([]int, 0, len(handles))
	for _, h := range handles {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

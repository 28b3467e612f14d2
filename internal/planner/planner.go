// Package planner turns a configured set of input and output endpoints
// into a costed plan: it generates direct and branch proposals breadth
// first, then selects the minimum-cost cover of the outputs with a
// subset-sum dynamic program.
package planner

import (
	"io"
	"log/slog"

	"github.com/aretw0/switchyard/internal/chaingen"
	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/internal/sandbox"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
)

// Port is one endpoint as the planner sees it: its identity and the caps
// on its outward side (fixed caps for inputs, downstream-advertised caps
// for outputs).
type Port struct {
	ID   string
	Caps caps.Caps
}

// Config assembles a planner for one planning pass.
type Config struct {
	Index  *index.Index
	Tester *sandbox.Tester

	// Validate judges candidate chains. Defaults to chaingen.Default().
	Validate chaingen.ValidateFunc

	// ValidateRoute may veto a route before enumeration. Default: accept.
	ValidateRoute func(route domain.TransformRoute) bool

	// MaxChainLength bounds enumeration. Defaults to
	// domain.DefaultMaxChainLength.
	MaxChainLength int

	// Exhaustive explores every chain length up to MaxChainLength instead
	// of stopping at the first length that yields proposals.
	Exhaustive bool

	Logger *slog.Logger
}

// Stats summarizes what one planning pass did.
type Stats struct {
	ChainsTested       int
	ProposalsGenerated int
	Layers             int
}

// Planner runs planning passes. It holds no mutable state of its own;
// the per-pass state lives in the tester's sandbox cache.
type Planner struct {
	cfg Config
}

// New creates a planner, applying config defaults.
func New(cfg Config) *Planner {
	if cfg.Validate == nil {
		cfg.Validate = chaingen.Default()
	}
	if cfg.ValidateRoute == nil {
		cfg.ValidateRoute = func(domain.TransformRoute) bool { return true }
	}
	if cfg.MaxChainLength <= 0 {
		cfg.MaxChainLength = domain.DefaultMaxChainLength
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{cfg: cfg}
}

// Plan generates proposals for every route and selects the minimum-cost
// cover. When no cover exists the returned plan has an empty selection;
// the caller decides what an unconnected output means.
func (p *Planner) Plan(inputs, outputs []Port) (*domain.Plan, Stats) {
	var stats Stats
	arena := p.generate(inputs, outputs, &stats)

	plan := &domain.Plan{Proposals: arena}
	plan.Selected, plan.TotalCost = selectCover(arena, outputs)
	stats.ProposalsGenerated = len(arena)

	p.cfg.Logger.Debug("planning pass complete",
		"proposals", len(arena),
		"selected", len(plan.Selected),
		"cost", plan.TotalCost,
		"chains_tested", stats.ChainsTested,
		"layers", stats.Layers)
	return plan, stats
}

// generate yields the proposal arena: layer 0 is every direct
// input-to-output route, layer k branches off the steps of layer k-1.
// Generation stops when a layer yields nothing.
func (p *Planner) generate(inputs, outputs []Port, stats *Stats) []domain.Proposal {
	var arena []domain.Proposal
	var prev []int

	for _, out := range outputs {
		for _, in := range inputs {
			route := domain.TransformRoute{
				SinkEndpoint: in.ID,
				SinkCaps:     in.Caps,
				SrcEndpoint:  out.ID,
				SrcCaps:      out.Caps,
			}
			arena, prev = p.routeProposals(arena, prev, route, domain.RootInput(in.ID), stats)
		}
	}

	for len(prev) > 0 {
		stats.Layers++
		var next []int
		for _, h := range prev {
			for _, out := range outputs {
				arena, next = p.branchProposals(arena, next, h, out, stats)
			}
		}
		prev = next
	}

	return arena
}

// routeProposals tries the route: passthrough first, then chains of
// increasing length. The first productive length determines the set of
// chains explored for this parent, unless Exhaustive is set.
func (p *Planner) routeProposals(arena []domain.Proposal, yield []int, route domain.TransformRoute, parent domain.ProposalParent, stats *Stats) ([]domain.Proposal, []int) {
	if !p.cfg.ValidateRoute(route) {
		return arena, yield
	}

	if prop := p.cfg.Tester.TryPassthrough(parent, route.SinkCaps, route.SrcEndpoint, route.SrcCaps); prop != nil {
		arena = append(arena, *prop)
		return arena, append(yield, len(arena)-1)
	}

	before := len(yield)
	for length := 1; length <= p.cfg.MaxChainLength; length++ {
		if len(yield) > before && !p.cfg.Exhaustive {
			break
		}
		gen := chaingen.New(p.cfg.Index.Entries(), route.SinkCaps, route.SrcCaps, length)
		for {
			chain, ok := gen.Next(p.cfg.Validate)
			if !ok {
				break
			}
			stats.ChainsTested++
			if prop := p.cfg.Tester.TryChain(chain, parent, route.SinkCaps, route.SrcEndpoint, route.SrcCaps); prop != nil {
				arena = append(arena, *prop)
				yield = append(yield, len(arena)-1)
			}
		}
	}
	return arena, yield
}

// branchProposals grows routes off every step of the parent proposal
// towards out, skipping outputs already served along the ancestor chain.
func (p *Planner) branchProposals(arena []domain.Proposal, yield []int, parentHandle int, out Port, stats *Stats) ([]domain.Proposal, []int) {
	for h := parentHandle; ; {
		prop := &arena[h]
		if prop.SrcEndpoint == out.ID {
			return arena, yield
		}
		if prop.Parent.Kind != domain.ParentBranch {
			break
		}
		h = prop.Parent.Proposal
	}

	for i := range arena[parentHandle].Steps {
		route := domain.TransformRoute{
			SinkCaps:    arena[parentHandle].Steps[i].SrcCaps,
			SrcEndpoint: out.ID,
			SrcCaps:     out.Caps,
		}
		arena, yield = p.routeProposals(arena, yield, route, domain.BranchOf(parentHandle, i), stats)
	}
	return arena, yield
}

package sandbox

import (
	"log/slog"

	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Tester instantiates candidate chains and prices the survivors. One
// Tester (and its Cache) lives for a single planning pass.
type Tester struct {
	idx    *index.Index
	host   ports.Host
	cache  *Cache
	cost   func(step *domain.TransformationStep) uint32
	logger *slog.Logger
}

// NewTester creates a tester. costStep may be nil; every step then costs 1.
func NewTester(idx *index.Index, host ports.Host, cache *Cache, costStep func(*domain.TransformationStep) uint32, logger *slog.Logger) *Tester {
	if costStep == nil {
		costStep = func(*domain.TransformationStep) uint32 { return 1 }
	}
	return &Tester{idx: idx, host: host, cache: cache, cost: costStep, logger: logger}
}

// TryPassthrough checks whether the sink caps can feed the downstream
// consumer unchanged; if so it returns a zero-step proposal.
func (t *Tester) TryPassthrough(parent domain.ProposalParent, sinkCaps caps.Caps, srcEndpoint string, downstreamCaps caps.Caps) *domain.Proposal {
	if !caps.Intersects(sinkCaps, downstreamCaps) {
		return nil
	}
	return &domain.Proposal{Parent: parent, SrcEndpoint: srcEndpoint}
}

// TryChain materializes the chain in the sandbox, negotiates it end to end
// and returns the costed proposal, or nil when any stage fails. Failures
// are normal pruning and are never surfaced.
func (t *Tester) TryChain(chain []*domain.FactoryEntry, parent domain.ProposalParent, sinkCaps caps.Caps, srcEndpoint string, srcCaps caps.Caps) *domain.Proposal {
	if len(chain) == 0 {
		return nil
	}
	elements := make([]ports.Element, 0, len(chain))
	sinkPads := make([]ports.Pad, 0, len(chain))
	srcPads := make([]ports.Pad, 0, len(chain))

	defer func() {
		for i, e := range elements {
			if i < len(srcPads) {
				srcPads[i].Unlink()
			}
			if i < len(sinkPads) {
				sinkPads[i].Unlink()
			}
			t.cache.Release(e)
		}
	}()

	// Acquire and link the chain head to tail.
	for _, entry := range chain {
		factory, ok := t.idx.Factory(entry.FactoryID)
		if !ok {
			return nil
		}
		element, err := t.cache.Acquire(factory)
		if err != nil {
			t.logger.Debug("sandbox: acquire failed", "factory", entry.FactoryID, "err", err)
			return nil
		}
		elements = append(elements, element)

		sinkPad, err := element.Pad(entry.SinkPadName)
		if err != nil {
			return nil
		}
		srcPad, err := element.Pad(entry.SrcPadName)
		if err != nil {
			return nil
		}
		sinkPads = append(sinkPads, sinkPad)
		srcPads = append(srcPads, srcPad)

		if n := len(elements); n > 1 {
			if err := srcPads[n-2].Link(sinkPad); err != nil {
				return nil
			}
		}
	}

	// A probe pad stands in for the eventual downstream consumer.
	probe := t.host.NewProbeSink(srcCaps)
	if err := srcPads[len(srcPads)-1].Link(probe); err != nil {
		return nil
	}
	defer probe.Unlink()

	// The head must accept the route's sink caps before we try to apply them.
	if !caps.Intersects(sinkPads[0].QueryCaps(caps.NewAny()), sinkCaps) {
		return nil
	}
	if !sinkPads[0].SendCaps(sinkCaps) {
		return nil
	}

	return t.costedProposal(chain, parent, srcEndpoint, sinkPads, srcPads)
}

// costedProposal reads the fixated per-step caps off the negotiated chain.
// Any step without fixated caps on both sides kills the candidate.
func (t *Tester) costedProposal(chain []*domain.FactoryEntry, parent domain.ProposalParent, srcEndpoint string, sinkPads, srcPads []ports.Pad) *domain.Proposal {
	proposal := &domain.Proposal{
		Parent:      parent,
		SrcEndpoint: srcEndpoint,
		Steps:       make([]domain.TransformationStep, len(chain)),
	}

	for i, entry := range chain {
		sinkCur := sinkPads[i].CurrentCaps()
		srcCur := srcPads[i].CurrentCaps()
		if !sinkCur.Fixed() || !srcCur.Fixed() {
			return nil
		}
		proposal.Steps[i] = domain.TransformationStep{
			FactoryID:   entry.FactoryID,
			SinkPadName: entry.SinkPadName,
			SrcPadName:  entry.SrcPadName,
			SinkCaps:    sinkCur,
			SrcCaps:     srcCur,
		}
	}

	for i := range proposal.Steps {
		proposal.Cost += t.cost(&proposal.Steps[i])
	}
	return proposal
}

// Package graph commits a selected plan to a live element graph: it
// creates the chain elements, places tees where streams fan out,
// terminates unused inputs with null sinks and wires everything to the
// bin's endpoints.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Builder instantiates plans against a host framework.
type Builder struct {
	idx    *index.Index
	host   ports.Host
	logger *slog.Logger
}

// NewBuilder creates a builder.
func NewBuilder(idx *index.Index, host ports.Host, logger *slog.Logger) *Builder {
	return &Builder{idx: idx, host: host, logger: logger}
}

// Live is a committed graph. InputTargets names, per input endpoint, the
// pad the bin dispatches buffers and events into.
type Live struct {
	elements []ports.Element

	// InputTargets maps input endpoint IDs to the live pad fed by them.
	InputTargets map[string]ports.Pad
}

// chainEnds tracks the construction state of one proposal's chain.
type chainEnds struct {
	sinkPad ports.Pad
	srcPad  ports.Pad
	tees    []*teePoint
}

type teePoint struct {
	element ports.Element
}

// Build materializes the plan's selected proposals. inputs lists every
// input endpoint ID; outputSinks maps output endpoint IDs to the bin-side
// pads chain outputs link to. On failure the partial graph is torn down
// and the error wraps domain.ErrBuildFailed.
func (b *Builder) Build(plan *domain.Plan, inputs []string, outputSinks map[string]ports.Pad) (*Live, error) {
	live := &Live{InputTargets: make(map[string]ports.Pad)}

	fail := func(err error) (*Live, error) {
		live.Teardown()
		return nil, fmt.Errorf("%w: %v", domain.ErrBuildFailed, err)
	}

	// Index fan-out: which selected proposals branch off which step, and
	// how many root at each input endpoint.
	stepChildren := make(map[int]map[int][]int)
	rootCount := make(map[string]int)

	for _, h := range plan.Selected {
		p := &plan.Proposals[h]
		switch p.Parent.Kind {
		case domain.ParentBranch:
			children := stepChildren[p.Parent.Proposal]
			if children == nil {
				children = make(map[int][]int)
				stepChildren[p.Parent.Proposal] = children
			}
			children[p.Parent.Step] = append(children[p.Parent.Step], h)
		case domain.ParentRootInput:
			rootCount[p.Parent.Endpoint]++
		}
	}

	// A tee goes onto an input endpoint iff its stream fans out; a lone
	// consumer, passthrough included, uses the input directly.
	inputTees := make(map[string]ports.Element)
	for _, h := range plan.Selected {
		p := &plan.Proposals[h]
		if p.Parent.Kind != domain.ParentRootInput {
			continue
		}
		id := p.Parent.Endpoint
		if inputTees[id] != nil || rootCount[id] <= 1 {
			continue
		}
		tee, err := b.newLiveElement(b.host.TeeFactory(), live)
		if err != nil {
			return fail(err)
		}
		sinkPad, err := tee.Pad("sink")
		if err != nil {
			return fail(err)
		}
		inputTees[id] = tee
		live.InputTargets[id] = sinkPad
	}

	// Build each chain, inserting tees at steps that parent branches.
	ends := make(map[int]*chainEnds, len(plan.Selected))
	for _, h := range plan.Selected {
		p := &plan.Proposals[h]
		ce := &chainEnds{tees: make([]*teePoint, len(p.Steps))}
		ends[h] = ce

		var srcPad ports.Pad
		for i := range p.Steps {
			step := &p.Steps[i]
			factory, ok := b.idx.Factory(step.FactoryID)
			if !ok {
				return fail(fmt.Errorf("factory %q missing from index", step.FactoryID))
			}
			element, err := b.newLiveElement(factory, live)
			if err != nil {
				return fail(err)
			}

			sinkPad, err := element.Pad(step.SinkPadName)
			if err != nil {
				return fail(err)
			}
			if srcPad != nil {
				if err := srcPad.Link(sinkPad); err != nil {
					return fail(err)
				}
			} else {
				ce.sinkPad = sinkPad
			}

			srcPad, err = element.Pad(step.SrcPadName)
			if err != nil {
				return fail(err)
			}

			if len(stepChildren[h][i]) > 0 {
				tee, err := b.newLiveElement(b.host.TeeFactory(), live)
				if err != nil {
					return fail(err)
				}
				teeSink, err := tee.Pad("sink")
				if err != nil {
					return fail(err)
				}
				if err := srcPad.Link(teeSink); err != nil {
					return fail(err)
				}
				ce.tees[i] = &teePoint{element: tee}
				srcPad, err = tee.Pad("src_%u")
				if err != nil {
					return fail(err)
				}
			}
		}
		ce.srcPad = srcPad
	}

	// Wire chain inputs to their parents and chain outputs to the bin.
	for _, h := range plan.Selected {
		p := &plan.Proposals[h]
		ce := ends[h]

		upstream, err := b.upstreamPad(p, ends, inputTees)
		if err != nil {
			return fail(err)
		}

		outSink, ok := outputSinks[p.SrcEndpoint]
		if !ok {
			return fail(fmt.Errorf("output endpoint %q unknown", p.SrcEndpoint))
		}

		if ce.sinkPad != nil {
			if upstream != nil {
				if err := upstream.Link(ce.sinkPad); err != nil {
					return fail(err)
				}
			} else {
				// Single chain consuming the input directly; the bin
				// dispatches straight into the chain head.
				live.InputTargets[p.Parent.Endpoint] = ce.sinkPad
			}
		} else if upstream == nil {
			// Lone passthrough with no tee: the input endpoint feeds the
			// output directly.
			live.InputTargets[p.Parent.Endpoint] = outSink
			continue
		} else {
			// Passthrough off a tee: the parent's stream is the output.
			ce.srcPad = upstream
		}

		if ce.srcPad == nil {
			return fail(fmt.Errorf("proposal for %q has no output side", p.SrcEndpoint))
		}
		if err := ce.srcPad.Link(outSink); err != nil {
			return fail(err)
		}
	}

	// Inputs serving no proposal drain into a null sink.
	for _, id := range inputs {
		if _, ok := live.InputTargets[id]; ok {
			continue
		}
		sink, err := b.newLiveElement(b.host.NullSinkFactory(), live)
		if err != nil {
			return fail(err)
		}
		pad, err := sink.Pad("sink")
		if err != nil {
			return fail(err)
		}
		live.InputTargets[id] = pad
	}

	b.logger.Debug("graph built",
		"proposals", len(plan.Selected),
		"elements", len(live.elements))
	return live, nil
}

// upstreamPad resolves the pad feeding the proposal: a request pad of the
// parent step's tee, a request pad of the input tee, or nil when the chain
// connects to the input endpoint directly.
func (b *Builder) upstreamPad(p *domain.Proposal, ends map[int]*chainEnds, inputTees map[string]ports.Element) (ports.Pad, error) {
	if p.Parent.Kind == domain.ParentBranch {
		parent := ends[p.Parent.Proposal]
		if parent == nil || parent.tees[p.Parent.Step] == nil {
			return nil, fmt.Errorf("branch parent step %d has no tee", p.Parent.Step)
		}
		return parent.tees[p.Parent.Step].element.Pad("src_%u")
	}

	tee := inputTees[p.Parent.Endpoint]
	if tee == nil {
		return nil, nil
	}
	return tee.Pad("src_%u")
}

func (b *Builder) newLiveElement(factory ports.ElementFactory, live *Live) (ports.Element, error) {
	element, err := factory.Create("")
	if err != nil {
		return nil, err
	}
	if err := element.Start(); err != nil {
		return nil, err
	}
	live.elements = append(live.elements, element)
	return element, nil
}

// Elements returns the live elements, tees and null sinks included.
func (l *Live) Elements() []ports.Element {
	return l.elements
}

// Teardown stops every element, unlinks the pads the bin dispatches into
// and forgets the elements; links among the stopped elements are left in
// place. Safe on partially built graphs.
func (l *Live) Teardown() {
	if l == nil {
		return
	}
	for _, e := range l.elements {
		_ = e.Stop()
	}
	for _, pad := range l.InputTargets {
		pad.Unlink()
	}
	l.elements = nil
	l.InputTargets = map[string]ports.Pad{}
}

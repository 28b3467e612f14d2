package switchyard

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Input is an input endpoint of the bin. The embedder (or an upstream
// framework binding) pushes buffers and events into it from arbitrary
// streaming threads.
type Input struct {
	bin *Bin
	id  string

	// Guarded by bin.mu.
	caps   caps.Caps
	sticky []ports.Event
	target ports.Pad
}

// ID returns the endpoint identity.
func (in *Input) ID() string { return in.id }

// CurrentCaps returns the caps declared on this input, or empty caps.
func (in *Input) CurrentCaps() caps.Caps {
	in.bin.mu.Lock()
	defer in.bin.mu.Unlock()
	return in.caps
}

// PushEvent delivers an event into the bin. Caps-declaration events are
// intercepted: when the last input receives its caps the first planning
// pass runs. The drain marker and all other events pass through into the
// live graph.
func (in *Input) PushEvent(e ports.Event) bool {
	b := in.bin
	b.checkSinkBlock()

	if e.Type == ports.EventCaps {
		b.handleInputCaps(in, e)
	}
	return b.dispatchEvent(in, e)
}

// PushBuffer delivers a buffer into the live graph. It blocks while the
// bin drains or rebuilds, and triggers the rebuild itself when a
// downstream consumer latched a reconfiguration request.
func (in *Input) PushBuffer(buf ports.Buffer) error {
	b := in.bin
	b.checkSinkBlock()

	if err := b.Err(); err != nil {
		return err
	}
	if b.needsReconfigure() {
		b.rebuild()
		// With an asynchronous host the drain may still be in flight;
		// never dispatch into a draining graph.
		b.checkSinkBlock()
	}
	return b.dispatchBuffer(in, buf)
}

// QueryCaps answers what the input can accept: the union of every output
// consumer's advertised caps and the catalog's sink-side caps, intersected
// with the filter and normalized. It blocks while the bin drains or
// rebuilds.
func (in *Input) QueryCaps(filter caps.Caps) caps.Caps {
	b := in.bin
	b.checkSinkBlock()
	b.mu.Lock()
	downstream := make([]ports.Pad, 0, len(b.outputs))
	for _, out := range b.outputs {
		downstream = append(downstream, out.downstream)
	}
	factoryCaps := b.idx.AllSinkCaps()
	b.mu.Unlock()

	acc := caps.NewEmpty()
	for _, pad := range downstream {
		acc = caps.Merge(acc, pad.QueryCaps(filter))
	}
	acc = caps.Merge(acc, caps.Intersect(filter, factoryCaps))
	return acc.Normalize()
}

func (in *Input) resetLocked() {
	in.caps = caps.NewEmpty()
	in.sticky = nil
	in.target = nil
}

// Output is an output endpoint: the bin delivers the planned stream into
// its downstream pad.
type Output struct {
	bin        *Bin
	id         string
	downstream ports.Pad
	proxy      *outputProxy

	needsReconfigure atomic.Bool
}

// ID returns the endpoint identity.
func (o *Output) ID() string { return o.id }

// RequestReconfigure latches a reconfiguration request. The next buffer
// arriving on any input triggers a drain and rebuild; concurrent requests
// coalesce into one pass.
func (o *Output) RequestReconfigure() {
	o.needsReconfigure.Store(true)
}

// QueryCaps answers what the output may produce: the union of every
// input's declared caps and the catalog's src-side caps, intersected with
// the filter and normalized.
func (o *Output) QueryCaps(filter caps.Caps) caps.Caps {
	b := o.bin
	b.mu.Lock()
	acc := caps.NewEmpty()
	for _, in := range b.inputs {
		if !in.caps.IsEmpty() {
			acc = caps.Merge(acc, caps.Intersect(filter, in.caps))
		}
	}
	acc = caps.Merge(acc, caps.Intersect(filter, b.idx.AllSrcCaps()))
	b.mu.Unlock()
	return acc.Normalize()
}

// Connected reports whether the live graph currently feeds this output,
// either through a chain or as a direct passthrough from an input.
func (o *Output) Connected() bool {
	if o.proxy.Peer() != nil {
		return true
	}
	b := o.bin
	b.mu.Lock()
	defer b.mu.Unlock()
	return o.fedDirectlyLocked()
}

// fedDirectlyLocked reports whether an input dispatches straight into this
// output's proxy (the tee-less passthrough shape). Caller holds bin.mu.
func (o *Output) fedDirectlyLocked() bool {
	for _, in := range o.bin.inputs {
		if in.target == ports.Pad(o.proxy) {
			return true
		}
	}
	return false
}

// outputProxy is the sink pad the live graph links into for one output
// endpoint. It forwards dataflow to the downstream consumer and filters
// the drain acknowledgment so it is not forwarded downstream.
type outputProxy struct {
	out *Output

	mu   sync.Mutex
	peer ports.Pad
}

func (p *outputProxy) Name() string                  { return p.out.id + "-proxy" }
func (p *outputProxy) Direction() ports.PadDirection { return ports.PadSink }

func (p *outputProxy) Link(peer ports.Pad) error {
	if peer == nil || peer.Direction() != ports.PadSrc {
		return fmt.Errorf("output %q: proxy links src pads only", p.out.id)
	}
	p.mu.Lock()
	if p.peer != nil {
		p.mu.Unlock()
		return fmt.Errorf("output %q: already connected", p.out.id)
	}
	p.peer = peer
	p.mu.Unlock()

	if mp, ok := peer.(ports.PeerTracker); ok {
		mp.SetPeer(p)
	}
	return nil
}

func (p *outputProxy) Unlink() {
	p.mu.Lock()
	peer := p.peer
	p.peer = nil
	p.mu.Unlock()

	if mp, ok := peer.(ports.PeerTracker); ok {
		mp.DropPeer(p)
	}
}

// SetPeer implements ports.PeerTracker.
func (p *outputProxy) SetPeer(peer ports.Pad) {
	p.mu.Lock()
	p.peer = peer
	p.mu.Unlock()
}

// DropPeer implements ports.PeerTracker.
func (p *outputProxy) DropPeer(from ports.Pad) {
	p.mu.Lock()
	if p.peer == from {
		p.peer = nil
	}
	p.mu.Unlock()
}

func (p *outputProxy) Peer() ports.Pad {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peer
}

func (p *outputProxy) QueryCaps(filter caps.Caps) caps.Caps {
	return p.out.downstream.QueryCaps(filter)
}

func (p *outputProxy) SendCaps(c caps.Caps) bool {
	return p.out.downstream.PushEvent(ports.Event{Type: ports.EventCaps, Caps: c})
}

func (p *outputProxy) CurrentCaps() caps.Caps {
	return p.out.downstream.CurrentCaps()
}

func (p *outputProxy) Push(b ports.Buffer) error {
	return p.out.downstream.Push(b)
}

func (p *outputProxy) PushEvent(e ports.Event) bool {
	switch e.Type {
	case ports.EventCaps:
		return p.SendCaps(e.Caps)
	case ports.EventDrain:
		if p.out.bin.drainAck(p.out) {
			return true
		}
		return p.out.downstream.PushEvent(e)
	default:
		return p.out.downstream.PushEvent(e)
	}
}

var _ ports.Pad = (*outputProxy)(nil)

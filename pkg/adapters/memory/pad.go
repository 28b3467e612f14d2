package memory

import (
	"fmt"
	"sync"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// pad is the shared pad implementation of the memory framework. Behavior
// that depends on the owning element (acceptance queries, negotiation,
// dataflow) is delegated through the owner callbacks.
type pad struct {
	name string
	dir  ports.PadDirection

	mu      sync.Mutex
	peer    ports.Pad
	current caps.Caps

	// queryCaps computes the pad's acceptable caps before filtering.
	queryCaps func() caps.Caps
	// acceptCaps drives negotiation when a caps event reaches a sink pad.
	// nil sinks accept by intersection with queryCaps.
	acceptCaps func(c caps.Caps) bool
	// onBuffer and onEvent receive dataflow arriving at a sink pad.
	onBuffer func(b ports.Buffer) error
	onEvent  func(e ports.Event) bool
}

func newPad(name string, dir ports.PadDirection) *pad {
	return &pad{name: name, dir: dir}
}

func (p *pad) Name() string                  { return p.name }
func (p *pad) Direction() ports.PadDirection { return p.dir }

func (p *pad) Link(peer ports.Pad) error {
	if peer == nil {
		return fmt.Errorf("memory: link %s: nil peer", p.name)
	}
	if p.dir == peer.Direction() {
		return fmt.Errorf("memory: link %s: both pads are %s pads", p.name, p.dir)
	}
	p.mu.Lock()
	if p.peer != nil {
		p.mu.Unlock()
		return fmt.Errorf("memory: link %s: already linked", p.name)
	}
	p.peer = peer
	p.mu.Unlock()

	// Mirror the link on peers that track it.
	if mp, ok := peer.(ports.PeerTracker); ok {
		mp.SetPeer(p)
	}
	return nil
}

// SetPeer implements ports.PeerTracker.
func (p *pad) SetPeer(peer ports.Pad) {
	p.mu.Lock()
	p.peer = peer
	p.mu.Unlock()
}

func (p *pad) Unlink() {
	p.mu.Lock()
	peer := p.peer
	p.peer = nil
	p.current = caps.NewEmpty()
	p.mu.Unlock()

	if mp, ok := peer.(ports.PeerTracker); ok {
		mp.DropPeer(p)
	}
}

// DropPeer implements ports.PeerTracker.
func (p *pad) DropPeer(from ports.Pad) {
	p.mu.Lock()
	if p.peer == from {
		p.peer = nil
		p.current = caps.NewEmpty()
	}
	p.mu.Unlock()
}

func (p *pad) Peer() ports.Pad {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peer
}

func (p *pad) QueryCaps(filter caps.Caps) caps.Caps {
	acc := caps.NewAny()
	if p.queryCaps != nil {
		acc = p.queryCaps()
	}
	return caps.Intersect(filter, acc).Normalize()
}

func (p *pad) SendCaps(c caps.Caps) bool {
	if p.acceptCaps != nil {
		return p.acceptCaps(c)
	}
	got := caps.Intersect(c, p.QueryCaps(caps.NewAny()))
	if got.IsEmpty() {
		return false
	}
	p.setCurrent(got.Fixate())
	return true
}

func (p *pad) setCurrent(c caps.Caps) {
	p.mu.Lock()
	p.current = c
	p.mu.Unlock()
}

func (p *pad) CurrentCaps() caps.Caps {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *pad) Push(b ports.Buffer) error {
	if p.dir == ports.PadSink {
		if p.onBuffer != nil {
			return p.onBuffer(b)
		}
		return nil
	}
	peer := p.Peer()
	if peer == nil {
		return fmt.Errorf("memory: push on unlinked pad %s", p.name)
	}
	return peer.Push(b)
}

func (p *pad) PushEvent(e ports.Event) bool {
	if p.dir == ports.PadSink {
		if e.Type == ports.EventCaps {
			ok := p.SendCaps(e.Caps)
			if !ok {
				return false
			}
		}
		if p.onEvent != nil {
			return p.onEvent(e)
		}
		return true
	}
	peer := p.Peer()
	if peer == nil {
		return false
	}
	return peer.PushEvent(e)
}

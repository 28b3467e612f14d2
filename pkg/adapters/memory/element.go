package memory

import (
	"fmt"
	"sync"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Element is a single-sink/single-src transformation element. It forwards
// buffers and events unchanged; only the capability semantics are modeled.
type Element struct {
	name     string
	sinkCaps caps.Caps
	srcCaps  caps.Caps

	sink *pad
	src  *pad

	mu      sync.Mutex
	running bool
}

func newElement(name string, tmplSink, tmplSrc ports.PadTemplate) *Element {
	e := &Element{
		name:     name,
		sinkCaps: tmplSink.Caps,
		srcCaps:  tmplSrc.Caps,
		sink:     newPad(tmplSink.Name, ports.PadSink),
		src:      newPad(tmplSrc.Name, ports.PadSrc),
	}

	e.sink.queryCaps = e.querySinkCaps
	e.sink.acceptCaps = e.negotiate
	e.sink.onBuffer = func(b ports.Buffer) error {
		if !e.Running() {
			return fmt.Errorf("memory: element %s not running", e.name)
		}
		return e.src.Push(b)
	}
	e.sink.onEvent = func(ev ports.Event) bool {
		// Caps events were consumed by negotiation; the element emits its
		// own caps downstream instead of forwarding the upstream ones.
		if ev.Type == ports.EventCaps {
			return true
		}
		return e.src.PushEvent(ev)
	}
	return e
}

func (e *Element) Name() string { return e.name }

// Pad returns the sink or src pad by template name.
func (e *Element) Pad(name string) (ports.Pad, error) {
	switch name {
	case e.sink.name:
		return e.sink, nil
	case e.src.name:
		return e.src, nil
	default:
		return nil, fmt.Errorf("memory: element %s has no pad %q", e.name, name)
	}
}

func (e *Element) Start() error {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	return nil
}

func (e *Element) Stop() error {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	e.sink.setCurrent(caps.NewEmpty())
	e.src.setCurrent(caps.NewEmpty())
	return nil
}

// Running reports whether Start has been called without a following Stop.
func (e *Element) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// querySinkCaps reflects downstream acceptance into the sink side: the
// element accepts its sink template only while its output side can reach
// some consumer.
func (e *Element) querySinkCaps() caps.Caps {
	peer := e.src.Peer()
	if peer == nil {
		return e.sinkCaps
	}
	if caps.Intersect(e.srcCaps, peer.QueryCaps(caps.NewAny())).IsEmpty() {
		return caps.NewEmpty()
	}
	return e.sinkCaps
}

// negotiate fixates both sides of the element against the incoming caps
// and cascades downstream.
func (e *Element) negotiate(c caps.Caps) bool {
	in := caps.Intersect(c, e.sinkCaps)
	if in.IsEmpty() {
		return false
	}

	out := e.srcCaps
	if peer := e.src.Peer(); peer != nil {
		out = caps.Intersect(e.srcCaps, peer.QueryCaps(caps.NewAny()))
	}
	if out.IsEmpty() {
		return false
	}

	outFixed := out.Fixate()
	if peer := e.src.Peer(); peer != nil {
		if !peer.PushEvent(ports.Event{Type: ports.EventCaps, Caps: outFixed}) {
			return false
		}
	}

	e.sink.setCurrent(in.Fixate())
	e.src.setCurrent(outFixed)
	return true
}

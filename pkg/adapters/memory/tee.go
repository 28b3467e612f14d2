package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Tee fans one input stream out to any number of request src pads,
// unchanged.
type Tee struct {
	name string
	sink *pad

	mu      sync.Mutex
	srcs    []*pad
	nextSrc int
	running bool
}

func newTee(name string) *Tee {
	t := &Tee{name: name, sink: newPad("sink", ports.PadSink)}

	t.sink.queryCaps = t.querySinkCaps
	t.sink.acceptCaps = t.negotiate
	t.sink.onBuffer = func(b ports.Buffer) error {
		for _, src := range t.srcPads() {
			if src.Peer() == nil {
				continue
			}
			if err := src.Push(b); err != nil {
				return err
			}
		}
		return nil
	}
	t.sink.onEvent = func(ev ports.Event) bool {
		if ev.Type == ports.EventCaps {
			return true
		}
		ok := true
		for _, src := range t.srcPads() {
			if src.Peer() == nil {
				continue
			}
			ok = src.PushEvent(ev) && ok
		}
		return ok
	}
	return t
}

func (t *Tee) Name() string { return t.name }

// Pad returns the sink pad, or a fresh request src pad for the "src_%u"
// template.
func (t *Tee) Pad(name string) (ports.Pad, error) {
	if name == "sink" {
		return t.sink, nil
	}
	if name != "src_%u" {
		return nil, fmt.Errorf("memory: tee %s has no pad %q", t.name, name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	src := newPad(fmt.Sprintf("src_%d", t.nextSrc), ports.PadSrc)
	t.nextSrc++
	src.queryCaps = func() caps.Caps { return caps.NewAny() }
	t.srcs = append(t.srcs, src)

	// A pad requested after negotiation inherits the stream caps.
	if cur := t.sink.CurrentCaps(); !cur.IsEmpty() {
		src.setCurrent(cur)
	}
	return src, nil
}

func (t *Tee) Start() error {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
	return nil
}

func (t *Tee) Stop() error {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
	return nil
}

func (t *Tee) srcPads() []*pad {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*pad(nil), t.srcs...)
}

// querySinkCaps is the intersection of every linked consumer's acceptance;
// the tee itself imposes no constraint.
func (t *Tee) querySinkCaps() caps.Caps {
	acc := caps.NewAny()
	for _, src := range t.srcPads() {
		peer := src.Peer()
		if peer == nil {
			continue
		}
		acc = caps.Intersect(acc, peer.QueryCaps(caps.NewAny()))
	}
	return acc
}

func (t *Tee) negotiate(c caps.Caps) bool {
	got := caps.Intersect(c, t.querySinkCaps())
	if got.IsEmpty() {
		return false
	}
	fixed := got.Fixate()

	for _, src := range t.srcPads() {
		peer := src.Peer()
		if peer == nil {
			continue
		}
		if !peer.PushEvent(ports.Event{Type: ports.EventCaps, Caps: fixed}) {
			return false
		}
		src.setCurrent(fixed)
	}

	t.sink.setCurrent(fixed)
	return true
}

// teeFactory creates Tee elements. It is provisioned through the Host, not
// the catalog; its one sink and one "src_%u" template would still let
// index.Build admit it if a catalog listed it.
type teeFactory struct{}

func (teeFactory) ID() string    { return "tee" }
func (teeFactory) Klass() string { return "Generic" }

func (teeFactory) PadTemplates() []ports.PadTemplate {
	return []ports.PadTemplate{
		{Name: "sink", Direction: ports.PadSink, Caps: caps.NewAny()},
		{Name: "src_%u", Direction: ports.PadSrc, Caps: caps.NewAny()},
	}
}

func (teeFactory) Create(name string) (ports.Element, error) {
	if name == "" {
		name = "tee-" + uuid.NewString()[:8]
	}
	return newTee(name), nil
}

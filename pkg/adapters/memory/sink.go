package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// NullSink swallows everything pushed into it. The instantiator terminates
// otherwise unconnected input endpoints with one.
type NullSink struct {
	name string
	sink *pad
}

func newNullSink(name string) *NullSink {
	s := &NullSink{name: name, sink: newPad("sink", ports.PadSink)}
	s.sink.queryCaps = func() caps.Caps { return caps.NewAny() }
	return s
}

func (s *NullSink) Name() string { return s.name }

func (s *NullSink) Pad(name string) (ports.Pad, error) {
	if name != "sink" {
		return nil, fmt.Errorf("memory: nullsink %s has no pad %q", s.name, name)
	}
	return s.sink, nil
}

func (s *NullSink) Start() error { return nil }
func (s *NullSink) Stop() error  { return nil }

type nullSinkFactory struct{}

func (nullSinkFactory) ID() string    { return "nullsink" }
func (nullSinkFactory) Klass() string { return "Sink" }

func (nullSinkFactory) PadTemplates() []ports.PadTemplate {
	return []ports.PadTemplate{
		{Name: "sink", Direction: ports.PadSink, Caps: caps.NewAny()},
	}
}

func (nullSinkFactory) Create(name string) (ports.Element, error) {
	if name == "" {
		name = "nullsink-" + uuid.NewString()[:8]
	}
	return newNullSink(name), nil
}

// AppSink is a terminal sink pad for embedders: it advertises an accepted
// caps set and records what arrives, so tests and examples can observe the
// graph's output side.
type AppSink struct {
	pad *pad

	mu      sync.Mutex
	buffers []ports.Buffer
	events  []ports.Event
}

// NewAppSink creates a sink pad accepting the given caps.
func NewAppSink(accepted caps.Caps) *AppSink {
	s := &AppSink{pad: newPad("appsink", ports.PadSink)}
	s.pad.queryCaps = func() caps.Caps { return accepted }
	s.pad.onBuffer = func(b ports.Buffer) error {
		s.mu.Lock()
		s.buffers = append(s.buffers, b)
		s.mu.Unlock()
		return nil
	}
	s.pad.onEvent = func(e ports.Event) bool {
		s.mu.Lock()
		s.events = append(s.events, e)
		s.mu.Unlock()
		return true
	}
	return s
}

// Pad exposes the underlying sink pad.
func (s *AppSink) Pad() ports.Pad { return s.pad }

// Buffers returns the buffers received so far.
func (s *AppSink) Buffers() []ports.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Buffer(nil), s.buffers...)
}

// Events returns the events received so far.
func (s *AppSink) Events() []ports.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Event(nil), s.events...)
}

// Host provides the framework facilities of the memory adapter.
type Host struct{}

// NewHost returns the memory host.
func NewHost() Host { return Host{} }

func (Host) TeeFactory() ports.ElementFactory      { return teeFactory{} }
func (Host) NullSinkFactory() ports.ElementFactory { return nullSinkFactory{} }

// NewProbeSink returns a standalone sink pad advertising accepted, used by
// the chain tester as the stand-in downstream consumer.
func (Host) NewProbeSink(accepted caps.Caps) ports.Pad {
	p := newPad("probe", ports.PadSink)
	p.queryCaps = func() caps.Caps { return accepted }
	return p
}

var _ ports.Host = Host{}

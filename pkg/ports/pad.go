package ports

import "github.com/aretw0/switchyard/pkg/caps"

// PadDirection tells whether a pad consumes or produces data.
type PadDirection int

const (
	PadSink PadDirection = iota
	PadSrc
)

func (d PadDirection) String() string {
	if d == PadSink {
		return "sink"
	}
	return "src"
}

// PadTemplate describes a pad a factory's elements will expose.
type PadTemplate struct {
	Name      string
	Direction PadDirection
	Caps      caps.Caps
}

// Buffer is an opaque unit of streaming data passing through the graph.
type Buffer struct {
	Data []byte
}

// EventType enumerates the events the core cares about. Everything else is
// EventCustom and passes through untouched.
type EventType int

const (
	// EventCaps declares the concrete caps of the stream. Sticky.
	EventCaps EventType = iota
	// EventDrain is the end-of-stream marker used by the rebuild protocol.
	EventDrain
	// EventCustom is any other event; forwarded verbatim.
	EventCustom
)

// Event travels along pads in the streaming direction.
type Event struct {
	Type    EventType
	Caps    caps.Caps
	Payload any
}

// Sticky reports whether the event is replayed to late-linked peers.
func (e Event) Sticky() bool {
	return e.Type == EventCaps
}

// PeerTracker is an optional pad capability: pads implementing it are
// notified when a link or unlink is initiated from the peer's side, so
// both ends agree on the connection regardless of which one Link was
// called on.
type PeerTracker interface {
	SetPeer(Pad)
	DropPeer(Pad)
}

// Pad is one connection point of an element, in the shape the planner
// needs: linking, capability queries and negotiation, and dataflow.
type Pad interface {
	Name() string
	Direction() PadDirection

	// Link connects this pad to peer. Exactly one side must be a src pad.
	Link(peer Pad) error
	// Unlink disconnects the pad from its peer, if any.
	Unlink()
	// Peer returns the linked pad, or nil.
	Peer() Pad

	// QueryCaps returns the caps this pad can handle, intersected with the
	// optional filter and normalized. On a sink pad this reflects the
	// element's acceptance given its downstream; caps.NewAny() is a valid
	// no-constraint filter.
	QueryCaps(filter caps.Caps) caps.Caps

	// SendCaps drives negotiation: the pad (and everything downstream of
	// its element) fixates to caps compatible with c. Returns false when
	// negotiation fails.
	SendCaps(c caps.Caps) bool

	// CurrentCaps returns the fixated caps agreed during negotiation, or
	// empty caps when the pad has not negotiated.
	CurrentCaps() caps.Caps

	// Push delivers a buffer downstream. Valid on src pads; sink pads of
	// the graph boundary accept injected buffers.
	Push(b Buffer) error

	// PushEvent delivers an event downstream. Valid on src pads; sink pads
	// of the graph boundary accept injected events.
	PushEvent(e Event) bool
}

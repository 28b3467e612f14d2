package domain

import "github.com/aretw0/switchyard/pkg/caps"

// FactoryEntry is one indexed transformation factory: a factory with
// exactly one sink template and one src template. Entries are immutable
// once the index is built.
type FactoryEntry struct {
	FactoryID string

	// SinkPadName and SrcPadName are the factory's template pad names,
	// used when acquiring pads from created instances.
	SinkPadName string
	SrcPadName  string

	// SinkCaps and SrcCaps are the template caps, possibly unions.
	SinkCaps caps.Caps
	SrcCaps  caps.Caps

	Klass KlassMask
}

// TransformRoute is a candidate conversion path between a concrete sink
// side and a desired src side, before any chain is enumerated for it.
// Endpoint IDs may be empty on the sink side when the route branches off an
// intermediate step rather than an input endpoint.
type TransformRoute struct {
	SinkEndpoint string
	SinkCaps     caps.Caps
	SrcEndpoint  string
	SrcCaps      caps.Caps
}

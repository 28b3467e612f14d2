// Package index builds and owns the factory catalog the planner queries:
// one immutable entry per single-sink/single-src factory, plus the caps
// unions advertised on the bin's outward endpoints.
package index

import (
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Index is the indexed factory catalog. Immutable once built.
type Index struct {
	entries   []*domain.FactoryEntry
	factories map[string]ports.ElementFactory

	allSinkCaps caps.Caps
	allSrcCaps  caps.Caps
}

// Build indexes the catalog. Factories that do not declare exactly one sink
// template and one src template are silently skipped.
func Build(catalog []ports.ElementFactory) *Index {
	idx := &Index{
		factories:   make(map[string]ports.ElementFactory),
		allSinkCaps: caps.NewEmpty(),
		allSrcCaps:  caps.NewEmpty(),
	}

	for _, factory := range catalog {
		sinkTmpl, srcTmpl, ok := findPadTemplates(factory)
		if !ok {
			continue
		}

		entry := &domain.FactoryEntry{
			FactoryID:   factory.ID(),
			SinkPadName: sinkTmpl.Name,
			SrcPadName:  srcTmpl.Name,
			SinkCaps:    sinkTmpl.Caps.Clone(),
			SrcCaps:     srcTmpl.Caps.Clone(),
			Klass:       domain.ParseKlass(factory.Klass()),
		}

		idx.entries = append(idx.entries, entry)
		idx.factories[entry.FactoryID] = factory

		idx.allSinkCaps = caps.Merge(idx.allSinkCaps, entry.SinkCaps)
		idx.allSrcCaps = caps.Merge(idx.allSrcCaps, entry.SrcCaps)
	}

	return idx
}

// findPadTemplates locates the factory's sink and src templates, rejecting
// factories with more than one of either.
func findPadTemplates(factory ports.ElementFactory) (sink, src ports.PadTemplate, ok bool) {
	var haveSink, haveSrc bool
	for _, tmpl := range factory.PadTemplates() {
		switch tmpl.Direction {
		case ports.PadSink:
			if haveSink {
				return ports.PadTemplate{}, ports.PadTemplate{}, false
			}
			sink, haveSink = tmpl, true
		case ports.PadSrc:
			if haveSrc {
				return ports.PadTemplate{}, ports.PadTemplate{}, false
			}
			src, haveSrc = tmpl, true
		}
	}
	return sink, src, haveSink && haveSrc
}

// Entries returns the indexed entries in catalog order.
func (idx *Index) Entries() []*domain.FactoryEntry {
	return idx.entries
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Factory resolves an entry's factory by ID.
func (idx *Index) Factory(id string) (ports.ElementFactory, bool) {
	f, ok := idx.factories[id]
	return f, ok
}

// AllSinkCaps returns the union of every entry's sink caps.
func (idx *Index) AllSinkCaps() caps.Caps {
	return idx.allSinkCaps
}

// AllSrcCaps returns the union of every entry's src caps.
func (idx *Index) AllSrcCaps() caps.Caps {
	return idx.allSrcCaps
}

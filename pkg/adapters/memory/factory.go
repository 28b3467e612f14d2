package memory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Factory builds transformation elements with one sink and one src pad.
type Factory struct {
	id    string
	klass string
	sink  ports.PadTemplate
	src   ports.PadTemplate
}

// NewFactory creates a factory. klass is the classification string matched
// for the Parser/Decoder/Converter/Encoder tokens.
func NewFactory(id, klass string, sinkCaps, srcCaps caps.Caps) *Factory {
	return &Factory{
		id:    id,
		klass: klass,
		sink:  ports.PadTemplate{Name: "sink", Direction: ports.PadSink, Caps: sinkCaps},
		src:   ports.PadTemplate{Name: "src", Direction: ports.PadSrc, Caps: srcCaps},
	}
}

// MustFactory is NewFactory over caps text; it panics on malformed caps.
func MustFactory(id, klass, sinkCaps, srcCaps string) *Factory {
	return NewFactory(id, klass, caps.MustParse(sinkCaps), caps.MustParse(srcCaps))
}

func (f *Factory) ID() string    { return f.id }
func (f *Factory) Klass() string { return f.klass }

func (f *Factory) PadTemplates() []ports.PadTemplate {
	return []ports.PadTemplate{f.sink, f.src}
}

func (f *Factory) Create(name string) (ports.Element, error) {
	if name == "" {
		name = fmt.Sprintf("%s-%s", f.id, uuid.NewString()[:8])
	}
	return newElement(name, f.sink, f.src), nil
}

var _ ports.ElementFactory = (*Factory)(nil)

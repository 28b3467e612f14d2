package domain

import "strings"

// KlassMask is a bitset over the transformation element classes recognized
// by the planner.
type KlassMask uint32

const (
	KlassConverter KlassMask = 1 << iota
	KlassDecoder
	KlassEncoder
	KlassParser
)

// klassTokens maps mask bits to the tokens matched inside a factory's
// classification string, in bit order.
var klassTokens = []struct {
	Bit   KlassMask
	Token string
}{
	{KlassConverter, "Converter"},
	{KlassDecoder, "Decoder"},
	{KlassEncoder, "Encoder"},
	{KlassParser, "Parser"},
}

// ParseKlass derives the mask from a factory classification string by
// substring matching, e.g. "Codec/Decoder/Video" -> KlassDecoder.
func ParseKlass(klass string) KlassMask {
	var mask KlassMask
	for _, t := range klassTokens {
		if strings.Contains(klass, t.Token) {
			mask |= t.Bit
		}
	}
	return mask
}

// StageOrder is the pipeline stage sequence enforced by the class-ordering
// validator, from the sink end towards the src end.
var StageOrder = []KlassMask{KlassParser, KlassDecoder, KlassConverter, KlassEncoder}

// Stage returns the index of the first stage whose bit is set in the mask,
// or len(StageOrder) when no stage bit is set.
func (m KlassMask) Stage() int {
	for i, stage := range StageOrder {
		if m&stage != 0 {
			return i
		}
	}
	return len(StageOrder)
}

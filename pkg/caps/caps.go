package caps

import (
	"sort"
	"strings"
)

// Caps describes what a pad or endpoint can carry: an ordered set of
// alternative Structures. An empty Caps matches nothing; the distinguished
// Any value matches everything.
type Caps struct {
	// Any marks the wildcard caps that intersect with everything.
	Any bool

	Structures []Structure
}

// Structure is one alternative: a media name plus constraint fields.
type Structure struct {
	Name   string
	Fields map[string]Value
}

// NewAny returns the wildcard caps.
func NewAny() Caps {
	return Caps{Any: true}
}

// NewEmpty returns caps that match nothing.
func NewEmpty() Caps {
	return Caps{}
}

// NewSimple builds caps with a single structure.
func NewSimple(name string, fields map[string]Value) Caps {
	s := Structure{Name: name, Fields: map[string]Value{}}
	for k, v := range fields {
		s.Fields[k] = v
	}
	return Caps{Structures: []Structure{s}}
}

// IsEmpty reports whether the caps match nothing.
func (c Caps) IsEmpty() bool {
	return !c.Any && len(c.Structures) == 0
}

// Clone returns a deep copy.
func (c Caps) Clone() Caps {
	out := Caps{Any: c.Any, Structures: make([]Structure, len(c.Structures))}
	for i, s := range c.Structures {
		out.Structures[i] = s.clone()
	}
	return out
}

func (s Structure) clone() Structure {
	c := Structure{Name: s.Name, Fields: make(map[string]Value, len(s.Fields))}
	for k, v := range s.Fields {
		c.Fields[k] = v.clone()
	}
	return c
}

// Intersects reports whether some structure of a is compatible with some
// structure of b.
func Intersects(a, b Caps) bool {
	if a.Any {
		return !b.IsEmpty()
	}
	if b.Any {
		return !a.IsEmpty()
	}
	for _, sa := range a.Structures {
		for _, sb := range b.Structures {
			if _, ok := intersectStructures(sa, sb); ok {
				return true
			}
		}
	}
	return false
}

// Intersect returns the caps compatible with both a and b. Structure order
// follows a (the filter side), so the caller's preference survives.
func Intersect(a, b Caps) Caps {
	if a.Any {
		return b.Clone()
	}
	if b.Any {
		return a.Clone()
	}
	var out Caps
	for _, sa := range a.Structures {
		for _, sb := range b.Structures {
			if s, ok := intersectStructures(sa, sb); ok {
				out.Structures = append(out.Structures, s)
			}
		}
	}
	return out
}

// Merge returns the union of a and b. Structures already subsumed by an
// earlier one are dropped so repeated merging stays bounded.
func Merge(a, b Caps) Caps {
	if a.Any || b.Any {
		return NewAny()
	}
	out := a.Clone()
	for _, sb := range b.Structures {
		subsumed := false
		for _, sa := range out.Structures {
			if sa.subsumes(sb) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			out.Structures = append(out.Structures, sb.clone())
		}
	}
	return out
}

// Normalize expands every list-valued field into separate structures, so
// each resulting structure carries no alternative lists.
func (c Caps) Normalize() Caps {
	if c.Any {
		return c
	}
	var out Caps
	for _, s := range c.Structures {
		out.Structures = append(out.Structures, expandStructure(s)...)
	}
	return out
}

func expandStructure(s Structure) []Structure {
	// Fields expand in name order so normalization is deterministic.
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := s.Fields[name]
		if v.Kind != KindList {
			continue
		}
		var out []Structure
		for _, alt := range v.List {
			e := s.clone()
			e.Fields[name] = alt
			out = append(out, expandStructure(e)...)
		}
		return out
	}
	return []Structure{s.clone()}
}

// Fixed reports whether the caps are fully concrete: exactly one structure
// and every field a scalar.
func (c Caps) Fixed() bool {
	if c.Any || len(c.Structures) != 1 {
		return false
	}
	for _, v := range c.Structures[0].Fields {
		if !v.fixed() {
			return false
		}
	}
	return true
}

// Fixate reduces the caps to a single concrete structure: the first
// structure wins, each list collapses to its first entry, each range to its
// lower bound. Fixating empty caps yields empty caps.
func (c Caps) Fixate() Caps {
	if c.Any {
		// Nothing to prefer; the wildcard cannot be fixated.
		return c
	}
	if len(c.Structures) == 0 {
		return c
	}
	s := c.Structures[0].clone()
	for k, v := range s.Fields {
		s.Fields[k] = v.fixate()
	}
	return Caps{Structures: []Structure{s}}
}

// Equal reports structural equality modulo field ordering.
func Equal(a, b Caps) bool {
	if a.Any != b.Any || len(a.Structures) != len(b.Structures) {
		return false
	}
	for i := range a.Structures {
		if !a.Structures[i].equal(b.Structures[i]) {
			return false
		}
	}
	return true
}

func (s Structure) equal(o Structure) bool {
	if s.Name != o.Name || len(s.Fields) != len(o.Fields) {
		return false
	}
	for k, v := range s.Fields {
		ov, ok := o.Fields[k]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	return true
}

// subsumes reports whether every value allowed by o is also allowed by s.
func (s Structure) subsumes(o Structure) bool {
	if s.Name != o.Name {
		return false
	}
	for k, v := range s.Fields {
		ov, ok := o.Fields[k]
		if !ok {
			return false
		}
		if !v.contains(ov) {
			return false
		}
	}
	return true
}

func intersectStructures(a, b Structure) (Structure, bool) {
	if a.Name != b.Name {
		return Structure{}, false
	}
	out := Structure{Name: a.Name, Fields: make(map[string]Value)}
	for k, va := range a.Fields {
		if vb, ok := b.Fields[k]; ok {
			v, ok := intersectValues(va, vb)
			if !ok {
				return Structure{}, false
			}
			out.Fields[k] = v
		} else {
			out.Fields[k] = va.clone()
		}
	}
	// Constraints present only on b still apply.
	for k, vb := range b.Fields {
		if _, ok := a.Fields[k]; !ok {
			out.Fields[k] = vb.clone()
		}
	}
	return out, true
}

// String renders the caps in the text form accepted by Parse.
func (c Caps) String() string {
	if c.Any {
		return "ANY"
	}
	if len(c.Structures) == 0 {
		return "EMPTY"
	}
	parts := make([]string, len(c.Structures))
	for i, s := range c.Structures {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

func (s Structure) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(", ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(s.Fields[k].String())
	}
	return b.String()
}

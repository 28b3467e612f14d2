package caps

import (
	"fmt"
	"strings"
)

// ValueKind discriminates the constraint forms a field can take.
type ValueKind int

const (
	// KindString is a concrete string scalar.
	KindString ValueKind = iota
	// KindInt is a concrete integer scalar.
	KindInt
	// KindList is a set of alternative values.
	KindList
	// KindRange is an inclusive integer range.
	KindRange
)

// Value is a field constraint: a scalar, a list of alternatives, or an
// inclusive integer range.
type Value struct {
	Kind ValueKind

	Str  string
	Int  int
	List []Value
	Lo   int
	Hi   int
}

// Str builds a string scalar value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Int builds an integer scalar value.
func Int(i int) Value { return Value{Kind: KindInt, Int: i} }

// List builds an alternatives list.
func List(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// Range builds an inclusive integer range.
func Range(lo, hi int) Value { return Value{Kind: KindRange, Lo: lo, Hi: hi} }

func (v Value) clone() Value {
	if v.Kind != KindList {
		return v
	}
	c := v
	c.List = make([]Value, len(v.List))
	copy(c.List, v.List)
	return c
}

func (v Value) fixed() bool {
	switch v.Kind {
	case KindList:
		return false
	case KindRange:
		return v.Lo == v.Hi
	default:
		return true
	}
}

func (v Value) fixate() Value {
	switch v.Kind {
	case KindList:
		if len(v.List) == 0 {
			return v
		}
		return v.List[0].fixate()
	case KindRange:
		return Int(v.Lo)
	default:
		return v
	}
}

func (v Value) equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindRange:
		return v.Lo == o.Lo && v.Hi == o.Hi
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].equal(o.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// contains reports whether every value allowed by o is allowed by v.
func (v Value) contains(o Value) bool {
	switch v.Kind {
	case KindList:
		switch o.Kind {
		case KindList:
			for _, ov := range o.List {
				if !v.contains(ov) {
					return false
				}
			}
			return true
		default:
			for _, alt := range v.List {
				if alt.contains(o) {
					return true
				}
			}
			return false
		}
	case KindRange:
		switch o.Kind {
		case KindInt:
			return o.Int >= v.Lo && o.Int <= v.Hi
		case KindRange:
			return o.Lo >= v.Lo && o.Hi <= v.Hi
		case KindList:
			for _, ov := range o.List {
				if !v.contains(ov) {
					return false
				}
			}
			return true
		default:
			return false
		}
	default:
		return v.equal(o)
	}
}

func intersectValues(a, b Value) (Value, bool) {
	// Lists distribute over the other side.
	if a.Kind == KindList {
		var out []Value
		for _, alt := range a.List {
			if v, ok := intersectValues(alt, b); ok {
				out = append(out, v)
			}
		}
		return collapseList(out)
	}
	if b.Kind == KindList {
		var out []Value
		for _, alt := range b.List {
			if v, ok := intersectValues(a, alt); ok {
				out = append(out, v)
			}
		}
		return collapseList(out)
	}

	switch a.Kind {
	case KindRange:
		switch b.Kind {
		case KindRange:
			lo, hi := max(a.Lo, b.Lo), min(a.Hi, b.Hi)
			if lo > hi {
				return Value{}, false
			}
			if lo == hi {
				return Int(lo), true
			}
			return Range(lo, hi), true
		case KindInt:
			if b.Int >= a.Lo && b.Int <= a.Hi {
				return b, true
			}
			return Value{}, false
		}
		return Value{}, false
	case KindInt:
		if b.Kind == KindRange {
			return intersectValues(b, a)
		}
		if a.equal(b) {
			return a, true
		}
		return Value{}, false
	case KindString:
		if a.equal(b) {
			return a, true
		}
		return Value{}, false
	}
	return Value{}, false
}

func collapseList(vs []Value) (Value, bool) {
	switch len(vs) {
	case 0:
		return Value{}, false
	case 1:
		return vs[0], true
	default:
		return Value{Kind: KindList, List: vs}, true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindRange:
		return fmt.Sprintf("[%d,%d]", v.Lo, v.Hi)
	case KindList:
		parts := make([]string, len(v.List))
		for i, alt := range v.List {
			parts[i] = alt.String()
		}
		return strings.Join(parts, "|")
	}
	return ""
}

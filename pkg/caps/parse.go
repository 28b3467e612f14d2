package caps

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the text form of caps:
//
//	video/x-raw, format=RGB|YUV, width=[64,1920]; video/x-h264
//
// Structures are separated by ';', fields by ','. A field value is an
// integer, a '|'-separated alternatives list, an inclusive "[lo,hi]" integer
// range, or a bare string. "ANY" and "EMPTY" parse to the corresponding
// distinguished caps.
func Parse(text string) (Caps, error) {
	text = strings.TrimSpace(text)
	switch text {
	case "ANY":
		return NewAny(), nil
	case "", "EMPTY":
		return NewEmpty(), nil
	}

	var out Caps
	for _, part := range strings.Split(text, ";") {
		s, err := parseStructure(part)
		if err != nil {
			return Caps{}, err
		}
		out.Structures = append(out.Structures, s)
	}
	return out, nil
}

// MustParse is Parse for static caps literals; it panics on malformed text.
func MustParse(text string) Caps {
	c, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return c
}

func parseStructure(text string) (Structure, error) {
	fields := splitFields(text)
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return Structure{}, fmt.Errorf("caps: empty structure in %q", text)
	}

	s := Structure{Name: strings.TrimSpace(fields[0]), Fields: map[string]Value{}}
	if strings.ContainsAny(s.Name, "=|") {
		return Structure{}, fmt.Errorf("caps: structure name expected, got %q", s.Name)
	}

	for _, f := range fields[1:] {
		key, raw, ok := strings.Cut(f, "=")
		if !ok {
			return Structure{}, fmt.Errorf("caps: field %q is not key=value", strings.TrimSpace(f))
		}
		v, err := parseValue(strings.TrimSpace(raw))
		if err != nil {
			return Structure{}, err
		}
		s.Fields[strings.TrimSpace(key)] = v
	}
	return s, nil
}

// splitFields splits on commas that are not inside a [lo,hi] range.
func splitFields(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, text[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, text[start:])
	return out
}

func parseValue(raw string) (Value, error) {
	if raw == "" {
		return Value{}, fmt.Errorf("caps: empty value")
	}

	if strings.Contains(raw, "|") {
		var alts []Value
		for _, p := range strings.Split(raw, "|") {
			v, err := parseValue(strings.TrimSpace(p))
			if err != nil {
				return Value{}, err
			}
			alts = append(alts, v)
		}
		return List(alts...), nil
	}

	if strings.HasPrefix(raw, "[") {
		body := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		lo, hi, ok := strings.Cut(body, ",")
		if !ok {
			return Value{}, fmt.Errorf("caps: malformed range %q", raw)
		}
		loN, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return Value{}, fmt.Errorf("caps: malformed range %q: %w", raw, err)
		}
		hiN, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return Value{}, fmt.Errorf("caps: malformed range %q: %w", raw, err)
		}
		if loN > hiN {
			return Value{}, fmt.Errorf("caps: inverted range %q", raw)
		}
		return Range(loN, hiN), nil
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return Int(n), nil
	}
	return Str(raw), nil
}

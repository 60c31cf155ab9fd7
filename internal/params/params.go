// Package params parses the free-form execution-argument string carried in
// the reserved kwargs column of a request. Arguments look like
// "min_support=0.2|float, debug=true" and become a typed parameter set.
package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ItemSep separates argument items.
	ItemSep = ","
	// TypeSep separates a value from its optional type tag.
	TypeSep = "|"
)

var ErrParse = errors.New("malformed execution argument")

func newErrParse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// Set is a typed parameter mapping preserving insertion order, so that
// consumers ranking or printing parameters get deterministic output.
type Set struct {
	keys []string
	vals map[string]any
}

func newSet() *Set {
	return &Set{vals: make(map[string]any)}
}

func (s *Set) put(key string, val any) {
	if _, ok := s.vals[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.vals[key] = val
}

func (s *Set) Len() int { return len(s.keys) }

// Keys returns parameter names in insertion order.
func (s *Set) Keys() []string { return append([]string(nil), s.keys...) }

func (s *Set) Get(key string) (any, bool) {
	v, ok := s.vals[key]
	return v, ok
}

func (s *Set) GetString(key, def string) string {
	if v, ok := s.vals[key].(string); ok {
		return v
	}
	return def
}

func (s *Set) GetFloat(key string, def float64) float64 {
	switch v := s.vals[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (s *Set) GetInt(key string, def int) int {
	if v, ok := s.vals[key].(int); ok {
		return v
	}
	return def
}

func (s *Set) GetBool(key string, def bool) bool {
	if v, ok := s.vals[key].(bool); ok {
		return v
	}
	return def
}

// String renders the set in insertion order for logs and debug output.
func (s *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, s.vals[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Parse converts a raw argument string into the debug flag and the typed
// pass-through parameter set. The reserved debug key is split out before
// general coercion and is never part of the returned set. An empty or
// blank raw string yields debug=false and an empty set without error.
func Parse(raw string) (bool, *Set, error) {
	set := newSet()
	debug := false

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, set, nil
	}

	for _, item := range strings.Split(raw, ItemSep) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, rest, ok := strings.Cut(item, "=")
		if !ok {
			return false, nil, newErrParse("argument %q is missing '='", item)
		}
		key = strings.TrimSpace(key)
		value, tag := rest, "str"
		if v, t, tagged := strings.Cut(rest, TypeSep); tagged {
			value, tag = v, strings.TrimSpace(t)
		}
		value = strings.TrimSpace(value)

		if key == "debug" {
			d, err := parseBool(value)
			if err != nil {
				return false, nil, newErrParse("argument %q: %v", item, err)
			}
			debug = d
			continue
		}

		typed, err := coerce(value, tag)
		if err != nil {
			return false, nil, newErrParse("argument %q: %v", item, err)
		}
		set.put(key, typed)
	}

	return debug, set, nil
}

func coerce(value, tag string) (any, error) {
	switch tag {
	case "str":
		return value, nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int", value)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a float", value)
		}
		return f, nil
	case "bool":
		return parseBool(value)
	default:
		return nil, fmt.Errorf("unknown type tag %q", tag)
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a bool, expected true or false", value)
}

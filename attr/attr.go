// Package attr holds the formatting metadata attached to blocks and to
// insert/retain spans. Values are opaque to the engine.
package attr

import "reflect"

// Attributes maps an attribute name to its value.
// In a patch, a nil value means "remove this key".
type Attributes map[string]any

// Clone returns an independent copy of a. A nil or empty map clones to nil.
func (a Attributes) Clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Patch returns a new map with p merged into a.
// Keys set to nil in p are deleted, keys absent from p are left untouched.
// Neither a nor p is modified.
func (a Attributes) Patch(p Attributes) Attributes {
	out := a.Clone()
	for k, v := range p {
		if v == nil {
			delete(out, k)
			continue
		}
		if out == nil {
			out = make(Attributes, len(p))
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Compose merges b on top of a the way two consecutive formatting changes
// combine. When keepNull is set, nil values from b are preserved so the
// result can still be used as a patch.
func Compose(a, b Attributes, keepNull bool) Attributes {
	out := a.Clone()
	for k, v := range b {
		if v == nil && !keepNull {
			delete(out, k)
			continue
		}
		if out == nil {
			out = make(Attributes, len(b))
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal reports whether a and b hold the same keys and values.
// A nil map equals an empty one.
func Equal(a, b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

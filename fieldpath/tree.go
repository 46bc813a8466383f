package fieldpath

import (
	"fmt"
	"strconv"

	"github.com/reoring/goform/internal/ident"
)

// Get resolves p against tree. Missing intermediate segments, type
// mismatches and out-of-range indexes yield (nil, false).
func Get(tree any, p Path) (any, bool) {
	cur := tree
	for _, s := range p {
		next, ok := child(cur, s)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Lookup parses path and resolves it against tree. Malformed paths resolve
// to (nil, false).
func Lookup(tree any, path string) (any, bool) {
	p, err := Parse(path)
	if err != nil {
		return nil, false
	}
	return Get(tree, p)
}

func child(container any, s Segment) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[keyOf(s)]
		return v, ok
	case []any:
		if !s.IsIndex || s.Index < 0 || s.Index >= len(c) {
			return nil, false
		}
		return c[s.Index], true
	}
	return nil, false
}

func keyOf(s Segment) string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Set returns a tree in which the location p holds v.
//
// Only the ancestors of the target are shallow-copied; every other subtree
// is shared with the input. If the current value at p is identical to v the
// input tree is returned unchanged, as it is when a missing location is set
// to nil or when the write would grow a sequence past MaxIndex. Missing containers are created as []any
// when the following segment is an index and map[string]any otherwise.
func Set(tree any, p Path, v any) any {
	if len(p) == 0 {
		return v
	}
	cur, ok := Get(tree, p)
	if (ok && ident.Same(cur, v)) || (!ok && v == nil) {
		return tree
	}
	if overLimit(tree, p) {
		return tree
	}
	return set(tree, p, v)
}

func set(node any, p Path, v any) any {
	if len(p) == 0 {
		return v
	}
	s := p[0]
	switch c := node.(type) {
	case map[string]any:
		key := keyOf(s)
		out := make(map[string]any, len(c)+1)
		for k, val := range c {
			out[k] = val
		}
		out[key] = set(c[key], p[1:], v)
		return out
	case []any:
		if s.IsIndex && s.Index >= 0 {
			n := len(c)
			if s.Index >= n {
				n = s.Index + 1
			}
			out := make([]any, n)
			copy(out, c)
			var prev any
			if s.Index < len(c) {
				prev = c[s.Index]
			}
			out[s.Index] = set(prev, p[1:], v)
			return out
		}
	}
	// missing or mismatched container: create one shaped by the segment
	if s.IsIndex && s.Index >= 0 {
		out := make([]any, s.Index+1)
		out[s.Index] = set(nil, p[1:], v)
		return out
	}
	return map[string]any{keyOf(s): set(nil, p[1:], v)}
}

// MaxIndex is the largest index a write may grow a sequence to.
const MaxIndex = 10000

// overLimit reports whether writing p would pad a sequence past MaxIndex.
func overLimit(tree any, p Path) bool {
	node := tree
	for _, s := range p {
		if s.IsIndex {
			l, _ := node.([]any)
			if s.Index >= len(l) && s.Index > MaxIndex {
				return true
			}
		}
		node, _ = child(node, s)
	}
	return false
}

// Delete returns a tree without the location p. Removing a sequence element
// shifts later elements down by one. A missing location returns the input
// unchanged.
func Delete(tree any, p Path) any {
	if len(p) == 0 {
		return nil
	}
	if _, ok := Get(tree, p); !ok {
		return tree
	}
	return del(tree, p)
}

func del(node any, p Path) any {
	s := p[0]
	switch c := node.(type) {
	case map[string]any:
		key := keyOf(s)
		out := make(map[string]any, len(c))
		for k, val := range c {
			if k == key && len(p) == 1 {
				continue
			}
			out[k] = val
		}
		if len(p) > 1 {
			out[key] = del(c[key], p[1:])
		}
		return out
	case []any:
		if len(p) == 1 {
			out := make([]any, 0, len(c)-1)
			out = append(out, c[:s.Index]...)
			return append(out, c[s.Index+1:]...)
		}
		out := make([]any, len(c))
		copy(out, c)
		out[s.Index] = del(c[s.Index], p[1:])
		return out
	}
	return node
}

// Normalize converts decoded documents (YAML, typed slices) into the
// map[string]any / []any shape used by data trees. Containers that are
// already in that shape are returned as is, so normalizing a tree keeps the
// identity of every subtree that needed no conversion.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		var out map[string]any
		for k, vv := range t {
			nv := Normalize(vv)
			if out == nil && ident.Same(nv, vv) {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(t))
				for k2, v2 := range t {
					out[k2] = v2
				}
			}
			out[k] = nv
		}
		if out == nil {
			return t
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = Normalize(vv)
		}
		return out
	case []any:
		var out []any
		for i, vv := range t {
			nv := Normalize(vv)
			if out == nil && ident.Same(nv, vv) {
				continue
			}
			if out == nil {
				out = make([]any, len(t))
				copy(out, t)
			}
			out[i] = nv
		}
		if out == nil {
			return t
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Normalize(vv)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = vv
		}
		return out
	default:
		return v
	}
}

package dsl

import (
	"context"
	"strconv"

	goform "github.com/reoring/goform"
	js "github.com/reoring/goform/jsonschema"
)

// ArrayNode validates sequences.
//
// A scalar value is accepted as a one-element sequence, which is how a
// single selection of a multi-select arrives in a flat payload. Failures of
// scalar elements are reported at the array's own path, once per distinct
// failure, because a multi-select is a single field; failures inside object
// or array elements are reported at their indexed path.
type ArrayNode struct {
	base
	elem           Node
	minLen, maxLen int
	minMsg, maxMsg string
}

// Array returns an array schema with the given element schema.
func Array(elem Node) *ArrayNode { return &ArrayNode{elem: elem, minLen: -1, maxLen: -1} }

// Required rejects missing values.
func (a *ArrayNode) Required(msg ...string) *ArrayNode {
	a.required, a.requiredMsg = true, firstMsg(msg)
	return a
}

// Min sets the minimum length.
func (a *ArrayNode) Min(n int, msg ...string) *ArrayNode {
	a.minLen, a.minMsg = n, firstMsg(msg)
	return a
}

// Max sets the maximum length.
func (a *ArrayNode) Max(n int, msg ...string) *ArrayNode {
	a.maxLen, a.maxMsg = n, firstMsg(msg)
	return a
}

// Describe sets the exported JSON Schema description.
func (a *ArrayNode) Describe(d string) *ArrayNode { a.description = d; return a }

func (a *ArrayNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, a, v) }

func (a *ArrayNode) asRequired() Node {
	c := *a
	c.required = true
	return &c
}

func (a *ArrayNode) check(ctx context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := a.prepare(v)
	if missing {
		return nil, iss, nil
	}
	var src []any
	switch t := v.(type) {
	case []any:
		src = t
	case []string:
		src = make([]any, len(t))
		for i, s := range t {
			src[i] = s
		}
	case map[string]any:
		return nil, goform.Issues{issue(goform.CodeTypeError, "typeError", "", map[string]any{"type": "array"})}, nil
	default:
		src = []any{t}
	}
	failFast := goform.IsFailFast(ctx)
	out := make([]any, 0, len(src))
	seen := map[string]bool{}
	for i, ev := range src {
		pv, eiss, err := a.elem.check(ctx, ev)
		if err != nil {
			return nil, nil, err
		}
		if len(eiss) == 0 {
			out = append(out, pv)
			continue
		}
		if isScalarNode(a.elem) {
			for _, it := range eiss {
				if k := it.Path + "\x00" + it.Code; !seen[k] {
					seen[k] = true
					iss = append(iss, it)
				}
			}
		} else {
			iss = append(iss, rebase(eiss, strconv.Itoa(i))...)
		}
		if failFast {
			return nil, iss, nil
		}
	}
	if a.minLen >= 0 && len(src) < a.minLen {
		iss = append(iss, issue(goform.CodeMin, "array.min", a.minMsg, map[string]any{"min": a.minLen}))
	}
	if a.maxLen >= 0 && len(src) > a.maxLen {
		iss = append(iss, issue(goform.CodeMax, "array.max", a.maxMsg, map[string]any{"max": a.maxLen}))
	}
	if len(iss) > 0 {
		return nil, iss, nil
	}
	return out, nil, nil
}

func isScalarNode(n Node) bool {
	switch n.(type) {
	case *ObjectSchema, *ArrayNode:
		return false
	}
	return true
}

func (a *ArrayNode) JSONSchema() (*js.Schema, error) {
	es, err := a.elem.JSONSchema()
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es}
	if a.minLen >= 0 {
		s.MinItems = js.Int(a.minLen)
	}
	if a.maxLen >= 0 {
		s.MaxItems = js.Int(a.maxLen)
	}
	return a.annotate(s), nil
}

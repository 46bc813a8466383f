package dsl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/i18n"
	"github.com/reoring/goform/internal/ident"
	js "github.com/reoring/goform/jsonschema"
)

// Node is a schema tree node. Every node is a goform.Schema; messages are
// rendered once, at the node Parse was called on, so that they carry the
// full field path.
type Node interface {
	goform.Schema
	goform.JSONSchemaProvider
	// check validates v and returns the normalized value together with the
	// issues found. Issue paths are JSON Pointers relative to the node.
	// A non-nil error is a systemic failure, not bad input.
	check(ctx context.Context, v any) (any, goform.Issues, error)
	// asRequired returns a copy of the node that rejects missing values.
	asRequired() Node
	isRequired() bool
}

// run is the shared Parse implementation.
func run(ctx context.Context, n Node, v any) (any, error) {
	out, iss, err := n.check(ctx, v)
	if err != nil {
		return nil, err
	}
	if len(iss) > 0 {
		if goform.IsFailFast(ctx) {
			iss = iss[:1]
		}
		return nil, finalize(iss)
	}
	return out, nil
}

// finalize renders messages with the dotted path of each issue.
func finalize(iss goform.Issues) goform.Issues {
	out := make(goform.Issues, len(iss))
	for i, it := range iss {
		data := make(map[string]string, len(it.Params)+1)
		for k, v := range it.Params {
			data[k] = paramString(v)
		}
		data["path"] = displayPath(it.Path)
		switch {
		case it.Message == "":
			key := it.Rule
			if key == "" {
				key = it.Code
			}
			it.Message = i18n.T(key, data)
		default:
			it.Message = i18n.Render(it.Message, data)
		}
		out[i] = it
	}
	return out
}

func displayPath(ptr string) string {
	if p := fieldpath.FromPointer(ptr).String(); p != "" {
		return p
	}
	return "this"
}

func paramString(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// issue builds a root-relative issue. msg overrides the default message
// template when non-empty.
func issue(code, rule, msg string, params map[string]any) goform.Issue {
	return goform.Issue{Path: "/", Code: code, Rule: rule, Message: msg, Params: params}
}

// rebase prefixes child issue paths with the pointer token for key.
func rebase(iss goform.Issues, key string) goform.Issues {
	tok := "/" + strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1")
	out := make(goform.Issues, 0, len(iss))
	for _, it := range iss {
		switch {
		case it.Path == "" || it.Path == "/":
			it.Path = tok
		case it.Path[0] == '/':
			it.Path = tok + it.Path
		default:
			it.Path = tok + "/" + it.Path
		}
		out = append(out, it)
	}
	return out
}

// base holds the options shared by every node kind.
type base struct {
	required    bool
	requiredMsg string
	pre         func(any) any
	def         any
	hasDef      bool
	description string
}

// prepare applies the preprocessor and default, then reports whether the
// value is missing. A missing required value yields a required issue.
func (b *base) prepare(v any) (any, bool, goform.Issues) {
	if b.pre != nil {
		v = b.pre(v)
	}
	if v == nil && b.hasDef {
		v = b.def
	}
	if v != nil {
		return v, false, nil
	}
	if b.required {
		return nil, true, goform.Issues{issue(goform.CodeRequired, "required", b.requiredMsg, nil)}
	}
	return nil, true, nil
}

func (b *base) isRequired() bool { return b.required }

func (b *base) annotate(s *js.Schema) *js.Schema {
	if b.hasDef {
		s.Default = b.def
	}
	if b.description != "" {
		s.Description = b.description
	}
	return s
}

func firstMsg(msg []string) string {
	if len(msg) > 0 {
		return msg[0]
	}
	return ""
}

// oneOfCheck reports whether v equals one of the allowed values. Non-string
// numbers compare by value.
func oneOfCheck(v any, allowed []any) bool {
	_, vIsStr := v.(string)
	for _, a := range allowed {
		if ident.Same(a, v) {
			return true
		}
		if _, isStr := a.(string); isStr || vIsStr {
			continue
		}
		if fa, ok := toFloat(a); ok {
			if fv, ok := toFloat(v); ok && fa == fv {
				return true
			}
		}
	}
	return false
}

// unknownKeys returns the keys of m that are not declared, sorted.
func unknownKeys(m map[string]any, declared map[string]int) []string {
	var out []string
	for k := range m {
		if _, ok := declared[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SchemaOf adapts an arbitrary goform.Schema into a Node so it can be used as
// a field or element. Issues it reports are rebased like any other node's;
// other errors propagate unchanged.
func SchemaOf(s goform.Schema) Node { return &schemaNode{s: s} }

type schemaNode struct {
	base
	s goform.Schema
}

func (n *schemaNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, n, v) }

func (n *schemaNode) check(ctx context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := n.prepare(v)
	if missing {
		return nil, iss, nil
	}
	out, err := n.s.Parse(ctx, v)
	if err == nil {
		return out, nil, nil
	}
	if iss, ok := goform.AsIssues(err); ok {
		return nil, iss, nil
	}
	return nil, nil, err
}

func (n *schemaNode) asRequired() Node {
	c := *n
	c.required = true
	return &c
}

func (n *schemaNode) JSONSchema() (*js.Schema, error) {
	if p, ok := n.s.(goform.JSONSchemaProvider); ok {
		return p.JSONSchema()
	}
	return &js.Schema{}, nil
}

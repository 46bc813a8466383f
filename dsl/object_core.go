package dsl

import (
	"context"
	"sort"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
	js "github.com/reoring/goform/jsonschema"
)

// ObjectSchema is a built object node.
type ObjectSchema struct {
	base
	fields        []objectField
	index         map[string]int
	unknownPolicy UnknownPolicy
	refines       []objRefine
}

var _ Node = (*ObjectSchema)(nil)

func (o *ObjectSchema) Parse(ctx context.Context, v any) (any, error) { return run(ctx, o, v) }

func (o *ObjectSchema) asRequired() Node {
	c := *o
	c.required = true
	return &c
}

// Fields returns the declared field names in declaration order.
func (o *ObjectSchema) Fields() []string {
	out := make([]string, len(o.fields))
	for i, f := range o.fields {
		out[i] = f.name
	}
	return out
}

// Lookup returns the node declared for name.
func (o *ObjectSchema) Lookup(name string) (Node, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.fields[i].node, true
}

func (o *ObjectSchema) check(ctx context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := o.prepare(v)
	if missing {
		return nil, iss, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, goform.Issues{issue(goform.CodeTypeError, "typeError", "", map[string]any{"type": "object"})}, nil
	}
	failFast := goform.IsFailFast(ctx)
	out := make(map[string]any, len(m))
	for _, f := range o.fields {
		node := f.node
		if f.requiredWhen != nil && !node.isRequired() && f.requiredWhen(ctx, m) {
			node = node.asRequired()
		}
		pv, fiss, err := node.check(ctx, m[f.name])
		if err != nil {
			return nil, nil, err
		}
		if len(fiss) > 0 {
			iss = append(iss, rebase(fiss, f.name)...)
			if failFast {
				return nil, iss, nil
			}
			continue
		}
		if pv != nil {
			out[f.name] = pv
		}
	}
	switch o.unknownPolicy {
	case UnknownKeep:
		for k, val := range m {
			if _, declared := o.index[k]; !declared {
				out[k] = val
			}
		}
	case UnknownStrict:
		if keys := unknownKeys(m, o.index); len(keys) > 0 {
			iss = append(iss, issue(goform.CodeUnknown, "unknown", "", map[string]any{"keys": keys}))
		}
	}
	if len(iss) > 0 {
		return nil, iss, nil
	}
	for _, r := range o.refines {
		err := r.fn(ctx, out)
		if err == nil {
			continue
		}
		if riss, ok := goform.AsIssues(err); ok {
			for _, it := range riss {
				if it.Rule == "" {
					it.Rule = r.name
				}
				iss = append(iss, it)
			}
		} else {
			it := issue(goform.CodeCustom, "custom", err.Error(), nil)
			it.Rule = r.name
			it.Cause = err
			iss = append(iss, it)
		}
		if failFast {
			break
		}
	}
	if len(iss) > 0 {
		return nil, iss, nil
	}
	return out, nil, nil
}

func (o *ObjectSchema) JSONSchema() (*js.Schema, error) {
	s := &js.Schema{Type: "object", Properties: make(map[string]*js.Schema, len(o.fields))}
	for _, f := range o.fields {
		fs, err := f.node.JSONSchema()
		if err != nil {
			return nil, err
		}
		s.Properties[f.name] = fs
		if f.node.isRequired() {
			s.Required = append(s.Required, f.name)
		}
	}
	sort.Strings(s.Required)
	if o.unknownPolicy == UnknownStrict {
		s.AdditionalProperties = false
	}
	return o.annotate(s), nil
}

// IssueAt returns an error reporting a custom failure at the field path
// (relative to the object being refined), for use from Refine. msg may use
// {path}.
func IssueAt(path, msg string) error {
	p, err := fieldpath.Parse(path)
	if err != nil {
		p = fieldpath.Path{fieldpath.Key(path)}
	}
	return goform.Issues{{Path: p.Pointer(), Code: goform.CodeCustom, Message: msg}}
}

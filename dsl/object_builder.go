package dsl

import (
	"context"
	"fmt"
)

// UnknownPolicy decides what an object does with undeclared keys.
type UnknownPolicy int

const (
	// UnknownKeep copies undeclared keys to the output unchanged.
	UnknownKeep UnknownPolicy = iota
	// UnknownStrip drops undeclared keys.
	UnknownStrip
	// UnknownStrict reports undeclared keys as an issue.
	UnknownStrict
)

type objectField struct {
	name         string
	node         Node
	required     bool
	requiredWhen func(context.Context, map[string]any) bool
}

type objRefine struct {
	name string
	fn   func(context.Context, map[string]any) error
}

// ObjectBuilder declares an object schema field by field.
type ObjectBuilder struct {
	fields        []objectField
	index         map[string]int
	unknownPolicy UnknownPolicy
	refines       []objRefine
	required      bool
	requiredMsg   string
	err           error
}

type fieldStep struct {
	b    *ObjectBuilder
	name string
}

// Object creates a new object builder. Undeclared keys are kept by default,
// so hidden payload fields such as `_formId` pass through.
func Object() *ObjectBuilder {
	return &ObjectBuilder{index: map[string]int{}, unknownPolicy: UnknownKeep}
}

// Field registers a field. Declaring a name twice replaces the earlier
// declaration in place. Fields are checked in declaration order.
func (b *ObjectBuilder) Field(name string, n Node) *fieldStep {
	if n == nil {
		b.err = fmt.Errorf("dsl: field %q has no schema", name)
		return &fieldStep{b: b, name: name}
	}
	f := objectField{name: name, node: n}
	if i, ok := b.index[name]; ok {
		b.fields[i] = f
	} else {
		b.index[name] = len(b.fields)
		b.fields = append(b.fields, f)
	}
	return &fieldStep{b: b, name: name}
}

func (f *fieldStep) field() *objectField {
	i, ok := f.b.index[f.name]
	if !ok {
		return &objectField{}
	}
	return &f.b.fields[i]
}

// Required marks the field as required and returns the builder.
func (f *fieldStep) Required() *ObjectBuilder {
	f.field().required = true
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *ObjectBuilder {
	f.field().required = false
	return f.b
}

// RequiredWhen makes the field required whenever pred holds for the raw
// object being validated. pred may consult state outside the object.
func (f *fieldStep) RequiredWhen(pred func(ctx context.Context, obj map[string]any) bool) *ObjectBuilder {
	f.field().requiredWhen = pred
	return f.b
}

func (f *fieldStep) Field(name string, n Node) *fieldStep { return f.b.Field(name, n) }
func (f *fieldStep) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	return f.b.Refine(name, fn)
}
func (f *fieldStep) UnknownKeep() *ObjectBuilder            { return f.b.UnknownKeep() }
func (f *fieldStep) UnknownStrip() *ObjectBuilder           { return f.b.UnknownStrip() }
func (f *fieldStep) UnknownStrict() *ObjectBuilder          { return f.b.UnknownStrict() }
func (f *fieldStep) Build() (*ObjectSchema, error)          { return f.b.Build() }
func (f *fieldStep) MustBuild() *ObjectSchema               { return f.b.MustBuild() }
func (f *fieldStep) Require(names ...string) *ObjectBuilder { return f.b.Require(names...) }

// Require marks one or more fields as required.
func (b *ObjectBuilder) Require(names ...string) *ObjectBuilder {
	for _, n := range names {
		if i, ok := b.index[n]; ok {
			b.fields[i].required = true
		}
	}
	return b
}

// UnknownKeep sets unknown policy to Keep.
func (b *ObjectBuilder) UnknownKeep() *ObjectBuilder { b.unknownPolicy = UnknownKeep; return b }

// UnknownStrip sets unknown policy to Strip.
func (b *ObjectBuilder) UnknownStrip() *ObjectBuilder { b.unknownPolicy = UnknownStrip; return b }

// UnknownStrict sets unknown policy to Strict.
func (b *ObjectBuilder) UnknownStrict() *ObjectBuilder { b.unknownPolicy = UnknownStrict; return b }

// Required makes the object itself required when used as a field or
// element.
func (b *ObjectBuilder) Required(msg ...string) *ObjectBuilder {
	b.required, b.requiredMsg = true, firstMsg(msg)
	return b
}

// Refine adds an object-level check. It runs only when every field passed.
// Returning Issues reports them relative to the object (see IssueAt); any
// other error becomes a custom issue carrying its text.
func (b *ObjectBuilder) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	if fn == nil {
		return b
	}
	b.refines = append(b.refines, objRefine{name: name, fn: fn})
	return b
}

// Build validates the builder and returns a Schema.
func (b *ObjectBuilder) Build() (*ObjectSchema, error) {
	if b.err != nil {
		return nil, b.err
	}
	fields := make([]objectField, len(b.fields))
	copy(fields, b.fields)
	for i := range fields {
		if fields[i].required && !fields[i].node.isRequired() {
			fields[i].node = fields[i].node.asRequired()
		}
	}
	index := make(map[string]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	o := &ObjectSchema{
		fields:        fields,
		index:         index,
		unknownPolicy: b.unknownPolicy,
		refines:       append([]objRefine(nil), b.refines...),
	}
	o.required, o.requiredMsg = b.required, b.requiredMsg
	return o, nil
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild() *ObjectSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

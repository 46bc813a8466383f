package goform

import (
	"strings"
	"unicode"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/signal"
)

// Field is the reactive view of one slot in a scope. All views are derived
// from the owning form's cells and are recomputed only when something they
// read changes.
type Field struct {
	name string
	id   string
	rt   *signal.Runtime

	data    signal.ReadOnly[any]
	touched signal.ReadOnly[bool]
	errors  signal.ReadOnly[[]ValidationError]
	valid   signal.ReadOnly[bool]

	setData    func(any)
	setTouched func()
}

// FieldOption configures a Field.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	def any
}

// WithDefault sets the value reported while the stored value is nil or
// missing. In standalone mode it is the initial value.
func WithDefault(v any) FieldOption { return func(c *fieldConfig) { c.def = v } }

// Project derives the field view of name (a path relative to scope). A nil
// scope yields a standalone field.
func Project(scope Scope, name string, opts ...FieldOption) *Field {
	if scope == nil {
		return NewStandaloneField(name, opts...)
	}
	cfg := fieldConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	form := scope.Form()
	rt := form.Runtime()
	rel := relPath(name)
	full := scope.Path().Join(rel).String()

	f := &Field{
		name:       full,
		id:         fieldID(full),
		rt:         rt,
		setData:    func(v any) { scope.SetValue(name, v) },
		setTouched: func() { scope.SetTouched(name) },
	}
	f.data = signal.NewComputed(rt, func() any {
		v, ok := fieldpath.Get(scope.Data().Get(), rel)
		if !ok || v == nil {
			return cfg.def
		}
		return v
	})
	f.touched = signal.NewComputed(rt, func() bool {
		return form.didSubmit.Get() || scope.Touched().Get()[name]
	})
	f.errors = signal.NewComputed(rt, func() []ValidationError {
		var out []ValidationError
		for _, e := range form.errors.Get() {
			if e.Path == full {
				out = append(out, e)
			}
		}
		return out
	}, signal.WithEqual(sameErrors))
	f.valid = signal.NewComputed(rt, func() bool {
		return !f.touched.Get() || len(f.errors.Get()) == 0
	})
	return f
}

// NewStandaloneField returns a field that is not attached to any form. It
// keeps its value and touched flag in private cells, never reports errors
// and is always valid.
func NewStandaloneField(name string, opts ...FieldOption) *Field {
	cfg := fieldConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	rt := signal.NewRuntime()
	data := signal.New(rt, cfg.def)
	touched := signal.New(rt, false)
	return &Field{
		name:       name,
		id:         fieldID(name),
		rt:         rt,
		data:       data,
		touched:    touched,
		errors:     signal.NewComputed(rt, func() []ValidationError { return nil }),
		valid:      signal.NewComputed(rt, func() bool { return true }),
		setData:    data.Set,
		setTouched: func() { touched.Set(true) },
	}
}

// Name is the full path of the field from the form root.
func (f *Field) Name() string { return f.name }

// ID is the name with every character outside [A-Za-z0-9] replaced by '-'.
func (f *Field) ID() string { return f.id }

func (f *Field) Data() signal.ReadOnly[any]                 { return f.data }
func (f *Field) Touched() signal.ReadOnly[bool]             { return f.touched }
func (f *Field) Errors() signal.ReadOnly[[]ValidationError] { return f.errors }
func (f *Field) Valid() signal.ReadOnly[bool]               { return f.valid }

// Value is shorthand for Data().Get().
func (f *Field) Value() any { return f.data.Get() }

// IsTouched is shorthand for Touched().Get().
func (f *Field) IsTouched() bool { return f.touched.Get() }

// IsValid reports whether the field is untouched or has no errors.
func (f *Field) IsValid() bool { return f.valid.Get() }

// SetData writes v through the owning scope.
func (f *Field) SetData(v any) { f.setData(v) }

// SetTouched marks the field as touched in the owning scope.
func (f *Field) SetTouched() { f.setTouched() }

// Change applies a user edit: the value and the touched mark commit as one
// notification.
func (f *Field) Change(v any) {
	f.rt.Batch(func() {
		f.setData(v)
		f.setTouched()
	})
}

func fieldID(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '-'
	}, name)
}

// FieldData reads the current value of name in scope, or def when unset.
func FieldData(scope Scope, name string, def any) any {
	return Project(scope, name, WithDefault(def)).Value()
}

// FieldTouched reports whether name in scope is touched.
func FieldTouched(scope Scope, name string) bool {
	return Project(scope, name).IsTouched()
}

// FieldErrors returns the errors reported for name in scope.
func FieldErrors(scope Scope, name string) []ValidationError {
	return Project(scope, name).Errors().Get()
}

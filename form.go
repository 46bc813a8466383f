package goform

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/ident"
	"github.com/reoring/goform/signal"
)

// FormIDField is the payload key carrying the id of the form that produced
// a submission.
const FormIDField = "_formId"

// Form is the root scope. It owns the data tree, the root touched set, the
// error list and the submission flag. A Form is not safe for concurrent use.
type Form struct {
	id     string
	ctx    context.Context
	logger *zap.Logger
	schema Schema

	rt        *signal.Runtime
	data      *signal.Signal[map[string]any]
	touched   *signal.Signal[map[string]bool]
	errors    *signal.Signal[[]ValidationError]
	didSubmit *signal.Signal[bool]
	result    *signal.Signal[*Result]

	// schemaChanged is set by SetSchema until the next published result.
	schemaChanged bool

	// err holds the last systemic validator failure.
	err error
}

// FormOption configures a Form.
type FormOption func(*formConfig)

type formConfig struct {
	id        string
	ctx       context.Context
	logger    *zap.Logger
	schema    Schema
	data      map[string]any
	errors    []ValidationError
	submitted bool
}

// WithSchema sets the schema run by Validate and Submit.
func WithSchema(s Schema) FormOption { return func(c *formConfig) { c.schema = s } }

// WithDefaultData sets the initial data tree.
func WithDefaultData(data map[string]any) FormOption {
	return func(c *formConfig) { c.data = data }
}

// WithSubmitted restores a form from a previous submission: data and errors
// are taken as given and the form starts in the submitted state.
func WithSubmitted(data map[string]any, errs []ValidationError) FormOption {
	return func(c *formConfig) {
		c.data = data
		c.errors = errs
		c.submitted = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) FormOption { return func(c *formConfig) { c.logger = l } }

// WithID overrides the generated form id.
func WithID(id string) FormOption { return func(c *formConfig) { c.id = id } }

// WithContext sets the context used by validations triggered through
// SetValue.
func WithContext(ctx context.Context) FormOption { return func(c *formConfig) { c.ctx = ctx } }

// NewForm creates a root scope.
func NewForm(opts ...FormOption) *Form {
	cfg := formConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.id == "" {
		cfg.id = "form-" + uuid.NewString()
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	cfg.data = normalizeTree(cfg.data)
	if cfg.errors == nil {
		cfg.errors = []ValidationError{}
	}
	rt := signal.NewRuntime()
	return &Form{
		id:        cfg.id,
		ctx:       cfg.ctx,
		logger:    cfg.logger.With(zap.String("form", cfg.id)),
		schema:    cfg.schema,
		rt:        rt,
		data:      signal.New(rt, cfg.data),
		touched:   signal.New(rt, map[string]bool{}),
		errors:    signal.New(rt, cfg.errors, signal.WithEqual(sameErrors)),
		didSubmit: signal.New(rt, cfg.submitted),
		result:    signal.New[*Result](rt, nil),
	}
}

func sameErrors(a, b []ValidationError) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ID returns the form id, also submitted as FormIDField.
func (f *Form) ID() string { return f.id }

// Runtime returns the reactive runtime shared by every view of this form.
func (f *Form) Runtime() *signal.Runtime { return f.rt }

// Logger returns the form's logger.
func (f *Form) Logger() *zap.Logger { return f.logger }

// Schema returns the current schema, which may be nil.
func (f *Form) Schema() Schema { return f.schema }

// Path returns the root path.
func (f *Form) Path() fieldpath.Path { return nil }

// Form returns f.
func (f *Form) Form() *Form { return f }

// Data returns the data tree.
func (f *Form) Data() signal.ReadOnly[map[string]any] { return f.data }

// Touched returns the root touched set.
func (f *Form) Touched() signal.ReadOnly[map[string]bool] { return f.touched }

// Errors returns the current error list.
func (f *Form) Errors() signal.ReadOnly[[]ValidationError] { return f.errors }

// DidSubmit reports whether a submission was attempted.
func (f *Form) DidSubmit() signal.ReadOnly[bool] { return f.didSubmit }

// Result returns the last validation result, or nil after SetErrors.
func (f *Form) Result() signal.ReadOnly[*Result] { return f.result }

// Err returns the last systemic validator failure, if any.
func (f *Form) Err() error { return f.err }

// SetValue writes v at name (a path relative to the root) and revalidates.
func (f *Form) SetValue(name string, v any) {
	p := relPath(name)
	if len(p) == 0 {
		return
	}
	f.rt.Batch(func() {
		f.data.Set(setTree(f.data.Peek(), p, v))
		f.revalidate()
	})
}

// Reset replaces the whole data tree and revalidates. Touched state and the
// submission flag are kept.
func (f *Form) Reset(data map[string]any) {
	f.rt.Batch(func() {
		f.data.Set(normalizeTree(data))
		f.revalidate()
	})
}

// SetTouched marks name as touched in the root touched set.
func (f *Form) SetTouched(name string) { markTouched(f.touched, name) }

// SetErrors replaces the error list, typically with errors returned by a
// server, and clears the result.
func (f *Form) SetErrors(errs []ValidationError) {
	if errs == nil {
		errs = []ValidationError{}
	}
	f.rt.Batch(func() {
		f.errors.Set(errs)
		f.result.Set(nil)
	})
}

// SetSchema swaps the schema and revalidates the current data.
func (f *Form) SetSchema(s Schema) {
	f.schema = s
	f.schemaChanged = true
	f.revalidate()
}

// Validate runs the schema against the current data. The error list is
// replaced wholesale: emptied on success, set to the failures otherwise.
func (f *Form) Validate(ctx context.Context) (Result, error) {
	res, err := Validate(ctx, f.schema, f.data.Peek())
	if err != nil {
		f.err = err
		f.logger.Error("validator failed", zap.Error(err))
		return Result{}, err
	}
	f.err = nil
	f.rt.Batch(func() {
		if res.OK {
			f.errors.Set([]ValidationError{})
		} else {
			f.errors.Set(res.Errors)
		}
		if !f.sameResult(res) {
			f.result.Set(&res)
		}
		f.schemaChanged = false
	})
	return res, nil
}

// sameResult reports whether res repeats the stored result: same schema,
// same input tree and same outcome.
func (f *Form) sameResult(res Result) bool {
	prev := f.result.Peek()
	return prev != nil &&
		prev.OK == res.OK &&
		ident.Same(prev.Input, res.Input) &&
		!f.schemaChanged &&
		sameErrors(prev.Errors, res.Errors)
}

// Submit marks the form as submitted and validates it. A result that is not
// OK means the submission must be cancelled.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	var (
		res Result
		err error
	)
	f.rt.Batch(func() {
		f.didSubmit.Set(true)
		res, err = f.Validate(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	if !res.OK {
		f.logger.Warn("validation failed", zap.Any("errors", res.Errors))
	}
	return res, nil
}

// HiddenFields returns the fields a rendered form should submit alongside
// its inputs.
func (f *Form) HiddenFields() map[string]string {
	return map[string]string{FormIDField: f.id}
}

// IsSubmitting reports whether payload was produced by this form.
func (f *Form) IsSubmitting(payload map[string]any) bool {
	id, _ := payload[FormIDField].(string)
	return id != "" && id == f.id
}

func (f *Form) revalidate() {
	_, _ = f.Validate(f.ctx)
}

// relPath reads name as a relative path. A name that does not parse is used
// as a single key.
func relPath(name string) fieldpath.Path {
	if name == "" {
		return nil
	}
	p, err := fieldpath.Parse(name)
	if err != nil {
		return fieldpath.Path{fieldpath.Key(name)}
	}
	return p
}

// normalizeTree brings a caller-supplied tree into data-tree shape, so
// typed containers such as []map[string]any read as rows.
func normalizeTree(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	m, _ := fieldpath.Normalize(data).(map[string]any)
	return m
}

func setTree(tree map[string]any, p fieldpath.Path, v any) map[string]any {
	if m, ok := fieldpath.Set(tree, p, fieldpath.Normalize(v)).(map[string]any); ok {
		return m
	}
	return tree
}

func markTouched(s *signal.Signal[map[string]bool], name string) {
	cur := s.Peek()
	if cur[name] {
		return
	}
	next := make(map[string]bool, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[name] = true
	s.Set(next)
}

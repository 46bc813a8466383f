package goform

import (
	"context"

	js "github.com/reoring/goform/jsonschema"
)

// Schema validates a data tree. Parse returns the normalized output on
// success. A failure with per-field detail must be reported as Issues (or an
// error wrapping Issues); any other error is treated as systemic.
type Schema interface {
	Parse(ctx context.Context, v any) (any, error)
}

// JSONSchemaProvider is implemented by schemas that can project themselves
// into a JSON Schema representation.
type JSONSchemaProvider interface {
	JSONSchema() (*js.Schema, error)
}

// SchemaFunc adapts a function into a Schema.
type SchemaFunc func(ctx context.Context, v any) (any, error)

// Parse calls f(ctx, v).
func (f SchemaFunc) Parse(ctx context.Context, v any) (any, error) { return f(ctx, v) }

// ---- Parse-time context options (exported for subpackages) ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that marks fail-fast parsing behavior.
// The validation bridge always clears it so that every failure is collected.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current parse should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

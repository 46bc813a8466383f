package goform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/goform/fieldpath"
)

// Issue codes reported by schemas. They double as the `type` of a
// ValidationError.
const (
	CodeRequired  = "required"
	CodeOneOf     = "oneOf"
	CodeMin       = "min"
	CodeMax       = "max"
	CodeTypeError = "typeError"
	CodeMatches   = "matches"
	CodeEmail     = "email"
	CodeInteger   = "integer"
	CodeUnknown   = "unknown"
	CodeCustom    = "custom"
)

// Issue represents a single validation entry produced by a schema.
type Issue struct {
	Path    string // JSON Pointer (for example: /authors/0/firstName).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10}) used to
	// render messages.
	Params map[string]any
	// Rule optionally records the rule name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at /title
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ValidationError is the wire shape of one failure, addressed by a dotted
// field path such as `authors[0].firstName`.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ToValidationErrors converts schema issues into field-addressed errors,
// preserving order.
func ToValidationErrors(iss Issues) []ValidationError {
	out := make([]ValidationError, 0, len(iss))
	for _, it := range iss {
		out = append(out, ValidationError{
			Path:    fieldpath.FromPointer(it.Path).String(),
			Message: it.Message,
			Type:    it.Code,
		})
	}
	return out
}

// ErrContextMissing is returned (or panicked with) when a scoped accessor is
// used without an enclosing scope.
var ErrContextMissing = errors.New("goform: no enclosing form scope")

func contextMissing(accessor string) error {
	return fmt.Errorf("%s: %w", accessor, ErrContextMissing)
}

// SystemicError wraps a validator failure that carries no per-field issues.
// It indicates a schema or programming defect rather than bad input.
type SystemicError struct {
	Err error
}

func (e *SystemicError) Error() string { return "goform: validator failed: " + e.Err.Error() }

func (e *SystemicError) Unwrap() error { return e.Err }

// InvalidError is returned by ValidateOrError when the input fails
// validation.
type InvalidError struct {
	Input  map[string]any
	Errors []ValidationError
}

func (e *InvalidError) Error() string {
	if len(e.Errors) == 0 {
		return "goform: validation failed"
	}
	first := e.Errors[0]
	if len(e.Errors) == 1 {
		return fmt.Sprintf("goform: validation failed: %s: %s", first.Path, first.Message)
	}
	return fmt.Sprintf("goform: validation failed: %s: %s (and %d more)", first.Path, first.Message, len(e.Errors)-1)
}

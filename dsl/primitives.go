package dsl

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	goform "github.com/reoring/goform"
	js "github.com/reoring/goform/jsonschema"
)

// ---- string ----

// StringNode validates strings. Numbers and booleans are converted to their
// string form.
type StringNode struct {
	base
	minLen, maxLen int
	minMsg, maxMsg string
	pattern        *regexp.Regexp
	patternMsg     string
	email          bool
	emailMsg       string
	oneOf          []any
	oneOfMsg       string
	trim           bool
}

// String returns a string schema. The empty string is a present value that
// Required rejects.
func String() *StringNode { return &StringNode{minLen: -1, maxLen: -1} }

// Required rejects missing values and the empty string. An optional message
// template may use {path}.
func (s *StringNode) Required(msg ...string) *StringNode {
	s.required, s.requiredMsg = true, firstMsg(msg)
	return s
}

// Min sets the minimum length in characters.
func (s *StringNode) Min(n int, msg ...string) *StringNode {
	s.minLen, s.minMsg = n, firstMsg(msg)
	return s
}

// Max sets the maximum length in characters.
func (s *StringNode) Max(n int, msg ...string) *StringNode {
	s.maxLen, s.maxMsg = n, firstMsg(msg)
	return s
}

// Matches requires the value to match re. Empty strings are not tested.
func (s *StringNode) Matches(re *regexp.Regexp, msg ...string) *StringNode {
	s.pattern, s.patternMsg = re, firstMsg(msg)
	return s
}

// Email requires a single RFC 5322 address. Empty strings are not tested.
func (s *StringNode) Email(msg ...string) *StringNode {
	s.email, s.emailMsg = true, firstMsg(msg)
	return s
}

// OneOf restricts the value to the given options.
func (s *StringNode) OneOf(values []string, msg ...string) *StringNode {
	s.oneOf = make([]any, len(values))
	for i, v := range values {
		s.oneOf[i] = v
	}
	s.oneOfMsg = firstMsg(msg)
	return s
}

// Trim removes surrounding whitespace before validation.
func (s *StringNode) Trim() *StringNode { s.trim = true; return s }

// Default is used when the value is missing.
func (s *StringNode) Default(v string) *StringNode {
	s.def, s.hasDef = v, true
	return s
}

// Describe sets the exported JSON Schema description.
func (s *StringNode) Describe(d string) *StringNode { s.description = d; return s }

func (s *StringNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, s, v) }

func (s *StringNode) asRequired() Node {
	c := *s
	c.required = true
	return &c
}

func (s *StringNode) check(_ context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := s.prepare(v)
	if missing {
		return nil, iss, nil
	}
	str, ok := asString(v)
	if !ok {
		return nil, goform.Issues{issue(goform.CodeTypeError, "typeError", "", map[string]any{"type": "string"})}, nil
	}
	if s.trim {
		str = strings.TrimSpace(str)
	}
	if str == "" && s.required {
		return nil, goform.Issues{issue(goform.CodeRequired, "required", s.requiredMsg, nil)}, nil
	}
	n := len([]rune(str))
	if s.minLen >= 0 && n < s.minLen {
		iss = append(iss, issue(goform.CodeMin, "string.min", s.minMsg, map[string]any{"min": s.minLen}))
	}
	if s.maxLen >= 0 && n > s.maxLen {
		iss = append(iss, issue(goform.CodeMax, "string.max", s.maxMsg, map[string]any{"max": s.maxLen}))
	}
	if s.pattern != nil && str != "" && !s.pattern.MatchString(str) {
		iss = append(iss, issue(goform.CodeMatches, "matches", s.patternMsg, map[string]any{"regex": s.pattern.String()}))
	}
	if s.email && str != "" && !isEmail(str) {
		iss = append(iss, issue(goform.CodeEmail, "email", s.emailMsg, nil))
	}
	if s.oneOf != nil && !oneOfCheck(str, s.oneOf) {
		iss = append(iss, issue(goform.CodeOneOf, "oneOf", s.oneOfMsg, map[string]any{"values": s.oneOf}))
	}
	if len(iss) > 0 {
		return nil, iss, nil
	}
	return str, nil, nil
}

func (s *StringNode) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "string", Enum: s.oneOf}
	if s.minLen >= 0 {
		out.MinLength = js.Int(s.minLen)
	}
	if s.maxLen >= 0 {
		out.MaxLength = js.Int(s.maxLen)
	}
	if s.pattern != nil {
		out.Pattern = s.pattern.String()
	}
	if s.email {
		out.Format = "email"
	}
	return s.annotate(out), nil
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int, int64, bool:
		return fmt.Sprint(t), true
	}
	return "", false
}

func isEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

// ---- number ----

// NumberNode validates numbers. Numeric strings are converted.
type NumberNode struct {
	base
	min, max       *float64
	minMsg, maxMsg string
	integer        bool
	integerMsg     string
	oneOf          []any
	oneOfMsg       string
}

// Number returns a number schema. Values are normalized to float64.
func Number() *NumberNode { return &NumberNode{} }

// Required rejects missing values.
func (n *NumberNode) Required(msg ...string) *NumberNode {
	n.required, n.requiredMsg = true, firstMsg(msg)
	return n
}

// Min sets the inclusive minimum.
func (n *NumberNode) Min(v float64, msg ...string) *NumberNode {
	n.min, n.minMsg = &v, firstMsg(msg)
	return n
}

// Max sets the inclusive maximum.
func (n *NumberNode) Max(v float64, msg ...string) *NumberNode {
	n.max, n.maxMsg = &v, firstMsg(msg)
	return n
}

// Integer rejects values with a fractional part.
func (n *NumberNode) Integer(msg ...string) *NumberNode {
	n.integer, n.integerMsg = true, firstMsg(msg)
	return n
}

// OneOf restricts the value to the given options.
func (n *NumberNode) OneOf(values []float64, msg ...string) *NumberNode {
	n.oneOf = make([]any, len(values))
	for i, v := range values {
		n.oneOf[i] = v
	}
	n.oneOfMsg = firstMsg(msg)
	return n
}

// Default is used when the value is missing.
func (n *NumberNode) Default(v float64) *NumberNode {
	n.def, n.hasDef = v, true
	return n
}

// Describe sets the exported JSON Schema description.
func (n *NumberNode) Describe(d string) *NumberNode { n.description = d; return n }

func (n *NumberNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, n, v) }

func (n *NumberNode) asRequired() Node {
	c := *n
	c.required = true
	return &c
}

func (n *NumberNode) check(_ context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := n.prepare(v)
	if missing {
		return nil, iss, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, goform.Issues{issue(goform.CodeTypeError, "typeError", "", map[string]any{"type": "number"})}, nil
	}
	if n.min != nil && f < *n.min {
		iss = append(iss, issue(goform.CodeMin, "number.min", n.minMsg, map[string]any{"min": *n.min}))
	}
	if n.max != nil && f > *n.max {
		iss = append(iss, issue(goform.CodeMax, "number.max", n.maxMsg, map[string]any{"max": *n.max}))
	}
	if n.integer && f != math.Trunc(f) {
		iss = append(iss, issue(goform.CodeInteger, "integer", n.integerMsg, nil))
	}
	if n.oneOf != nil && !oneOfCheck(f, n.oneOf) {
		iss = append(iss, issue(goform.CodeOneOf, "oneOf", n.oneOfMsg, map[string]any{"values": n.oneOf}))
	}
	if len(iss) > 0 {
		return nil, iss, nil
	}
	return f, nil, nil
}

func (n *NumberNode) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "number", Minimum: n.min, Maximum: n.max, Enum: n.oneOf}
	if n.integer {
		out.Type = "integer"
	}
	return n.annotate(out), nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// ---- bool ----

// BoolNode validates booleans. The strings "true" and "false" are converted.
type BoolNode struct {
	base
}

// Bool returns a boolean schema.
func Bool() *BoolNode { return &BoolNode{} }

// Required rejects missing values.
func (b *BoolNode) Required(msg ...string) *BoolNode {
	b.required, b.requiredMsg = true, firstMsg(msg)
	return b
}

// Default is used when the value is missing.
func (b *BoolNode) Default(v bool) *BoolNode {
	b.def, b.hasDef = v, true
	return b
}

func (b *BoolNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, b, v) }

func (b *BoolNode) asRequired() Node {
	c := *b
	c.required = true
	return &c
}

func (b *BoolNode) check(_ context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := b.prepare(v)
	if missing {
		return nil, iss, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil, nil
	case string:
		if t == "true" || t == "false" {
			return t == "true", nil, nil
		}
	}
	return nil, goform.Issues{issue(goform.CodeTypeError, "typeError", "", map[string]any{"type": "boolean"})}, nil
}

func (b *BoolNode) JSONSchema() (*js.Schema, error) {
	return b.annotate(&js.Schema{Type: "boolean"}), nil
}

// ---- enum ----

// EnumNode accepts any scalar equal to one of a fixed set of values.
type EnumNode struct {
	base
	values []any
	msg    string
}

// Enum returns a schema accepting exactly the given values. Numbers compare
// by value regardless of their Go type.
func Enum(values ...any) *EnumNode { return &EnumNode{values: values} }

// Required rejects missing values.
func (e *EnumNode) Required(msg ...string) *EnumNode {
	e.required, e.requiredMsg = true, firstMsg(msg)
	return e
}

// Message overrides the oneOf message template.
func (e *EnumNode) Message(msg string) *EnumNode { e.msg = msg; return e }

func (e *EnumNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, e, v) }

func (e *EnumNode) asRequired() Node {
	c := *e
	c.required = true
	return &c
}

func (e *EnumNode) check(_ context.Context, v any) (any, goform.Issues, error) {
	v, missing, iss := e.prepare(v)
	if missing {
		return nil, iss, nil
	}
	if !oneOfCheck(v, e.values) {
		return nil, goform.Issues{issue(goform.CodeOneOf, "oneOf", e.msg, map[string]any{"values": e.values})}, nil
	}
	return v, nil, nil
}

func (e *EnumNode) JSONSchema() (*js.Schema, error) {
	return e.annotate(&js.Schema{Enum: e.values}), nil
}

package dsl

import (
	"context"
	"strings"

	goform "github.com/reoring/goform"
	js "github.com/reoring/goform/jsonschema"
)

// The helpers below model values the way browsers submit them: every input
// arrives as a string and an empty input means "no value".

func emptyAsMissing(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// TextField is a string field that treats "" as missing.
func TextField() *StringNode {
	s := String()
	s.pre = emptyAsMissing
	return s
}

// NumberField is a number field that parses numeric strings and treats ""
// as missing.
func NumberField() *NumberNode {
	n := Number()
	n.pre = func(v any) any {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
		return v
	}
	return n
}

// Select is a TextField restricted to options.
func Select(options ...string) *StringNode { return TextField().OneOf(options) }

// RadioButton is a TextField restricted to options.
func RadioButton(options ...string) *StringNode { return TextField().OneOf(options) }

// CheckBoxNode is a boolean that is never missing: unchecked boxes are not
// submitted at all, so absence means false.
type CheckBoxNode struct {
	base
}

// CheckBox returns a checkbox schema. It yields true when the value, or any
// element of a repeated value, is true, "true" or "on".
func CheckBox() *CheckBoxNode { return &CheckBoxNode{} }

func (c *CheckBoxNode) Parse(ctx context.Context, v any) (any, error) { return run(ctx, c, v) }

// asRequired is a no-op: a checkbox always has a value.
func (c *CheckBoxNode) asRequired() Node { return c }

func (c *CheckBoxNode) check(_ context.Context, v any) (any, goform.Issues, error) {
	if l, ok := v.([]any); ok {
		for _, e := range l {
			if checked(e) {
				return true, nil, nil
			}
		}
		return false, nil, nil
	}
	return checked(v), nil, nil
}

func checked(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "on" || t == "true"
	}
	return false
}

func (c *CheckBoxNode) JSONSchema() (*js.Schema, error) {
	return c.annotate(&js.Schema{Type: "boolean"}), nil
}

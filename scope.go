package goform

import (
	"fmt"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/ident"
	"github.com/reoring/goform/signal"
)

// Scope is a view rooted somewhere in a form's data tree. Writes made
// through a scope are rewritten into a write on its parent's own child key
// and forwarded until they reach the Form.
type Scope interface {
	// Path is the scope's location relative to the form root.
	Path() fieldpath.Path
	// Data is the subtree the scope is rooted at.
	Data() signal.ReadOnly[map[string]any]
	// Touched is the scope-local touched set.
	Touched() signal.ReadOnly[map[string]bool]
	// SetValue writes v at name, relative to the scope.
	SetValue(name string, v any)
	// SetTouched marks name in the scope-local touched set.
	SetTouched(name string)
	// Form returns the root scope.
	Form() *Form
}

var (
	_ Scope = (*Form)(nil)
	_ Scope = (*NestedScope)(nil)
	_ Scope = (*RowScope)(nil)
)

// emptyTree is returned for subtrees that are missing or not objects. It is
// never written to; writes always copy.
var emptyTree = map[string]any{}

func subtree(v any, ok bool) map[string]any {
	if m, isMap := v.(map[string]any); ok && isMap && m != nil {
		return m
	}
	return emptyTree
}

// NestedScope is an object scope for the subtree at a key of its parent.
type NestedScope struct {
	parent  Scope
	name    string
	rel     fieldpath.Path
	path    fieldpath.Path
	data    *signal.Computed[map[string]any]
	touched *signal.Signal[map[string]bool]
}

// Nested creates an object scope at name below parent.
func Nested(parent Scope, name string) (*NestedScope, error) {
	if parent == nil {
		return nil, contextMissing("goform.Nested")
	}
	rel, err := fieldpath.Parse(name)
	if err != nil {
		return nil, err
	}
	if len(rel) == 0 {
		return nil, fmt.Errorf("goform.Nested: %w: empty name", fieldpath.ErrSyntax)
	}
	rt := parent.Form().Runtime()
	n := &NestedScope{
		parent:  parent,
		name:    name,
		rel:     rel,
		path:    parent.Path().Join(rel),
		touched: signal.New(rt, map[string]bool{}),
	}
	n.data = signal.NewComputed(rt, func() map[string]any {
		return subtree(fieldpath.Get(parent.Data().Get(), rel))
	})
	return n, nil
}

// MustNested is like Nested but panics on error.
func MustNested(parent Scope, name string) *NestedScope {
	n, err := Nested(parent, name)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *NestedScope) Path() fieldpath.Path                      { return n.path }
func (n *NestedScope) Data() signal.ReadOnly[map[string]any]     { return n.data }
func (n *NestedScope) Touched() signal.ReadOnly[map[string]bool] { return n.touched }
func (n *NestedScope) Form() *Form                               { return n.parent.Form() }
func (n *NestedScope) SetTouched(name string)                    { markTouched(n.touched, name) }

// SetValue writes the updated subtree back to the parent under the scope's
// key.
func (n *NestedScope) SetValue(name string, v any) {
	p := relPath(name)
	if len(p) == 0 {
		return
	}
	cur := n.data.Peek()
	next := setTree(cur, p, v)
	if ident.Same(next, cur) {
		n.Form().revalidate()
		return
	}
	n.parent.SetValue(n.name, next)
}

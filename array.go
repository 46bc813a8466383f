package goform

import (
	"fmt"
	"strconv"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/ident"
	"github.com/reoring/goform/signal"
)

// RowIDField is the row key used for stable row identity.
const RowIDField = "id"

// ArrayField is the view of a list-valued field. Every mutation replaces the
// stored slice wholesale.
type ArrayField struct {
	*Field

	scope Scope
	name  string
	rel   fieldpath.Path
	items *signal.Computed[[]any]
	keys  *signal.Computed[[]string]

	// rows caches row scopes by position.
	rows []*RowScope
}

// ProjectArray derives the array view of name in scope.
func ProjectArray(scope Scope, name string, opts ...FieldOption) (*ArrayField, error) {
	if scope == nil {
		return nil, contextMissing("goform.ProjectArray")
	}
	a := &ArrayField{
		Field: Project(scope, name, opts...),
		scope: scope,
		name:  name,
		rel:   relPath(name),
	}
	rt := scope.Form().Runtime()
	a.items = signal.NewComputed(rt, func() []any {
		l, _ := a.Field.Data().Get().([]any)
		return l
	})
	a.keys = signal.NewComputed(rt, func() []string {
		return rowKeys(a.items.Get())
	})
	return a, nil
}

// MustArray is like ProjectArray but panics on error.
func MustArray(scope Scope, name string, opts ...FieldOption) *ArrayField {
	a, err := ProjectArray(scope, name, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// rowKeys keys each row by its id field when it has one, by position
// otherwise. Duplicates are disambiguated with the position.
func rowKeys(items []any) []string {
	keys := make([]string, len(items))
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		k := strconv.Itoa(i)
		if m, ok := it.(map[string]any); ok {
			switch id := m[RowIDField].(type) {
			case string:
				if id != "" {
					k = id
				}
			case float64, int, int64, fmt.Stringer:
				k = fmt.Sprint(id)
			}
		}
		if seen[k] {
			k = k + "#" + strconv.Itoa(i)
		}
		seen[k] = true
		keys[i] = k
	}
	return keys
}

// Items returns the current rows.
func (a *ArrayField) Items() signal.ReadOnly[[]any] { return a.items }

// Keys returns one identity key per row.
func (a *ArrayField) Keys() signal.ReadOnly[[]string] { return a.keys }

// Len returns the number of rows.
func (a *ArrayField) Len() int { return len(a.items.Get()) }

func (a *ArrayField) snapshot() []any {
	cur := a.items.Peek()
	out := make([]any, len(cur), len(cur)+1)
	copy(out, cur)
	return out
}

func (a *ArrayField) store(list []any) {
	a.scope.SetValue(a.name, list)
}

// dropRows discards cached row scopes from position i on.
func (a *ArrayField) dropRows(i int) {
	if i < len(a.rows) {
		a.rows = a.rows[:i]
	}
}

// Push appends v.
func (a *ArrayField) Push(v any) {
	a.store(append(a.snapshot(), v))
}

// InsertAt inserts v before position i. i is clamped to [0, Len()].
func (a *ArrayField) InsertAt(i int, v any) {
	list := a.snapshot()
	if i < 0 {
		i = 0
	}
	if i > len(list) {
		i = len(list)
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = v
	a.dropRows(i)
	a.store(list)
}

// UpdateAt replaces row i with fn(current). fn receives nil for a missing
// row; the list is padded with nil up to i. Padding past
// fieldpath.MaxIndex is ignored.
func (a *ArrayField) UpdateAt(i int, fn func(any) any) {
	list := a.snapshot()
	if i < 0 || i >= len(list) && i > fieldpath.MaxIndex {
		return
	}
	for len(list) <= i {
		list = append(list, nil)
	}
	list[i] = fn(list[i])
	a.store(list)
}

// RemoveAt removes row i. Later rows shift down by one and their row scopes
// are recreated. Out-of-range indexes are ignored.
func (a *ArrayField) RemoveAt(i int) {
	cur := a.items.Peek()
	if i < 0 || i >= len(cur) {
		return
	}
	list, _ := fieldpath.Delete(cur, fieldpath.Path{fieldpath.Idx(i)}).([]any)
	a.dropRows(i)
	a.store(list)
}

// Move moves row from to position to. Out-of-range indexes are ignored.
func (a *ArrayField) Move(from, to int) {
	list := a.snapshot()
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) || from == to {
		return
	}
	v := list[from]
	if from < to {
		copy(list[from:to], list[from+1:to+1])
	} else {
		copy(list[to+1:from+1], list[to:from])
	}
	list[to] = v
	a.dropRows(min(from, to))
	a.store(list)
}

// Row returns the scope of row i. Row scopes are cached by position until a
// mutation shifts that position. A negative i yields a detached row that
// reads as empty and ignores writes. Rows past
// fieldpath.MaxIndex are not cached.
func (a *ArrayField) Row(i int) *RowScope {
	if i < 0 || i > fieldpath.MaxIndex {
		return newRowScope(a, i)
	}
	for len(a.rows) <= i {
		a.rows = append(a.rows, nil)
	}
	if r := a.rows[i]; r != nil {
		return r
	}
	r := newRowScope(a, i)
	a.rows[i] = r
	return r
}

// RowScope is the scope of one array row.
type RowScope struct {
	array   *ArrayField
	index   int
	path    fieldpath.Path
	data    *signal.Computed[map[string]any]
	touched *signal.Signal[map[string]bool]
}

func newRowScope(a *ArrayField, i int) *RowScope {
	rt := a.scope.Form().Runtime()
	r := &RowScope{
		array:   a,
		index:   i,
		path:    a.scope.Path().Join(a.rel).Index(i),
		touched: signal.New(rt, map[string]bool{}),
	}
	r.data = signal.NewComputed(rt, func() map[string]any {
		items := a.items.Get()
		if i < 0 || i >= len(items) {
			return emptyTree
		}
		return subtree(items[i], true)
	})
	return r
}

func (r *RowScope) Path() fieldpath.Path                      { return r.path }
func (r *RowScope) Data() signal.ReadOnly[map[string]any]     { return r.data }
func (r *RowScope) Touched() signal.ReadOnly[map[string]bool] { return r.touched }
func (r *RowScope) Form() *Form                               { return r.array.scope.Form() }
func (r *RowScope) SetTouched(name string)                    { markTouched(r.touched, name) }

// Index is the row position.
func (r *RowScope) Index() int { return r.index }

// Length is the current length of the enclosing array.
func (r *RowScope) Length() int { return r.array.Len() }

// Remove removes this row from the enclosing array.
func (r *RowScope) Remove() { r.array.RemoveAt(r.index) }

// SetValue writes v at name inside the row, creating the row object when it
// is missing, and stores the updated array in the parent.
func (r *RowScope) SetValue(name string, v any) {
	p := relPath(name)
	if len(p) == 0 {
		return
	}
	if r.index < 0 || r.index > fieldpath.MaxIndex && r.index >= r.array.Len() {
		return
	}
	cur := r.data.Peek()
	next := setTree(cur, p, v)
	if ident.Same(next, cur) {
		r.Form().revalidate()
		return
	}
	list := r.array.snapshot()
	for len(list) <= r.index {
		list = append(list, nil)
	}
	list[r.index] = next
	r.array.store(list)
}

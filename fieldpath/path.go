// Package fieldpath addresses locations inside a form data tree.
//
// A data tree is built from map[string]any objects, []any sequences and
// scalar leaves. Paths are serialized as `a.b[0].c`; Get never fails on
// missing data and Set performs copy-on-write on the ancestor chain only, so
// every subtree outside the written path keeps its identity.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned by Parse for malformed paths.
var ErrSyntax = errors.New("fieldpath: invalid path")

// Segment is a single path step: an object key or a sequence index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Key returns a name segment.
func Key(name string) Segment { return Segment{Name: name} }

// Idx returns an index segment.
func Idx(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Path is an ordered list of segments. The zero value addresses the root.
type Path []Segment

// Field returns a copy of p extended with a name segment.
func (p Path) Field(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Key(name))
}

// Index returns a copy of p extended with an index segment.
func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Idx(i))
}

// Join returns a copy of p followed by q.
func (p Path) Join(q Path) Path {
	out := make(Path, 0, len(p)+len(q))
	out = append(out, p...)
	return append(out, q...)
}

// Equal reports whether p and q address the same location.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// String renders p as `a.b[0].c`. The root path renders as "".
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// Pointer renders p as an RFC 6901 JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.Name, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// FromPointer converts a JSON Pointer into a Path. Tokens made of digits
// become index segments.
func FromPointer(ptr string) Path {
	if ptr == "" || ptr == "/" {
		return nil
	}
	var p Path
	for _, tok := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		if i, ok := parseIndex(tok); ok {
			p = append(p, Idx(i))
			continue
		}
		p = append(p, Key(tok))
	}
	return p
}

// Parse reads the `name`, `name.sub`, `name[3]`, `name[3].sub` grammar.
// Dotted segments made only of digits are read as indexes.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, nil
	}
	var p Path
	i := 0
	expectName := true
	for i < len(s) {
		switch s[i] {
		case '.':
			if expectName {
				return nil, fmt.Errorf("%w: empty segment at offset %d in %q", ErrSyntax, i, s)
			}
			expectName = true
			i++
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrSyntax, s)
			}
			inner := s[i+1 : i+end]
			if idx, ok := parseIndex(inner); ok {
				p = append(p, Idx(idx))
			} else if inner != "" {
				p = append(p, Key(inner))
			}
			// "name[]" addresses the sequence itself
			i += end + 1
			expectName = false
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' at offset %d in %q", ErrSyntax, i, s)
		default:
			if !expectName {
				return nil, fmt.Errorf("%w: missing separator at offset %d in %q", ErrSyntax, i, s)
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' && s[j] != ']' {
				j++
			}
			name := s[i:j]
			if idx, ok := parseIndex(name); ok {
				p = append(p, Idx(idx))
			} else {
				p = append(p, Key(name))
			}
			i = j
			expectName = false
		}
	}
	if expectName {
		return nil, fmt.Errorf("%w: trailing separator in %q", ErrSyntax, s)
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseIndex(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Package formdata converts between flat submitted form payloads and nested
// data trees.
//
// Keys follow the address grammar `name`, `name.sub`, `name[index]` and
// `name[index].sub`. A key submitted more than once (a multi-select, a group
// of checkboxes) is coalesced into a sequence in encounter order.
package formdata

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/goform/fieldpath"
)

// MaxIndex bounds sequence indexes accepted from a payload so that a single
// key cannot force a huge allocation. It is the same bound tree writes use.
const MaxIndex = fieldpath.MaxIndex

// defaultMaxMemory mirrors net/http's default for multipart bodies.
const defaultMaxMemory = 32 << 20

// ErrIndexLimit is returned when a key carries an index above MaxIndex.
var ErrIndexLimit = errors.New("formdata: index exceeds limit")

// Pair is one submitted key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs flattens url.Values into pairs, sorted by key with per-key values
// kept in submission order.
func Pairs(values url.Values) []Pair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []Pair
	for _, k := range keys {
		for _, v := range values[k] {
			out = append(out, Pair{Key: k, Value: v})
		}
	}
	return out
}

// Parse expands url.Values into a nested data tree.
func Parse(values url.Values) (map[string]any, error) {
	return ParsePairs(Pairs(values))
}

// ParsePairs expands ordered pairs into a nested data tree.
func ParsePairs(pairs []Pair) (map[string]any, error) {
	var root any = map[string]any{}
	for _, p := range pairs {
		segs, err := splitKey(p.Key)
		if err != nil {
			return nil, err
		}
		if len(segs) == 0 {
			continue
		}
		root = insert(root, segs, p.Value)
	}
	m, _ := root.(map[string]any)
	return m, nil
}

// ParseRequest reads the submitted form of r. Query parameters are used for
// GET and HEAD requests, the body otherwise.
func ParseRequest(r *http.Request) (map[string]any, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return Parse(r.URL.Query())
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
			return nil, fmt.Errorf("formdata: parse multipart body: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("formdata: parse body: %w", err)
	}
	return Parse(r.PostForm)
}

type segment struct {
	name  string
	index int
	isIdx bool
}

// splitKey splits on '.', '[' and ']' and drops empty parts, so `pets[]`
// addresses `pets`.
func splitKey(key string) ([]segment, error) {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if isDigits(part) {
			n, err := strconv.Atoi(part)
			if err != nil || n > MaxIndex {
				return nil, fmt.Errorf("%w: %q", ErrIndexLimit, key)
			}
			segs = append(segs, segment{index: n, isIdx: true})
			continue
		}
		segs = append(segs, segment{name: part})
	}
	return segs, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func newContainer(next segment) any {
	if next.isIdx {
		return []any{}
	}
	return map[string]any{}
}

// insert writes value at segs below node and returns the updated node. The
// tree is private to the parse, so containers are updated in place.
func insert(node any, segs []segment, value string) any {
	s := segs[0]
	last := len(segs) == 1
	switch c := node.(type) {
	case map[string]any:
		key := s.name
		if s.isIdx {
			key = strconv.Itoa(s.index)
		}
		if last {
			c[key] = coalesce(c[key], value)
			return c
		}
		cur, ok := c[key]
		if !ok || !isContainer(cur) {
			cur = newContainer(segs[1])
		}
		c[key] = insert(cur, segs[1:], value)
		return c
	case []any:
		if !s.isIdx {
			return insert(promote(c), segs, value)
		}
		for len(c) <= s.index {
			c = append(c, nil)
		}
		if last {
			c[s.index] = coalesce(c[s.index], value)
			return c
		}
		cur := c[s.index]
		if !isContainer(cur) {
			cur = newContainer(segs[1])
		}
		c[s.index] = insert(cur, segs[1:], value)
		return c
	}
	return insert(newContainer(s), segs, value)
}

// coalesce merges a repeated leaf into a sequence.
func coalesce(existing any, value string) any {
	switch e := existing.(type) {
	case nil:
		return value
	case string:
		return []any{e, value}
	case []any:
		if isScalarList(e) {
			return append(e, value)
		}
	}
	return value
}

func isScalarList(l []any) bool {
	for _, v := range l {
		if isContainer(v) {
			return false
		}
	}
	return true
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// promote turns a sequence into an object keyed by position when a name
// segment addresses it.
func promote(l []any) map[string]any {
	m := make(map[string]any, len(l))
	for i, v := range l {
		if v != nil {
			m[strconv.Itoa(i)] = v
		}
	}
	return m
}

// Encode flattens tree into url.Values using `a.b[0].c` keys. Sequences are
// always written with explicit indexes so that Parse restores them, and nil
// leaves are omitted.
func Encode(tree map[string]any) url.Values {
	out := url.Values{}
	for _, p := range EncodePairs(tree) {
		out.Add(p.Key, p.Value)
	}
	return out
}

// EncodePairs is like Encode but returns pairs sorted by key.
func EncodePairs(tree map[string]any) []Pair {
	var out []Pair
	flatten("", tree, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func flatten(prefix string, v any, out *[]Pair) {
	switch t := v.(type) {
	case nil:
		return
	case map[string]any:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []any:
		for i, child := range t {
			flatten(prefix+"["+strconv.Itoa(i)+"]", child, out)
		}
	default:
		*out = append(*out, Pair{Key: prefix, Value: scalarString(t)})
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

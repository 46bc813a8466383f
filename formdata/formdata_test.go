package formdata_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/goform/formdata"
)

func TestParse_NestedKeys(t *testing.T) {
	got, err := formdata.ParsePairs([]formdata.Pair{
		{"title", "Hello"},
		{"address.city", "Tokyo"},
		{"authors[0].firstName", "Ann"},
		{"authors[1].firstName", "Bob"},
		{"authors[1].lastName", "Lee"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := map[string]any{
		"title":   "Hello",
		"address": map[string]any{"city": "Tokyo"},
		"authors": []any{
			map[string]any{"firstName": "Ann"},
			map[string]any{"firstName": "Bob", "lastName": "Lee"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RepeatedKeysCoalesce(t *testing.T) {
	v, _ := url.ParseQuery("pets=cat&pets=dog&name=x")
	got, err := formdata.Parse(v)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := map[string]any{"pets": []any{"cat", "dog"}, "name": "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	got, _ = formdata.ParsePairs([]formdata.Pair{{"tags[]", "a"}, {"tags[]", "b"}, {"tags[]", "c"}})
	if diff := cmp.Diff(map[string]any{"tags": []any{"a", "b", "c"}}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SparseIndexesPad(t *testing.T) {
	got, _ := formdata.ParsePairs([]formdata.Pair{{"rows[2]", "c"}})
	if diff := cmp.Diff(map[string]any{"rows": []any{nil, nil, "c"}}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_IndexLimit(t *testing.T) {
	_, err := formdata.ParsePairs([]formdata.Pair{{"rows[99999999999]", "x"}})
	if !errors.Is(err, formdata.ErrIndexLimit) {
		t.Fatalf("expected ErrIndexLimit, got %v", err)
	}
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	tree := map[string]any{
		"title":   "Hello",
		"pets":    []any{"cat", "dog", "fish"},
		"address": map[string]any{"city": "Tokyo", "zip": "100"},
		"authors": []any{
			map[string]any{"firstName": "Ann"},
			map[string]any{"firstName": "Bob"},
		},
	}
	enc := formdata.Encode(tree)
	if enc.Get("authors[1].firstName") != "Bob" || enc.Get("pets[2]") != "fish" {
		t.Fatalf("unexpected encoding: %v", enc)
	}
	back, err := formdata.Parse(enc)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff(tree, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Scalars(t *testing.T) {
	pairs := formdata.EncodePairs(map[string]any{"n": 3.5, "b": true, "skip": nil})
	want := []formdata.Pair{{"b", "true"}, {"n", "3.5"}}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRequest(t *testing.T) {
	body := strings.NewReader("title=Hi&pets=cat&pets=dog")
	r := httptest.NewRequest(http.MethodPost, "/posts?ignored=1", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	got, err := formdata.ParseRequest(r)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := map[string]any{"title": "Hi", "pets": []any{"cat", "dog"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	r = httptest.NewRequest(http.MethodGet, "/search?q=go", nil)
	got, _ = formdata.ParseRequest(r)
	if got["q"] != "go" {
		t.Fatalf("expected query values for GET, got %v", got)
	}
}

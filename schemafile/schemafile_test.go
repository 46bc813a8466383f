package schemafile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/schemafile"
)

const postYAML = `
unknown: strip
fields:
  - name: title
    type: text
    required: true
  - name: body
    type: text
    requiredWith: title
    max: 20
  - name: pets
    type: array
    max: 2
    items: {type: select, options: [cat, dog, bird]}
  - name: age
    type: number
    integer: true
    min: 0
  - name: agree
    type: checkbox
  - name: authors
    type: array
    items:
      type: object
      fields:
        - name: email
          type: text
          email: true
          required: true
`

const postHCL = `
unknown = "strip"

field "title" {
  type     = "text"
  required = true
}

field "body" {
  type          = "text"
  required_with = "title"
  max           = 20
}

field "pets" {
  type = "array"
  max  = 2
  items {
    type    = "select"
    options = ["cat", "dog", "bird"]
  }
}

field "age" {
  type    = "number"
  integer = true
  min     = 0
}

field "agree" {
  type = "checkbox"
}

field "authors" {
  type = "array"
  items {
    type = "object"
    field "email" {
      type     = "text"
      email    = true
      required = true
    }
  }
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAMLAndHCLAgree(t *testing.T) {
	input := map[string]any{
		"title":   "Hello",
		"body":    "",
		"pets":    []any{"cat", "fish", "dog"},
		"age":     "1.5",
		"authors": []any{map[string]any{"email": "nope"}},
		"extra":   "x",
	}
	want := []goform.ValidationError{
		{Path: "body", Message: "body is a required field", Type: "required"},
		{Path: "pets", Message: "pets must be one of the following values: cat, dog, bird", Type: "oneOf"},
		{Path: "pets", Message: "pets field must have less than or equal to 2 items", Type: "max"},
		{Path: "age", Message: "age must be an integer", Type: "integer"},
		{Path: "authors[0].email", Message: "authors[0].email must be a valid email", Type: "email"},
	}
	for _, name := range []string{"post.yaml", "post.hcl"} {
		src := postYAML
		if strings.HasSuffix(name, ".hcl") {
			src = postHCL
		}
		s, err := schemafile.Load(writeFile(t, name, src))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		res, err := goform.Validate(context.Background(), s, input)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if diff := cmp.Diff(want, res.Errors); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestLoad_ValidDataIsStripped(t *testing.T) {
	s, err := schemafile.ParseYAML([]byte(postYAML))
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.Parse(context.Background(), map[string]any{
		"title": "Hello", "body": "World", "pets": "dog", "age": "3", "agree": "on", "extra": "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"title": "Hello", "body": "World", "pets": []any{"dog"}, "age": 3.0, "agree": true}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiredWithFollowsSibling(t *testing.T) {
	s, err := schemafile.ParseYAML([]byte(postYAML))
	if err != nil {
		t.Fatal(err)
	}
	// title missing: body is optional, only title is reported
	res, err := goform.Validate(context.Background(), s, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 || res.Errors[0].Path != "title" {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"bad.yaml":    "fields:\n  - name: a\n    type: texty\n",
		"typo.yaml":   "fields:\n  - name: a\n    requierd: true\n",
		"dup.yaml":    "fields:\n  - name: a\n  - name: a\n",
		"noitem.yaml": "fields:\n  - name: a\n    type: array\n",
		"opts.yaml":   "fields:\n  - name: a\n    type: select\n",
		"re.yaml":     "fields:\n  - name: a\n    pattern: '['\n",
		"pol.yaml":    "unknown: drop\n",
		"bad.hcl":     "field \"a\" {\n",
		"attr.hcl":    "field \"a\" {\n  kind = \"text\"\n}\n",
	}
	for name, src := range cases {
		if _, err := schemafile.Load(writeFile(t, name, src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := schemafile.Load(writeFile(t, "x.toml", "")); !errors.Is(err, schemafile.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestBuild_JSONSchema(t *testing.T) {
	s, err := schemafile.ParseHCL([]byte(postHCL), "post.hcl")
	if err != nil {
		t.Fatal(err)
	}
	js, err := s.JSONSchema()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"title"}, js.Required); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if js.Properties["pets"].Items.Type != "string" {
		t.Fatalf("unexpected items schema %+v", js.Properties["pets"].Items)
	}
}

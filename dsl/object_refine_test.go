package dsl_test

import (
	"context"
	"errors"
	"testing"

	goform "github.com/reoring/goform"
	g "github.com/reoring/goform/dsl"
)

func TestObjectBuilder_Refine_PasswordConfirm(t *testing.T) {
	ctx := context.Background()

	s, err := g.Object().
		Field("email", g.TextField()).
		Field("password", g.TextField()).
		Field("confirm", g.TextField()).
		Require("email", "password", "confirm").
		Refine("password==confirm", func(ctx context.Context, v map[string]any) error {
			pw, _ := v["password"].(string)
			cf, _ := v["confirm"].(string)
			if pw != cf {
				return g.IssueAt("confirm", "{path} must match password")
			}
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("unexpected build err: %v", err)
	}

	// ng: mismatch
	_, err = s.Parse(ctx, map[string]any{"email": "a@b", "password": "x", "confirm": "y"})
	it := firstIssue(t, err)
	if it.Path != "/confirm" || it.Code != goform.CodeCustom || it.Message != "confirm must match password" || it.Rule != "password==confirm" {
		t.Fatalf("unexpected issue %+v", it)
	}

	// ok: match
	if _, err := s.Parse(ctx, map[string]any{"email": "a@b", "password": "x", "confirm": "x"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestObjectBuilder_RefinePlainError(t *testing.T) {
	s := g.Object().
		Field("n", g.Number()).
		Refine("positive", func(_ context.Context, m map[string]any) error {
			if n, _ := m["n"].(float64); n <= 0 {
				return errors.New("n must be positive")
			}
			return nil
		}).
		MustBuild()
	_, err := s.Parse(context.Background(), map[string]any{"n": -1})
	if it := firstIssue(t, err); it.Path != "/" || it.Message != "n must be positive" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestObject_ConditionalRequired(t *testing.T) {
	ctx := context.Background()
	titleRequired := true
	s := g.Object().
		Field("title", g.TextField()).
		RequiredWhen(func(context.Context, map[string]any) bool { return titleRequired }).
		MustBuild()

	_, err := s.Parse(ctx, map[string]any{"title": ""})
	it := firstIssue(t, err)
	if it.Path != "/title" || it.Code != goform.CodeRequired || it.Message != "title is a required field" {
		t.Fatalf("unexpected issue %+v", it)
	}

	titleRequired = false
	if _, err := s.Parse(ctx, map[string]any{"title": ""}); err != nil {
		t.Fatalf("expected optional title to pass, got %v", err)
	}
}

func TestObject_NestedPathsAndOrder(t *testing.T) {
	ctx := context.Background()
	author := g.Object().
		Field("firstName", g.TextField()).Required().
		MustBuild()
	s := g.Object().
		Field("title", g.TextField()).Required().
		Field("authors", g.Array(author).Min(1)).
		Field("address", g.Object().Field("city", g.TextField()).Required().MustBuild()).
		MustBuild()

	in := map[string]any{
		"authors": []any{map[string]any{"firstName": "Ann"}, map[string]any{}},
		"address": map[string]any{},
	}
	_, err := s.Parse(ctx, in)
	iss, _ := goform.AsIssues(err)
	want := []struct{ path, msg string }{
		{"/title", "title is a required field"},
		{"/authors/1/firstName", "authors[1].firstName is a required field"},
		{"/address/city", "address.city is a required field"},
	}
	if len(iss) != len(want) {
		t.Fatalf("expected %d issues, got %v", len(want), iss)
	}
	for i, w := range want {
		if iss[i].Path != w.path || iss[i].Message != w.msg {
			t.Fatalf("issue %d: expected %s %q, got %s %q", i, w.path, w.msg, iss[i].Path, iss[i].Message)
		}
	}

	// idempotent
	_, err2 := s.Parse(ctx, in)
	if err.Error() != err2.Error() {
		t.Fatalf("expected identical issues, got %v and %v", err, err2)
	}
}

func TestObject_UnknownPolicies(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{"name": "x", "_formId": "form-1"}

	out, err := g.Object().Field("name", g.String()).MustBuild().Parse(ctx, in)
	if err != nil || out.(map[string]any)["_formId"] != "form-1" {
		t.Fatalf("expected unknown key to be kept, got %v %v", out, err)
	}

	out, err = g.Object().Field("name", g.String()).UnknownStrip().MustBuild().Parse(ctx, in)
	if _, ok := out.(map[string]any)["_formId"]; err != nil || ok {
		t.Fatalf("expected unknown key to be stripped, got %v %v", out, err)
	}

	_, err = g.Object().Field("name", g.String()).UnknownStrict().MustBuild().Parse(ctx, in)
	if it := firstIssue(t, err); it.Code != goform.CodeUnknown || it.Message != "this field has unspecified keys: _formId" {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestSchemaOf_SystemicErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	s := g.Object().
		Field("x", g.SchemaOf(goform.SchemaFunc(func(context.Context, any) (any, error) { return nil, boom }))).
		MustBuild()
	_, err := s.Parse(context.Background(), map[string]any{"x": 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected systemic error to propagate, got %v", err)
	}
	if _, ok := goform.AsIssues(err); ok {
		t.Fatalf("systemic error must not be Issues")
	}
}

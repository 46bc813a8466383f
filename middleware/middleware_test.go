package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	goform "github.com/reoring/goform"
	g "github.com/reoring/goform/dsl"
	"github.com/reoring/goform/middleware"
)

func postSchema() goform.Schema {
	return g.Object().
		Field("title", g.TextField()).Required().
		Field("pets", g.Array(g.Select("cat", "dog"))).
		MustBuild()
}

func okHandler(t *testing.T, got *goform.Result) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := middleware.ResultFromContext(r.Context())
		if !ok {
			t.Fatalf("expected result in context")
		}
		*got = res
		w.WriteHeader(http.StatusNoContent)
	})
}

func formRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestValidateForm_Valid(t *testing.T) {
	var got goform.Result
	h := middleware.ValidateForm(postSchema())(okHandler(t, &got))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, formRequest("title=Hello&pets=cat&pets=dog"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
	want := map[string]any{"title": "Hello", "pets": []any{"cat", "dog"}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateForm_InvalidWrites422(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := middleware.ValidateForm(postSchema(), middleware.WithLogger(zap.New(core)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatalf("next must not run") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, formRequest("title=&pets=fish"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body middleware.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := middleware.ErrorBody{
		Errors: []goform.ValidationError{
			{Path: "title", Message: "title is a required field", Type: "required"},
			{Path: "pets", Message: "pets must be one of the following values: cat, dog", Type: "oneOf"},
		},
		Input: map[string]any{"title": "", "pets": "fish"},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("validation failed").Len() != 1 {
		t.Fatalf("expected a warn log, got %v", logs.All())
	}
}

func TestValidateForm_GetPassesThrough(t *testing.T) {
	called := false
	h := middleware.ValidateForm(postSchema())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := middleware.ResultFromContext(r.Context()); ok {
			t.Fatalf("GET must not be validated")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/new", nil))
	if !called {
		t.Fatalf("expected next to run")
	}
}

func TestValidateForm_CustomInvalidHandler(t *testing.T) {
	var seen goform.Result
	h := middleware.ValidateForm(postSchema(), middleware.WithInvalidHandler(func(w http.ResponseWriter, _ *http.Request, res goform.Result) {
		seen = res
		w.WriteHeader(http.StatusOK)
	}))(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, formRequest("title="))
	if rec.Code != http.StatusOK || seen.OK || len(seen.Errors) != 1 {
		t.Fatalf("unexpected outcome %d %+v", rec.Code, seen)
	}
}

func TestValidateForm_Failures(t *testing.T) {
	broken := goform.SchemaFunc(func(context.Context, any) (any, error) { return nil, errors.New("db down") })
	rec := httptest.NewRecorder()
	middleware.ValidateForm(broken)(http.NotFoundHandler()).ServeHTTP(rec, formRequest("title=x"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	r := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	middleware.ValidateForm(postSchema())(http.NotFoundHandler()).ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestErrorResponse_EmptyErrorsAreAnArray(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := middleware.ErrorResponse(rec, goform.Result{Input: map[string]any{}}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"errors":[],"input":{}}` {
		t.Fatalf("unexpected body %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

package goform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/formdata"
)

// Status classifies a Result.
type Status int

const (
	StatusValid Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusValid {
		return "valid"
	}
	return "error"
}

// Result is the outcome of a validation that reached the schema.
type Result struct {
	OK     bool
	Status Status
	// Input is the expanded data tree the schema was run against.
	Input map[string]any
	// Data is the schema's normalized output. Set only when OK.
	Data any
	// Errors lists every failure in the order the schema reported them. Set
	// only when not OK.
	Errors []ValidationError
}

// Validate runs schema against input in collect-all mode.
//
// input may be a data tree (map[string]any), a flat payload (url.Values or
// []formdata.Pair) or an *http.Request, which are first expanded into a
// tree. Other values are converted through their JSON representation. A nil
// schema always succeeds and returns the tree unchanged. Failures reported as
// Issues become a non-OK Result; any other validator error is returned as a
// *SystemicError.
func Validate(ctx context.Context, schema Schema, input any) (Result, error) {
	tree, err := ToTree(input)
	if err != nil {
		return Result{}, err
	}
	if schema == nil {
		return Result{OK: true, Status: StatusValid, Input: tree, Data: tree}, nil
	}
	out, err := schema.Parse(WithFailFast(ctx, false), tree)
	if err == nil {
		return Result{OK: true, Status: StatusValid, Input: tree, Data: out}, nil
	}
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return Result{OK: false, Status: StatusError, Input: tree, Errors: ToValidationErrors(iss)}, nil
	}
	return Result{}, &SystemicError{Err: err}
}

// ValidateOrError is like Validate but returns the normalized data directly
// and reports failures as an *InvalidError.
func ValidateOrError(ctx context.Context, schema Schema, input any) (any, error) {
	res, err := Validate(ctx, schema, input)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		return nil, &InvalidError{Input: res.Input, Errors: res.Errors}
	}
	return res.Data, nil
}

// ValidateRequest validates the form (or JSON body) submitted with r.
func ValidateRequest(ctx context.Context, schema Schema, r *http.Request) (Result, error) {
	return Validate(ctx, schema, r)
}

// AsyncResult is delivered by ValidateAsync.
type AsyncResult struct {
	Result Result
	Err    error
}

// ValidateAsync runs Validate on its own goroutine and delivers exactly one
// AsyncResult on the returned channel. There is no timeout or retry; the
// schema observes ctx and any error it returns propagates unchanged.
func ValidateAsync(ctx context.Context, schema Schema, input any) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	go func() {
		defer close(ch)
		res, err := Validate(ctx, schema, input)
		ch <- AsyncResult{Result: res, Err: err}
	}()
	return ch
}

// ToTree expands input into a data tree. See Validate for accepted inputs.
func ToTree(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case url.Values:
		return formdata.Parse(v)
	case []formdata.Pair:
		return formdata.ParsePairs(v)
	case *http.Request:
		return requestTree(v)
	case []byte:
		return DecodeJSON(bytes.NewReader(v))
	}
	b, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("goform: encode %T: %w", input, err)
	}
	return DecodeJSON(bytes.NewReader(b))
}

func requestTree(r *http.Request) (map[string]any, error) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "application/json" {
		if r.Body == nil {
			return map[string]any{}, nil
		}
		return DecodeJSON(r.Body)
	}
	return formdata.ParseRequest(r)
}

// DecodeJSON reads one JSON object into a data tree.
func DecodeJSON(r io.Reader) (map[string]any, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("goform: decode json: %w", err)
	}
	switch t := fieldpath.Normalize(v).(type) {
	case map[string]any:
		return t, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("goform: decode json: expected an object, got %T", t)
	}
}

// Bind converts the normalized data of a successful result into T through
// its JSON representation.
func Bind[T any](res Result) (T, error) {
	var out T
	if !res.OK {
		return out, &InvalidError{Input: res.Input, Errors: res.Errors}
	}
	b, err := json.Marshal(res.Data)
	if err != nil {
		return out, fmt.Errorf("goform: bind: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("goform: bind: %w", err)
	}
	return out, nil
}

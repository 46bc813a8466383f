// Package middleware validates submitted forms at HTTP boundaries.
package middleware

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	goform "github.com/reoring/goform"
)

// ErrorBody is the 422 payload: the field errors and the submitted input,
// so a client can re-render the form with what the user typed.
type ErrorBody struct {
	Errors []goform.ValidationError `json:"errors"`
	Input  map[string]any           `json:"input"`
}

// Payload shapes a failed Result for JSON responses.
func Payload(res goform.Result) ErrorBody {
	errs := res.Errors
	if errs == nil {
		errs = []goform.ValidationError{}
	}
	return ErrorBody{Errors: errs, Input: res.Input}
}

// ErrorResponse writes res as a 422 Unprocessable Entity JSON response.
func ErrorResponse(w http.ResponseWriter, res goform.Result) error {
	b, err := json.Marshal(Payload(res))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_, err = w.Write(b)
	return err
}

type ctxKeyResult struct{}

// ContextWithResult attaches a successful Result to ctx.
func ContextWithResult(ctx context.Context, res goform.Result) context.Context {
	return context.WithValue(ctx, ctxKeyResult{}, res)
}

// ResultFromContext retrieves the Result stored by ValidateForm.
func ResultFromContext(ctx context.Context) (goform.Result, bool) {
	v, ok := ctx.Value(ctxKeyResult{}).(goform.Result)
	return v, ok
}

type config struct {
	logger    *zap.Logger
	onInvalid func(http.ResponseWriter, *http.Request, goform.Result)
}

// Option configures ValidateForm.
type Option func(*config)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInvalidHandler replaces the default 422 response for failed
// submissions, e.g. to re-render an HTML form.
func WithInvalidHandler(h func(http.ResponseWriter, *http.Request, goform.Result)) Option {
	return func(c *config) { c.onInvalid = h }
}

// ValidateForm validates every submission (any method other than GET and
// HEAD) against schema. Valid submissions continue with the Result in the
// request context; invalid ones get a 422 with ErrorBody. A body that cannot
// be decoded is answered with 400 and a validator failure with 500.
func ValidateForm(schema goform.Schema, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			res, err := Check(r.Context(), schema, r, cfg.logger)
			if err != nil {
				http.Error(w, http.StatusText(StatusFor(err)), StatusFor(err))
				return
			}
			if !res.OK {
				if cfg.onInvalid != nil {
					cfg.onInvalid(w, r, res)
					return
				}
				if err := ErrorResponse(w, res); err != nil {
					cfg.logger.Error("write error response", zap.Error(err))
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithResult(r.Context(), res)))
		})
	}
}

// Check validates r against schema and logs the outcome the way
// ValidateForm does. It is shared by the framework adapters.
func Check(ctx context.Context, schema goform.Schema, r *http.Request, logger *zap.Logger) (goform.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
	res, err := goform.ValidateRequest(ctx, schema, r)
	if err != nil {
		var sys *goform.SystemicError
		if errors.As(err, &sys) {
			log.Error("validator failed", zap.Error(err))
		} else {
			log.Info("malformed submission", zap.Error(err))
		}
		return res, err
	}
	if !res.OK {
		log.Warn("validation failed", zap.Any("errors", res.Errors))
	}
	return res, nil
}

// StatusFor maps a Check error to an HTTP status.
func StatusFor(err error) int {
	var sys *goform.SystemicError
	if errors.As(err, &sys) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

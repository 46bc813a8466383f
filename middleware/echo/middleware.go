// Package echomw adapts goform submission validation to echo.
package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/middleware"
)

// ValidateForm validates the submitted form (or JSON body) against s, stores
// the Result in the request context on success, or returns 422 with
// middleware.ErrorBody.
func ValidateForm(s goform.Schema, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := middleware.Check(c.Request().Context(), s, c.Request(), logger)
			if err != nil {
				return c.JSON(middleware.StatusFor(err), map[string]any{"error": err.Error()})
			}
			if !res.OK {
				return c.JSON(http.StatusUnprocessableEntity, middleware.Payload(res))
			}
			c.SetRequest(c.Request().WithContext(middleware.ContextWithResult(c.Request().Context(), res)))
			return next(c)
		}
	}
}

// GetResult fetches the validated Result from echo.Context.
func GetResult(c echo.Context) (goform.Result, bool) {
	return middleware.ResultFromContext(c.Request().Context())
}

// Package ginmw adapts goform submission validation to gin.
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/middleware"
)

// ValidateForm validates the submitted form (or JSON body) against s. On
// success the Result is stored in the request context; invalid submissions
// are answered with 422 and middleware.ErrorBody.
func ValidateForm(s goform.Schema, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := middleware.Check(c.Request.Context(), s, c.Request, logger)
		if err != nil {
			c.AbortWithStatusJSON(middleware.StatusFor(err), gin.H{"error": err.Error()})
			return
		}
		if !res.OK {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, middleware.Payload(res))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithResult(c.Request.Context(), res))
		c.Next()
	}
}

// GetResult fetches the validated Result from gin.Context.
func GetResult(c *gin.Context) (goform.Result, bool) {
	return middleware.ResultFromContext(c.Request.Context())
}

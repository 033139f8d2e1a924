package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
)

// ErrorReporter forwards unexpected failures to error tracking
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, fields map[string]any)
	CapturePanic(ctx context.Context, recovered any, fields map[string]any)
}

// ErrorHandler recovers from panics and reports server errors that handlers
// attached with c.Error. reporter may be nil.
func ErrorHandler(logger coreport.Logger, reporter ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				fields := map[string]any{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      fmt.Sprint(recovered),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": coreport.RequestIDFrom(c.Request.Context()),
				})
				if reporter != nil {
					reporter.CapturePanic(c.Request.Context(), recovered, fields)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(c.Request.Context(),
					domainerr.ErrorCode(domainerr.ErrInternalServer), "Internal server error"))
			}
		}()

		c.Next()

		if reporter == nil || c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		for _, ginErr := range c.Errors {
			fields := domainerr.LogFields(ginErr.Err)
			fields["path"] = c.FullPath()
			fields["method"] = c.Request.Method
			if user := CurrentUser(c); user != nil {
				fields["user_id"] = user.ID.String()
			}
			reporter.CaptureError(c.Request.Context(), ginErr.Err, fields)
		}
	}
}

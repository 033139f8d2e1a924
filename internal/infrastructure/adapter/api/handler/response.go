package handler

import (
	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
)

// respondError writes the public form of err. Server errors are attached to
// the context so the error middleware can report them.
func respondError(c *gin.Context, logger coreport.Logger, msg string, err error) {
	status := domainerr.HTTPStatus(err)
	if status >= 500 {
		fields := domainerr.LogFields(err)
		fields["path"] = c.FullPath()
		fields["request_id"] = coreport.RequestIDFrom(c.Request.Context())
		logger.Error(msg, fields)
		_ = c.Error(err)
	}

	c.JSON(status, dto.NewErrorResponse(c.Request.Context(),
		domainerr.ErrorCode(err), domainerr.PublicMessage(err)))
}

// badRequest answers a malformed body
func badRequest(c *gin.Context, err error) {
	c.JSON(400, dto.NewErrorResponse(c.Request.Context(),
		domainerr.ErrorCode(domainerr.ErrValidation), "Invalid request format: "+err.Error()))
}

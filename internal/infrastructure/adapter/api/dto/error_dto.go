package dto

import (
	"context"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// NewErrorResponse stamps the request's correlation id onto the error body
func NewErrorResponse(ctx context.Context, code int, message string) ErrorResponse {
	return ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: coreport.RequestIDFrom(ctx),
	}
}

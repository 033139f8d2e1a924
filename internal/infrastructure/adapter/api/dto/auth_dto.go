package dto

import "github.com/amirhossein-jamali/clipforge/internal/domain/entity"

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login. Username also accepts an email.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned by /api/init
type SessionResponse struct {
	SessionToken string                `json:"session_token"`
	User         entity.UserProjection `json:"user"`
}

// EmbedResponse reports whether the embed handshake cookie was issued
type EmbedResponse struct {
	Verified bool `json:"verified"`
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/middleware"
)

// AuthHandler handles both sign-in schemes
type AuthHandler struct {
	identity usecase.IdentityUseCase
	logger   coreport.Logger
}

// NewAuthHandler creates a new auth handler instance
func NewAuthHandler(identity usecase.IdentityUseCase, logger coreport.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, logger: logger}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.identity.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "Registration failed", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.identity.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	profile, err := h.identity.Profile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, "Profile lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		respondError(c, h.logger, "Logout failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// Embed handles GET /embed. The cookie itself is set by EmbedHandshake.
func (h *AuthHandler) Embed(c *gin.Context) {
	c.JSON(http.StatusOK, dto.EmbedResponse{Verified: middleware.EmbedVerified(c)})
}

// Init handles GET /api/init?location_id=
func (h *AuthHandler) Init(c *gin.Context) {
	handshake, _ := c.Cookie(middleware.HandshakeCookie)

	result, err := h.identity.InitEmbedded(c.Request.Context(), c.Query("location_id"), handshake)
	if err != nil {
		respondError(c, h.logger, "Embedded init failed", err)
		return
	}

	// clear the browser copy; the signed value itself stays valid until its TTL
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.HandshakeCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, dto.SessionResponse{SessionToken: result.Token, User: result.User})
}

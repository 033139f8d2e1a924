package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/api/dto"
)

const userKey = "clipforge.user"

// Resolver maps a bearer credential to its user
type Resolver interface {
	Resolve(ctx context.Context, bearer string) (*entity.User, error)
}

// BearerToken returns the credential of an "Authorization: Bearer" header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Auth rejects requests without a valid bearer credential and stores the
// resolved user in the context
func Auth(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, domainerr.ErrUnauthorized)
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	status := domainerr.HTTPStatus(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(c.Request.Context(),
		domainerr.ErrorCode(err), domainerr.PublicMessage(err)))
}

// CurrentUser returns the user set by Auth, or nil
func CurrentUser(c *gin.Context) *entity.User {
	value, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := value.(*entity.User)
	return user
}

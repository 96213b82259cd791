package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

const (
	SessionCookie = "session_token"

	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// SessionResolver maps a session token to its user; nil means anonymous.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// SessionToken reads the session cookie, falling back to a bearer token and
// then to a raw X-Auth-Token header for clients that cannot keep cookies.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.GetHeader("X-Auth-Token"))
}

func resolve(c *gin.Context, resolver SessionResolver, log *logger.Logger) *models.User {
	token := SessionToken(c)
	if token == "" {
		return nil
	}
	user, err := resolver.ResolveSession(c.Request.Context(), token)
	if err != nil {
		log.Error("resolve session failed", "error", err, "path", c.Request.URL.Path)
		return nil
	}
	if user != nil {
		c.Set(ctxUser, user)
		c.Set(ctxUserID, user.ID.String())
		c.Set(ctxRole, string(user.Role))
	}
	return user
}

// OptionalAuthMiddleware attaches the session user when there is one and
// lets anonymous requests through.
func OptionalAuthMiddleware(resolver SessionResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolve(c, resolver, log)
		c.Next()
	}
}

func AuthMiddleware(resolver SessionResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolve(c, resolver, log) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No autenticado", "code": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by the auth middleware, if any.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

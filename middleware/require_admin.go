package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/models"
)

// RequireRoles must run after AuthMiddleware.
func RequireRoles(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No autenticado", "code": "unauthorized"})
			c.Abort()
			return
		}
		for _, allowed := range allowedRoles {
			if user.Role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "No tienes permiso para acceder a este recurso", "code": "forbidden"})
		c.Abort()
	}
}

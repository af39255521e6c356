package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/models"
	"github.com/harentsoaR/medivault-api/internal/utils"
)

const (
	KeyUserID   = "userID"
	KeyUserRole = "userRole"
)

func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		// Set user info in the context for handlers to use
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUserRole, claims.Role)

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, Role(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Permission denied."})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

func Role(c *gin.Context) models.Role {
	role, _ := c.Get(KeyUserRole)
	r, _ := role.(models.Role)
	return r
}

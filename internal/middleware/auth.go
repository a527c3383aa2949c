package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/services"
)

// Context keys set by AdminRequired
const (
	ContextAdminRole  = "adminRole"
	ContextAdminToken = "adminToken"
)

// AuthMiddleware contains the admin auth service for token validation
type AuthMiddleware struct {
	authService *services.AdminAuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *services.AdminAuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// AdminRequired is a middleware that checks for a valid admin token
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header required",
			})
			c.Abort()
			return
		}

		token, ok := BearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Access Denied",
			})
			c.Abort()
			return
		}

		c.Set(ContextAdminRole, claims.Role)
		c.Set(ContextAdminToken, token)

		c.Next()
	}
}

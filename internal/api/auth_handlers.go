package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/middleware"
	"manglistore-backend/internal/services"
)

// AuthHandlers handles the admin password gate
type AuthHandlers struct {
	auth *services.AdminAuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(auth *services.AdminAuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// Login exchanges the admin password for a session token
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	token, expiresAt, err := h.auth.Login(req.Password)
	if err != nil {
		log.Printf("🔒 Failed admin login from %s", c.ClientIP())
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin Access Granted",
		"data": gin.H{
			"token":     token,
			"expiresAt": expiresAt,
		},
	})
}

// Logout revokes the presented admin token
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.auth.RevokeToken(c.GetString(middleware.ContextAdminToken)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

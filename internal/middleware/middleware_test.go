package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manglistore-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "role": c.GetString(ContextAdminRole)})
}

func TestAdminRequired(t *testing.T) {
	auth, err := services.NewAdminAuthService("pw", "secret", time.Hour)
	require.NoError(t, err)
	token, _, err := auth.Login("pw")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/admin", NewAuthMiddleware(auth).AdminRequired(), okHandler)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"role":"admin"`)
			}
		})
	}
}

func TestSecurityMiddlewareRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(SecurityMiddleware(&SecurityConfig{MaxRequestSize: 1024, RateLimitRequests: 2, RateLimitWindow: time.Hour}))
	router.GET("/x", okHandler)

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestSecurityMiddlewareDisabledRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(SecurityMiddleware(&SecurityConfig{MaxRequestSize: 1024, RateLimitRequests: 1, RateLimitWindow: time.Hour, DisableRateLimiting: true}))
	router.GET("/x", okHandler)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestSecurityMiddlewareBodyAndContentType(t *testing.T) {
	router := gin.New()
	router.Use(SecurityMiddleware(&SecurityConfig{MaxRequestSize: 16, RateLimitRequests: 100, RateLimitWindow: time.Minute}))
	router.POST("/x", okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"far too long for the cap"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`a=b`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	// bodiless POST needs no content type
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.POST("/login", AuthRateLimitMiddleware(3, time.Hour), okHandler)

	var last int
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		last = w.Code
		if i < 3 {
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

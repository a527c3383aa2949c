package api

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"manglistore-backend/internal/services"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"
)

var validSession = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// cartSession returns the caller's cart session id from the header or the
// cookie, issuing a new one when neither carries a usable id. The id is
// echoed in the response header either way.
func cartSession(c *gin.Context) string {
	id := c.GetHeader(CartSessionHeader)
	if !validSession.MatchString(id) {
		id, _ = c.Cookie(CartSessionCookie)
	}
	if !validSession.MatchString(id) {
		id = uuid.New().String()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CartSessionCookie, id, int(services.CartSessionTTL/time.Second), "/", "", false, true)
	}

	c.Header(CartSessionHeader, id)
	return id
}

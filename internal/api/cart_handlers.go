package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/services"
)

// CartHandlers handles the session cart
type CartHandlers struct {
	carts *services.CartService
}

// NewCartHandlers creates a new cart handlers instance
func NewCartHandlers(carts *services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// respondCart writes the cart view. A failed storage write still returns the
// updated cart, with a warning.
func respondCart(c *gin.Context, view *services.CartView, err error, message string) {
	if err != nil && !(errors.Is(err, services.ErrCartNotPersisted) && view != nil) {
		respondError(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"data":    view,
	}
	if message != "" {
		body["message"] = message
	}
	if err != nil {
		log.Printf("⚠️  Cart %s changed but not saved: %v", view.Session, err)
		body["warning"] = "Cart could not be saved and may not survive a reload"
	}
	c.JSON(http.StatusOK, body)
}

// GetCart returns the cart with totals
func (h *CartHandlers) GetCart(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), cartSession(c))
	respondCart(c, view, err, "")
}

// AddToCart adds one unit of a product
func (h *CartHandlers) AddToCart(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	view, err := h.carts.Add(c.Request.Context(), cartSession(c), req.ProductID)
	respondCart(c, view, err, "Product added to cart successfully")
}

// UpdateCartItem sets the quantity of a cart entry; zero or less removes it
func (h *CartHandlers) UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	view, err := h.carts.SetQuantity(c.Request.Context(), cartSession(c), c.Param("id"), *req.Quantity)
	respondCart(c, view, err, "")
}

// RemoveFromCart removes a cart entry
func (h *CartHandlers) RemoveFromCart(c *gin.Context) {
	view, err := h.carts.Remove(c.Request.Context(), cartSession(c), c.Param("id"))
	respondCart(c, view, err, "")
}

// ClearCart empties the cart
func (h *CartHandlers) ClearCart(c *gin.Context) {
	view, err := h.carts.Clear(c.Request.Context(), cartSession(c))
	respondCart(c, view, err, "Cart cleared")
}

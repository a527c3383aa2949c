package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/models"
	"manglistore-backend/internal/services"
)

// CheckoutHandlers handles quoting and placing orders
type CheckoutHandlers struct {
	orders *services.OrderService
}

// NewCheckoutHandlers creates a new checkout handlers instance
func NewCheckoutHandlers(orders *services.OrderService) *CheckoutHandlers {
	return &CheckoutHandlers{orders: orders}
}

// GetQuote returns cart totals and whether checkout is allowed
func (h *CheckoutHandlers) GetQuote(c *gin.Context) {
	quote, err := h.orders.Quote(c.Request.Context(), cartSession(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// Checkout places the session cart as an order
func (h *CheckoutHandlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	result, err := h.orders.Checkout(c.Request.Context(), cartSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
		"message": "Order placed successfully",
	})
}

// OrderHandlers exposes recorded orders to the admin panel
type OrderHandlers struct {
	orders services.OrderRepository
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(orders services.OrderRepository) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// GetOrders lists orders newest first. ?limit= picks the page size, clamped
// to the repository maximum; unparsable values use the default.
func (h *OrderHandlers) GetOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = services.DefaultOrderListLimit
	}
	limit = services.ClampOrderLimit(limit)

	orders, err := h.orders.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"count":   len(orders),
	})
}

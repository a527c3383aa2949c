package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/services"
)

// CatalogHandlers serves the read-only storefront catalog
type CatalogHandlers struct {
	catalog *services.CatalogService
}

// NewCatalogHandlers creates a new catalog handlers instance
func NewCatalogHandlers(catalog *services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// GetProducts lists products, optionally filtered by ?category=
func (h *CatalogHandlers) GetProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"count":   len(products),
	})
}

// GetProduct returns one product
func (h *CatalogHandlers) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// GetCategories returns the category filter list, "All" first
func (h *CatalogHandlers) GetCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}

// GetSettings returns store branding and categories
func (h *CatalogHandlers) GetSettings(c *gin.Context) {
	settings, err := h.catalog.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

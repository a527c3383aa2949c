package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/models"
	"manglistore-backend/internal/services"
)

// AdminHandlers handles inventory and branding writes
type AdminHandlers struct {
	catalog *services.CatalogService
}

// NewAdminHandlers creates a new admin handlers instance
func NewAdminHandlers(catalog *services.CatalogService) *AdminHandlers {
	return &AdminHandlers{catalog: catalog}
}

// CreateProduct adds a product
func (h *AdminHandlers) CreateProduct(c *gin.Context) {
	var req models.ProductCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
		"message": product.Name + " is now live.",
	})
}

// UpdateProduct edits a product
func (h *AdminHandlers) UpdateProduct(c *gin.Context) {
	var req models.ProductUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
		"message": "Product updated successfully",
	})
}

// DeleteProduct removes a product
func (h *AdminHandlers) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// ToggleStock flips a product between in stock and out of stock
func (h *AdminHandlers) ToggleStock(c *gin.Context) {
	product, err := h.catalog.ToggleStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	status := "Out of Stock"
	if product.InStock {
		status = "In Stock"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
		"message": product.Name + " is now " + status + ".",
	})
}

// SeedProducts adds the placeholder catalog
func (h *AdminHandlers) SeedProducts(c *gin.Context) {
	products, err := h.catalog.Seed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    products,
		"message": "Mock products have been added to your catalog.",
	})
}

// UpdateImages changes the hero and/or logo image
func (h *AdminHandlers) UpdateImages(c *gin.Context) {
	var req models.BrandingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	settings, err := h.catalog.UpdateBranding(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
		"message": "Branding updated",
	})
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddCategory appends a category
func (h *AdminHandlers) AddCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	settings, err := h.catalog.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    settings,
	})
}

// RenameCategory renames a category; existing products are not changed
func (h *AdminHandlers) RenameCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	settings, err := h.catalog.RenameCategory(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// DeleteCategory removes a category
func (h *AdminHandlers) DeleteCategory(c *gin.Context) {
	settings, err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

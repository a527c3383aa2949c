package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"manglistore-backend/internal/services"
	"manglistore-backend/internal/utils"
)

// errorStatus maps service errors onto HTTP status codes
func errorStatus(err error) int {
	var verrs utils.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrOutOfStock), errors.Is(err, services.ErrCategoryExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrOrderLimitExceeded),
		errors.Is(err, services.ErrImageRequired),
		errors.Is(err, services.ErrImageTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidPassword), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrOrderNotRecorded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal failures are logged and
// reported with a generic message.
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	body := gin.H{"success": false}

	var verrs utils.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		body["error"] = "Validation failed"
		body["errors"] = verrs
	case errors.Is(err, services.ErrInvalidPassword):
		body["error"] = "Access Denied"
		body["message"] = err.Error()
	case errors.Is(err, services.ErrOrderNotRecorded):
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body["error"] = "Failed to place order. Please try again."
	case status == http.StatusInternalServerError:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body["error"] = "Internal server error"
	default:
		body["error"] = err.Error()
	}

	c.JSON(status, body)
}

func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request data: " + err.Error(),
	})
}

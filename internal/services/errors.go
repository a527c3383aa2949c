package services

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderLimitExceeded = errors.New("order limit exceeded")
	ErrImageRequired      = errors.New("product image is required")
	ErrImageTooLarge      = errors.New("image too large")
	ErrCategoryExists     = errors.New("category already exists")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrInvalidPassword    = errors.New("incorrect administrative password")
	ErrInvalidToken       = errors.New("invalid admin token")
	ErrOrderNotRecorded   = errors.New("order could not be recorded")
	ErrCartNotPersisted   = errors.New("cart could not be saved")
)

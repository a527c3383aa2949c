package models

import "time"

// DefaultUnit is used when a product carries no unit-of-sale label.
const DefaultUnit = "Unit"

// Product represents a catalog product
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Price         float64   `json:"price" db:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty" db:"original_price"`
	Description   string    `json:"description" db:"description"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	Category      string    `json:"category" db:"category"`
	Unit          string    `json:"unit" db:"unit"`
	InStock       bool      `json:"inStock" db:"in_stock"`
	IsDiscounted  bool      `json:"isDiscounted" db:"is_discounted"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Savings returns the displayed saving: only when the product is flagged as a
// discount deal and the original price is strictly higher than the current one.
func (p *Product) Savings() float64 {
	if !p.IsDiscounted || p.OriginalPrice == nil {
		return 0
	}
	if *p.OriginalPrice > p.Price {
		return *p.OriginalPrice - p.Price
	}
	return 0
}

// HasDiscount reports whether a savings amount is shown for the product.
func (p *Product) HasDiscount() bool {
	return p.Savings() > 0
}

// IsDeal reports a discount-flagged product without a visible saving.
func (p *Product) IsDeal() bool {
	return p.IsDiscounted && !p.HasDiscount()
}

// ProductCreation represents data for creating a new product
type ProductCreation struct {
	Name          string   `json:"name" binding:"required"`
	Price         *float64 `json:"price" binding:"required,min=0"`
	OriginalPrice *float64 `json:"originalPrice" binding:"omitempty,min=0"`
	Description   string   `json:"description" binding:"required"`
	ImageURL      string   `json:"imageUrl"`
	Category      string   `json:"category" binding:"required"`
	Unit          string   `json:"unit"`
	InStock       *bool    `json:"inStock"`
	IsDiscounted  bool     `json:"isDiscounted"`
}

// ProductUpdate represents a partial product edit; nil fields are left untouched
type ProductUpdate struct {
	Name          *string  `json:"name"`
	Price         *float64 `json:"price" binding:"omitempty,min=0"`
	OriginalPrice *float64 `json:"originalPrice" binding:"omitempty,min=0"`
	ClearOriginal bool     `json:"clearOriginalPrice"`
	Description   *string  `json:"description"`
	ImageURL      *string  `json:"imageUrl"`
	Category      *string  `json:"category"`
	Unit          *string  `json:"unit"`
	InStock       *bool    `json:"inStock"`
	IsDiscounted  *bool    `json:"isDiscounted"`
}

// Apply copies the set fields of the update onto p.
func (u *ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.ClearOriginal {
		p.OriginalPrice = nil
	} else if u.OriginalPrice != nil {
		v := *u.OriginalPrice
		p.OriginalPrice = &v
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.InStock != nil {
		p.InStock = *u.InStock
	}
	if u.IsDiscounted != nil {
		p.IsDiscounted = *u.IsDiscounted
	}
}

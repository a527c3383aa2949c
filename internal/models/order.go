package models

import "time"

// OrderStatus represents order status
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

// Order is the record written once per checkout
type Order struct {
	ID             string      `json:"id" db:"id"`
	CustomerName   string      `json:"customerName" db:"customer_name"`
	Phone          string      `json:"phone" db:"phone"`
	Address        string      `json:"address" db:"address"`
	Items          []CartItem  `json:"items" db:"items"`
	Subtotal       float64     `json:"subtotal" db:"subtotal"`
	DeliveryCharge float64     `json:"deliveryCharge" db:"delivery_charge"`
	GrandTotal     float64     `json:"grandTotal" db:"grand_total"`
	DeliveryNote   string      `json:"deliveryNote" db:"delivery_note"`
	AfterHours     bool        `json:"afterHours" db:"after_hours"`
	Status         OrderStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
}

// CheckoutRequest carries the structured checkout form
type CheckoutRequest struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

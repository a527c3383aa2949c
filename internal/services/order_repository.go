package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"manglistore-backend/internal/models"
)

// OrderRepository stores order records
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	List(ctx context.Context, limit int) ([]*models.Order, error)
}

// SQLOrderRepository keeps orders in the orders table, line items as a JSON column
type SQLOrderRepository struct {
	db *sql.DB
}

func NewSQLOrderRepository(db *sql.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

// Create inserts a new order record
func (r *SQLOrderRepository) Create(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, phone, address, items, subtotal, delivery_charge,
			grand_total, delivery_note, after_hours, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerName, order.Phone, order.Address, string(items), order.Subtotal,
		order.DeliveryCharge, order.GrandTotal, order.DeliveryNote, order.AfterHours, order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Order listing page sizes
const (
	DefaultOrderListLimit = 100
	MaxOrderListLimit     = 500
)

// ClampOrderLimit maps a requested page size into [1, MaxOrderListLimit];
// zero or negative selects DefaultOrderListLimit.
func ClampOrderLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultOrderListLimit
	case limit > MaxOrderListLimit:
		return MaxOrderListLimit
	default:
		return limit
	}
}

// List returns orders newest first, at most ClampOrderLimit(limit) of them
func (r *SQLOrderRepository) List(ctx context.Context, limit int) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_name, phone, address, items, subtotal, delivery_charge, grand_total,
			delivery_note, after_hours, status, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ?`, ClampOrderLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		var order models.Order
		var items string
		if err := rows.Scan(
			&order.ID, &order.CustomerName, &order.Phone, &order.Address, &items, &order.Subtotal,
			&order.DeliveryCharge, &order.GrandTotal, &order.DeliveryNote, &order.AfterHours,
			&order.Status, &order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
		orders = append(orders, &order)
	}
	return orders, rows.Err()
}

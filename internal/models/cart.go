package models

import "encoding/json"

// CartItem is a product snapshot plus a quantity (always >= 1 while present)
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal returns price times quantity for the item.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart is an in-progress selection with at most one entry per product id.
// The zero value is an empty cart ready to use.
type Cart struct {
	items []CartItem
}

// NewCart builds a cart from items, merging duplicate ids and dropping
// entries with a non-positive quantity.
func NewCart(items []CartItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		if item.Quantity <= 0 || item.ID == "" {
			continue
		}
		if idx := c.indexOf(item.ID); idx >= 0 {
			c.items[idx].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Add increments the quantity of an existing entry or appends the product with quantity 1.
func (c *Cart) Add(product Product) {
	if idx := c.indexOf(product.ID); idx >= 0 {
		c.items[idx].Quantity++
		return
	}
	c.items = append(c.items, CartItem{Product: product, Quantity: 1})
}

// Remove deletes the matching entry; absent ids are ignored.
func (c *Cart) Remove(productID string) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

// SetQuantity replaces the quantity in place, or removes the entry when quantity <= 0.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if idx := c.indexOf(productID); idx >= 0 {
		c.items[idx].Quantity = quantity
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart entries in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	return len(c.items)
}

// ItemCount returns the sum of all quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// MarshalJSON serialises the cart as a plain array of items.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []CartItem{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON restores a cart serialised by MarshalJSON.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*c = *NewCart(items)
	return nil
}

// OrderTotals are derived from cart contents and never stored on their own
type OrderTotals struct {
	Subtotal             float64 `json:"subtotal"`
	DeliveryCharge       float64 `json:"deliveryCharge"`
	GrandTotal           float64 `json:"grandTotal"`
	AmountToFreeDelivery float64 `json:"amountToFreeDelivery"`
}

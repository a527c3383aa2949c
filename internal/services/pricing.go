package services

import "manglistore-backend/internal/models"

// PricingConfig holds the two delivery thresholds used by ComputeTotals
type PricingConfig struct {
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

// DeliveryCharge returns the flat fee when 0 < subtotal < threshold, else zero.
func (p PricingConfig) DeliveryCharge(subtotal float64) float64 {
	if subtotal > 0 && subtotal < p.FreeDeliveryThreshold {
		return p.DeliveryFee
	}
	return 0
}

// ComputeTotals derives subtotal, delivery charge and grand total from items.
// It is recomputed from scratch on every call.
func (p PricingConfig) ComputeTotals(items []models.CartItem) models.OrderTotals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.LineTotal()
	}

	delivery := p.DeliveryCharge(subtotal)
	totals := models.OrderTotals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		GrandTotal:     subtotal + delivery,
	}
	if delivery > 0 {
		totals.AmountToFreeDelivery = p.FreeDeliveryThreshold - subtotal
	}
	return totals
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"manglistore-backend/internal/models"
	"manglistore-backend/internal/utils"
)

// CheckoutState is a step of the order submission flow
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutValidating CheckoutState = "validating"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutConfirmed  CheckoutState = "confirmed"
	CheckoutFailed     CheckoutState = "failed"
)

const tracerName = "manglistore-backend/checkout"

// OrderPolicy holds the checkout limits and delivery window
type OrderPolicy struct {
	MaxOrderLimit float64
	CurrencyLabel string
	// Delivery window in store-local hours, [WindowStart, WindowEnd)
	WindowStart int
	WindowEnd   int
}

// CheckoutResult reports the outcome of a checkout attempt
type CheckoutResult struct {
	State         CheckoutState        `json:"state"`
	Order         *models.Order        `json:"order,omitempty"`
	Totals        models.OrderTotals   `json:"totals"`
	WhatsAppURL   string               `json:"whatsappUrl,omitempty"`
	Notifications []NotificationResult `json:"notifications,omitempty"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// Quote is a pre-checkout view of the cart totals against the order limit
type Quote struct {
	Totals        models.OrderTotals `json:"totals"`
	ItemCount     int                `json:"itemCount"`
	MaxOrderLimit float64            `json:"maxOrderLimit"`
	CanCheckout   bool               `json:"canCheckout"`
	Message       string             `json:"message,omitempty"`
}

// OrderService runs checkout: validate, record the order, notify, clear the cart
type OrderService struct {
	carts     *CartService
	orders    OrderRepository
	notifiers []Notifier
	policy    OrderPolicy
	clock     utils.Clock
	tracer    trace.Tracer
}

// NewOrderService creates a new order service. clock must report store-local time.
func NewOrderService(carts *CartService, orders OrderRepository, notifiers []Notifier, policy OrderPolicy, clock utils.Clock) *OrderService {
	return &OrderService{
		carts:     carts,
		orders:    orders,
		notifiers: notifiers,
		policy:    policy,
		clock:     clock,
		tracer:    otel.Tracer(tracerName),
	}
}

func (s *OrderService) limitMessage() string {
	return fmt.Sprintf("Maximum order limit is %s. Please remove some items.",
		utils.FormatCurrency(s.policy.CurrencyLabel, s.policy.MaxOrderLimit))
}

// Quote returns totals for the session cart and whether it may be checked out.
func (s *OrderService) Quote(ctx context.Context, session string) (*Quote, error) {
	view, err := s.carts.Get(ctx, session)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Totals:        view.Totals,
		ItemCount:     view.ItemCount,
		MaxOrderLimit: s.policy.MaxOrderLimit,
		CanCheckout:   true,
	}
	switch {
	case len(view.Items) == 0:
		q.CanCheckout = false
		q.Message = ErrEmptyCart.Error()
	case view.Totals.GrandTotal > s.policy.MaxOrderLimit:
		q.CanCheckout = false
		q.Message = s.limitMessage()
	}
	return q, nil
}

// DeliveryNote returns the delivery timing note for an order placed now,
// and whether it falls outside the delivery window.
func (s *OrderService) DeliveryNote() (string, bool) {
	now := s.clock()
	if utils.WithinHourWindow(now, s.policy.WindowStart, s.policy.WindowEnd) {
		return "Order will be delivered within 1-2 hours.", false
	}
	return fmt.Sprintf("Order placed outside delivery hours (%02d:00-%02d:00). It will be delivered next morning.",
		s.policy.WindowStart, s.policy.WindowEnd), true
}

func (s *OrderService) validate(items []models.CartItem, totals models.OrderTotals, req *models.CheckoutRequest) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	if totals.GrandTotal > s.policy.MaxOrderLimit {
		return fmt.Errorf("%w: %s", ErrOrderLimitExceeded, s.limitMessage())
	}

	var errs utils.ValidationErrors
	if req.CustomerName == "" {
		errs.Add("customerName", "name is required")
	}
	if !utils.IsTenDigitPhone(req.Phone) {
		errs.Add("phone", "phone number must be exactly 10 digits")
	}
	if req.Address == "" {
		errs.Add("address", "address is required")
	}
	return errs.OrNil()
}

// Checkout submits the session cart as an order. Validation happens before
// anything is written. Reading the cart, recording the order and clearing the
// cart happen under the cart's session lock, so an item added meanwhile is
// kept for the next order. Notifiers run afterwards; their failures are
// returned as warnings.
func (s *OrderService) Checkout(ctx context.Context, session string, req models.CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Checkout")
	defer span.End()

	result := &CheckoutResult{State: CheckoutIdle}
	transition := func(state CheckoutState) {
		result.State = state
		span.AddEvent("checkout.state", trace.WithAttributes(attribute.String("state", string(state))))
	}
	fail := func(err error) (*CheckoutResult, error) {
		transition(CheckoutFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	transition(CheckoutValidating)
	req.CustomerName = utils.SanitizeString(req.CustomerName)
	req.Address = utils.SanitizeString(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)

	var order *models.Order
	err := s.carts.Checkout(ctx, session, func(items []models.CartItem) error {
		result.Totals = s.carts.Pricing().ComputeTotals(items)
		span.SetAttributes(
			attribute.Int("cart.items", len(items)),
			attribute.Float64("order.grand_total", result.Totals.GrandTotal),
		)
		if err := s.validate(items, result.Totals, &req); err != nil {
			return err
		}

		transition(CheckoutSubmitting)
		note, afterHours := s.DeliveryNote()
		order = &models.Order{
			ID:             uuid.New().String(),
			CustomerName:   req.CustomerName,
			Phone:          req.Phone,
			Address:        req.Address,
			Items:          items,
			Subtotal:       result.Totals.Subtotal,
			DeliveryCharge: result.Totals.DeliveryCharge,
			GrandTotal:     result.Totals.GrandTotal,
			DeliveryNote:   note,
			AfterHours:     afterHours,
			Status:         models.OrderStatusPending,
			CreatedAt:      s.clock(),
		}
		if err := s.orders.Create(ctx, order); err != nil {
			log.Printf("❌ Failed to record order for session %s: %v", session, err)
			return fmt.Errorf("%w: %w", ErrOrderNotRecorded, err)
		}
		return nil
	})
	switch {
	case order != nil && errors.Is(err, ErrCartNotPersisted):
		log.Printf("⚠️  Order %s recorded but cart %s could not be cleared in storage: %v", order.ID, session, err)
		result.Warnings = append(result.Warnings, "cart could not be cleared")
	case err != nil:
		return fail(err)
	}
	result.Order = order
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Bool("order.after_hours", order.AfterHours))

	for _, notifier := range s.notifiers {
		res, err := notifier.Notify(ctx, order)
		if err != nil {
			log.Printf("⚠️  %s notification failed for order %s: %v", notifier.Channel(), order.ID, err)
			span.AddEvent("notification.failed", trace.WithAttributes(attribute.String("channel", notifier.Channel())))
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s notification failed", notifier.Channel()))
			continue
		}
		result.Notifications = append(result.Notifications, *res)
		if res.Channel == ChannelWhatsApp {
			result.WhatsAppURL = res.Link
		}
	}

	transition(CheckoutConfirmed)
	log.Printf("✅ Order %s recorded: %s total %s", order.ID, order.CustomerName,
		utils.FormatCurrency(s.policy.CurrencyLabel, order.GrandTotal))
	return result, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"manglistore-backend/internal/models"
	"manglistore-backend/internal/utils"
)

// Notification channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmailJS  = "emailjs"
)

// NotificationResult is what a channel hands back after notifying
type NotificationResult struct {
	Channel string `json:"channel"`
	// Link is set for channels the client has to open itself
	Link string `json:"link,omitempty"`
}

// Notifier tells the store operator about a recorded order
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, order *models.Order) (*NotificationResult, error)
}

// WhatsAppNotifier builds a wa.me deep link prefilled with the order summary.
// wa.me wants the number as plain digits with country code.
type WhatsAppNotifier struct {
	number        string
	currencyLabel string
}

func NewWhatsAppNotifier(number, currencyLabel string) *WhatsAppNotifier {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	return &WhatsAppNotifier{number: digits, currencyLabel: currencyLabel}
}

func (n *WhatsAppNotifier) Channel() string { return ChannelWhatsApp }

// Message renders the plain-text order summary sent to the operator.
func (n *WhatsAppNotifier) Message(order *models.Order) string {
	money := func(v float64) string { return utils.FormatCurrency(n.currencyLabel, v) }

	var b strings.Builder
	b.WriteString("*New Order Details* \n--------------------------\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s x %d = %s\n", item.Name, item.Quantity, money(item.LineTotal()))
	}
	b.WriteString("\n--------------------------\n")
	fmt.Fprintf(&b, "*Subtotal:* %s\n", money(order.Subtotal))
	if order.DeliveryCharge == 0 {
		fmt.Fprintf(&b, "*Delivery:* %s FREE\n", n.currencyLabel)
	} else {
		fmt.Fprintf(&b, "*Delivery:* %s\n", money(order.DeliveryCharge))
	}
	fmt.Fprintf(&b, "*Grand Total: %s*\n\n", money(order.GrandTotal))
	b.WriteString("📍 Please share your Google Maps location or full address below:")
	return b.String()
}

// Link returns the deep link for the order.
func (n *WhatsAppNotifier) Link(order *models.Order) string {
	text := strings.ReplaceAll(url.QueryEscape(n.Message(order)), "+", "%20")
	return "https://wa.me/" + n.number + "?text=" + text
}

func (n *WhatsAppNotifier) Notify(ctx context.Context, order *models.Order) (*NotificationResult, error) {
	if n.number == "" {
		return nil, fmt.Errorf("whatsapp number is not configured")
	}
	return &NotificationResult{Channel: ChannelWhatsApp, Link: n.Link(order)}, nil
}

// EmailJSConfig identifies the EmailJS service, template and public key
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// EmailJSNotifier sends the order summary through the EmailJS REST relay
type EmailJSNotifier struct {
	cfg           EmailJSConfig
	currencyLabel string
	client        *http.Client
}

// NewEmailJSNotifier creates the notifier with a traced HTTP client.
func NewEmailJSNotifier(cfg EmailJSConfig, currencyLabel string) *EmailJSNotifier {
	return NewEmailJSNotifierWithClient(cfg, currencyLabel, &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewEmailJSNotifierWithClient(cfg EmailJSConfig, currencyLabel string, client *http.Client) *EmailJSNotifier {
	return &EmailJSNotifier{cfg: cfg, currencyLabel: currencyLabel, client: client}
}

func (n *EmailJSNotifier) Channel() string { return ChannelEmailJS }

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// TemplateParams returns the fields handed to the email template.
func (n *EmailJSNotifier) TemplateParams(order *models.Order) map[string]string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("%s x %d = %s", item.Name, item.Quantity,
			utils.FormatCurrency(n.currencyLabel, item.LineTotal())))
	}

	return map[string]string{
		"order_id":        order.ID,
		"customer_name":   order.CustomerName,
		"phone":           order.Phone,
		"address":         order.Address,
		"items":           strings.Join(lines, "\n"),
		"subtotal":        utils.FormatCurrency(n.currencyLabel, order.Subtotal),
		"delivery_charge": utils.FormatCurrency(n.currencyLabel, order.DeliveryCharge),
		"total":           utils.FormatCurrency(n.currencyLabel, order.GrandTotal),
		"delivery_note":   order.DeliveryNote,
	}
}

func (n *EmailJSNotifier) Notify(ctx context.Context, order *models.Order) (*NotificationResult, error) {
	jsonData, err := json.Marshal(emailJSRequest{
		ServiceID:      n.cfg.ServiceID,
		TemplateID:     n.cfg.TemplateID,
		UserID:         n.cfg.PublicKey,
		TemplateParams: n.TemplateParams(order),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("emailjs request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &NotificationResult{Channel: ChannelEmailJS}, nil
}

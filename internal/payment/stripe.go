package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/pricing"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
	"github.com/stripe/stripe-go/v83/webhook"
)

type Stripe struct {
	webhookSecret string
}

// NewStripe sets the global stripe key used by the stripe-go resource packages.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{webhookSecret: webhookSecret}
}

func (s *Stripe) Name() string { return models.PaymentMethodStripe }

func (s *Stripe) CreateOrder(_ context.Context, order *models.Order) (*Intent, error) {
	amount := pricing.MinorUnits(order.Total)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String("inr"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.ID.Hex())
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("user_id", order.UserID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	return &Intent{
		Gateway:        s.Name(),
		GatewayOrderID: intent.ID,
		ClientSecret:   intent.ClientSecret,
		Amount:         amount,
		Currency:       Currency,
		OrderNumber:    order.OrderNumber,
	}, nil
}

// Verify asks Stripe for the intent status instead of trusting the client.
func (s *Stripe) Verify(_ context.Context, c Confirmation) (string, error) {
	if c.GatewayOrderID == "" {
		return "", ErrVerificationFailed
	}
	intent, err := paymentintent.Get(c.GatewayOrderID, nil)
	if err != nil {
		return "", fmt.Errorf("stripe get intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return "", ErrVerificationFailed
	}
	return intent.ID, nil
}

func (s *Stripe) Refund(_ context.Context, order *models.Order, amount float64) (string, error) {
	if order.GatewayOrderID == "" {
		return "", fmt.Errorf("stripe refund: order %s has no intent", order.OrderNumber)
	}
	r, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(order.GatewayOrderID),
		Amount:        stripe.Int64(pricing.MinorUnits(amount)),
		Reason:        stripe.String("requested_by_customer"),
	})
	if err != nil {
		return "", fmt.Errorf("stripe refund: %w", err)
	}
	return r.ID, nil
}

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Event is the part of a gateway webhook the order ledger acts on.
type Event struct {
	Type           string
	GatewayOrderID string
	PaymentID      string
}

// ParseWebhook checks the Stripe-Signature header and decodes the intent.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	out := &Event{Type: string(ev.Type)}
	if out.Type != EventPaymentSucceeded && out.Type != EventPaymentFailed {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	out.GatewayOrderID = pi.ID
	out.PaymentID = pi.ID
	return out, nil
}

// Package payment adapts the hosted payment gateways used at checkout.
package payment

import (
	"context"
	"errors"
	"sort"

	"dryfruit_back_end/internal/models"
)

const Currency = "INR"

var (
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrUnknownGateway     = errors.New("unknown payment gateway")
)

// Intent is what the client needs to open the gateway's hosted payment UI.
type Intent struct {
	Gateway        string `json:"gateway"`
	GatewayOrderID string `json:"gatewayOrderId"`
	KeyID          string `json:"keyId,omitempty"`
	ClientSecret   string `json:"clientSecret,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OrderNumber    string `json:"orderNumber"`
}

// Confirmation is the client callback after the hosted UI closes.
type Confirmation struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, order *models.Order) (*Intent, error)
	// Verify returns the gateway payment id, or ErrVerificationFailed.
	Verify(ctx context.Context, c Confirmation) (string, error)
	Refund(ctx context.Context, order *models.Order, amount float64) (string, error)
}

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		if g != nil {
			r.gateways[g.Name()] = g
		}
	}
	return r
}

func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.gateways[name]
	return g, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

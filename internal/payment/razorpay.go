package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/pricing"
)

// Razorpay talks to the Orders and Refunds REST endpoints.
type Razorpay struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
}

func NewRazorpay(keyID, secret, baseURL string) *Razorpay {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &Razorpay{
		keyID:   keyID,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Razorpay) Name() string { return models.PaymentMethodRazorpay }

func (r *Razorpay) CreateOrder(ctx context.Context, order *models.Order) (*Intent, error) {
	amount := pricing.MinorUnits(order.Total)
	body := map[string]interface{}{
		"amount":   amount,
		"currency": Currency,
		"receipt":  order.OrderNumber,
		"notes": map[string]string{
			"orderId": order.ID.Hex(),
			"userId":  order.UserID,
		},
	}

	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := r.post(ctx, "/v1/orders", body, &out); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	return &Intent{
		Gateway:        r.Name(),
		GatewayOrderID: out.ID,
		KeyID:          r.keyID,
		Amount:         out.Amount,
		Currency:       out.Currency,
		OrderNumber:    order.OrderNumber,
	}, nil
}

func (r *Razorpay) Verify(_ context.Context, c Confirmation) (string, error) {
	if c.GatewayOrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return "", ErrVerificationFailed
	}
	if !VerifySignature(r.secret, c.GatewayOrderID, c.PaymentID, c.Signature) {
		return "", ErrVerificationFailed
	}
	return c.PaymentID, nil
}

func (r *Razorpay) Refund(ctx context.Context, order *models.Order, amount float64) (string, error) {
	if order.GatewayPaymentID == "" {
		return "", fmt.Errorf("razorpay refund: order %s has no payment id", order.OrderNumber)
	}
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]interface{}{"amount": pricing.MinorUnits(amount)}
	if err := r.post(ctx, "/v1/payments/"+order.GatewayPaymentID+"/refund", body, &out); err != nil {
		return "", fmt.Errorf("razorpay refund: %w", err)
	}
	return out.ID, nil
}

func (r *Razorpay) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.keyID, r.secret)
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}

// Sign returns hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

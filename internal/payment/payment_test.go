package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dryfruit_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVerifySignature(t *testing.T) {
	sig := Sign("s3cret", "order_123", "pay_456")
	assert.True(t, VerifySignature("s3cret", "order_123", "pay_456", sig))
	assert.False(t, VerifySignature("other", "order_123", "pay_456", sig))
	assert.False(t, VerifySignature("s3cret", "order_123", "pay_457", sig))

	// flip one byte
	b := []byte(sig)
	if b[0] == 'a' {
		b[0] = 'b'
	} else {
		b[0] = 'a'
	}
	assert.False(t, VerifySignature("s3cret", "order_123", "pay_456", string(b)))

	assert.False(t, VerifySignature("s3cret", "order_123", "pay_456", strings.ToUpper(sig)))
}

func TestRazorpayVerify(t *testing.T) {
	rp := NewRazorpay("key", "s3cret", "")
	c := Confirmation{GatewayOrderID: "order_1", PaymentID: "pay_1", Signature: Sign("s3cret", "order_1", "pay_1")}

	id, err := rp.Verify(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", id)

	c.Signature = Sign("s3cret", "order_1", "pay_2")
	_, err = rp.Verify(context.Background(), c)
	assert.ErrorIs(t, err, ErrVerificationFailed)

	_, err = rp.Verify(context.Background(), Confirmation{})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestRazorpayCreateOrder(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_ABC","amount":141600,"currency":"INR"}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("key", "s3cret", srv.URL)
	order := &models.Order{ID: primitive.NewObjectID(), OrderNumber: "ORD-1", Total: 1416}
	intent, err := rp.CreateOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "order_ABC", intent.GatewayOrderID)
	assert.Equal(t, int64(141600), intent.Amount)
	assert.Equal(t, "key", intent.KeyID)
	assert.Equal(t, float64(141600), got["amount"])
	assert.Equal(t, "ORD-1", got["receipt"])
}

func TestRazorpayCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"bad amount"}}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("key", "s3cret", srv.URL)
	_, err := rp.CreateOrder(context.Background(), &models.Order{OrderNumber: "ORD-2", Total: 10})
	assert.Error(t, err)
}

func TestRazorpayRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_9/refund", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"rfnd_1"}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("key", "s3cret", srv.URL)
	id, err := rp.Refund(context.Background(), &models.Order{GatewayPaymentID: "pay_9"}, 100)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", id)

	_, err = rp.Refund(context.Background(), &models.Order{}, 100)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewRazorpay("k", "s", ""), nil)
	_, ok := r.Get(models.PaymentMethodRazorpay)
	assert.True(t, ok)
	_, ok = r.Get(models.PaymentMethodStripe)
	assert.False(t, ok)
	assert.Equal(t, []string{"razorpay"}, r.Names())
}

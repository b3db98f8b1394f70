package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/services/cart"
	"dryfruit_back_end/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type events struct {
	mu  sync.Mutex
	got []string
}

func (e *events) CartChanged(_ context.Context, userID, event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, userID+":"+event)
}

type noLive struct{}

func (noLive) SubscribeCart(context.Context, string) *redis.PubSub { return nil }

type fixture struct {
	router  *gin.Engine
	almonds *models.Product
	events  *events
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	almonds := &models.Product{LegacyID: 1, Name: "California Almonds", Slug: "california-almonds", Price: 450, StockCount: 5, IsActive: true}
	products := memstore.NewProducts(almonds)
	coupons := memstore.NewCoupons(models.Coupon{Code: "SAVE10", Type: models.CouponPercentage, Value: 10, IsActive: true})
	ev := &events{}

	h := NewHandler(cart.NewService(products, memstore.NewCart(), coupons, ev), noLive{}, "https://shop.example.com/")

	r := gin.New()
	g := r.Group("/api/cart", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	g.GET("", h.Get)
	g.POST("", h.Add)
	g.PUT("", h.Update)
	g.DELETE("", h.Clear)
	g.DELETE("/:productId", h.Remove)
	g.GET("/ws", h.Live)
	return &fixture{router: r, almonds: almonds, events: ev}
}

func (f *fixture) do(method, path, body string) (int, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestAddByLegacyIDAndSummarize(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(http.MethodPost, "/api/cart", `{"productId":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 2, body["count"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, f.almonds.ID.Hex(), items[0].(map[string]interface{})["productId"])

	summary := body["summary"].(map[string]interface{})
	assert.EqualValues(t, 900, summary["subtotal"])
	assert.EqualValues(t, 162, summary["tax"])
	assert.EqualValues(t, 99, summary["shipping"])
	assert.EqualValues(t, 1161, summary["total"])

	code, body = f.do(http.MethodGet, "/api/cart?couponCode=SAVE10", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["coupon"].(map[string]interface{})["isValid"])
	assert.EqualValues(t, 1071, body["summary"].(map[string]interface{})["total"])

	assert.Equal(t, []string{"user-1:updated"}, f.events.got)
}

func TestAddBeyondStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(http.MethodPost, "/api/cart", `{"productId":"california-almonds","quantity":4}`)
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(http.MethodPost, "/api/cart", `{"productId":"1","quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Only 5 available", body["error"])
	assert.EqualValues(t, 5, body["available"])

	_, body = f.do(http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 4, body["items"].([]interface{})[0].(map[string]interface{})["quantity"])
}

func TestValidation(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(http.MethodPost, "/api/cart", `{"productId":"1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(http.MethodPost, "/api/cart", `{"productId":"1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := f.do(http.MethodPost, "/api/cart", `{"productId":"404","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", body["error"])
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	id := f.almonds.ID.Hex()
	f.do(http.MethodPost, "/api/cart", `{"productId":"`+id+`","quantity":1}`)

	code, body := f.do(http.MethodPut, "/api/cart", `{"productId":"`+id+`","quantity":3}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["items"].([]interface{})[0].(map[string]interface{})["quantity"])

	code, body = f.do(http.MethodPut, "/api/cart", `{"productId":"`+id+`","quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])

	code, body = f.do(http.MethodDelete, "/api/cart/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Item not found in cart", body["error"])

	f.do(http.MethodPost, "/api/cart", `{"productId":"`+id+`","quantity":1}`)
	code, _ = f.do(http.MethodDelete, "/api/cart", "")
	assert.Equal(t, http.StatusOK, code)
	_, body = f.do(http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 0, body["count"])
	assert.Contains(t, f.events.got, "user-1:cleared")
}

func TestLiveSyncChecksOrigin(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cart/ws", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the storefront itself gets past the origin gate
	req = httptest.NewRequest(http.MethodGet, "/api/cart/ws", nil)
	req.Header.Set("Origin", "https://SHOP.example.com")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	check := sameOrigin("")
	req.Header.Set("Origin", "https://shop.example.com")
	assert.False(t, check(req))
}

func TestLiveSyncUnavailableWithoutRedis(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(http.MethodGet, "/api/cart/ws", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Live cart sync is unavailable", body["error"])
}

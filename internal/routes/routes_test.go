package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dryfruit_back_end/internal/cache"
	"dryfruit_back_end/internal/handlers/admin"
	"dryfruit_back_end/internal/handlers/auth"
	"dryfruit_back_end/internal/handlers/cart"
	"dryfruit_back_end/internal/handlers/content"
	"dryfruit_back_end/internal/handlers/order"
	"dryfruit_back_end/internal/handlers/product"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/payment"
	"dryfruit_back_end/internal/services/account"
	adminsvc "dryfruit_back_end/internal/services/admin"
	cartsvc "dryfruit_back_end/internal/services/cart"
	"dryfruit_back_end/internal/services/catalog"
	"dryfruit_back_end/internal/services/checkout"
	contentsvc "dryfruit_back_end/internal/services/content"
	"dryfruit_back_end/internal/store/memstore"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-secret"

type fixture struct {
	router   *gin.Engine
	admin    *models.User
	customer *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := memstore.NewProducts(&models.Product{Name: "Pistachios", Slug: "pistachios", Price: 800, StockCount: 10, IsActive: true})
	adminUser := &models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	customer := &models.User{Email: "asha@example.com", Name: "Asha", Role: models.RoleCustomer}
	users := memstore.NewUsers(adminUser, customer)
	orders := memstore.NewOrders()
	coupons := memstore.NewCoupons()
	messages := memstore.NewMessages()
	redis := cache.New(nil)
	auditor := utils.NewAuditor(nil)

	accounts := account.NewService(users, redis, nil, secret)
	catalogSvc := catalog.NewService(products, memstore.NewReviews(), orders, nil, nil, redis)
	carts := cartsvc.NewService(products, memstore.NewCart(), coupons, redis)
	checkoutSvc := checkout.NewService(checkout.Deps{
		Orders: orders, Inventory: products, Carts: carts, Coupons: coupons, Users: users,
		Tx: memstore.Tx{}, Gateways: payment.NewRegistry(),
	})
	contentSvc := contentsvc.NewService(messages, memstore.NewBlog(), memstore.NewSettings(), nil, models.Settings{StoreName: "Nutri Farm"})

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:    auth.NewHandler(accounts, nil, auditor, "http://shop.test", false),
		Product: product.NewHandler(catalogSvc, accounts),
		Cart:    cart.NewHandler(carts, redis, "http://shop.test"),
		Order:   order.NewHandler(checkoutSvc, utils.NewInvoiceRenderer(false, "Nutri Farm", ""), nil),
		Content: content.NewHandler(contentSvc),
		Admin: admin.NewHandler(admin.Deps{
			Catalog:  catalogSvc,
			Checkout: checkoutSvc,
			Admin:    adminsvc.NewService(adminsvc.Deps{Orders: orders, Products: products, Users: users, Messages: messages, Coupons: coupons}),
			Accounts: accounts,
			Content:  contentSvc,
			Auditor:  auditor,
		}),
	}, secret, redis, auditor)

	return &fixture{router: r, admin: adminUser, customer: customer}
}

func (f *fixture) get(t *testing.T, path string, as *models.User) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if as != nil {
		token, _, err := utils.GenerateJWT(secret, as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w.Code
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/health", "/api/products", "/api/products/pistachios", "/api/products/categories", "/api/blog", "/api/settings", "/api/payments/methods"} {
		assert.Equal(t, http.StatusOK, f.get(t, path, nil), path)
	}
}

func TestCustomerRoutesNeedToken(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/cart", "/api/orders", "/api/auth/me", "/api/auth/addresses"} {
		assert.Equal(t, http.StatusUnauthorized, f.get(t, path, nil), path)
		assert.Equal(t, http.StatusOK, f.get(t, path, f.customer), path)
	}
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/admin/products", "/api/admin/orders", "/api/admin/coupons", "/api/admin/analytics", "/api/admin/users"} {
		assert.Equal(t, http.StatusUnauthorized, f.get(t, path, nil), path)
		assert.Equal(t, http.StatusForbidden, f.get(t, path, f.customer), path)
		assert.Equal(t, http.StatusOK, f.get(t, path, f.admin), path)
	}
	assert.Equal(t, http.StatusForbidden, f.get(t, "/api/admin/audit", f.admin))
}

func TestStripeWebhookWithoutStripe(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/stripe/webhook", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

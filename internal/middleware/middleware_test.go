package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "middleware-test-secret"

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newCounter() *memCounter { return &memCounter{counts: map[string]int64{}} }

func (m *memCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memCounter) Count(_ context.Context, key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *memCounter) TTL(context.Context, string) time.Duration { return 90 * time.Second }

func (m *memCounter) Del(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.counts, k)
	}
}

type revoked map[string]bool

func (r revoked) IsBlacklisted(_ context.Context, jti string) bool { return r[jti] }

func init() { gin.SetMode(gin.TestMode) }

func token(t *testing.T, role string) (string, *utils.Claims) {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Email: "asha@example.com", Role: role}
	signed, claims, err := utils.GenerateJWT(testSecret, user)
	require.NoError(t, err)
	return signed, claims
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func authRouter(blacklist Blacklist) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(testSecret, blacklist), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role"), "jti": Claims(c).ID})
	})
	r.GET("/admin", AuthRequired(testSecret, blacklist), RequireAdmin, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.DELETE("/orders/:id", AuthRequired(testSecret, blacklist), RequirePermission(models.PermOrdersDelete), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequiredAcceptsBearerAndCookie(t *testing.T) {
	signed, claims := token(t, models.RoleCustomer)
	r := authRouter(revoked{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, claims.UserID, body["user_id"])
	assert.Equal(t, models.RoleCustomer, body["role"])
	assert.Equal(t, claims.ID, body["jti"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiredRejects(t *testing.T) {
	signed, claims := token(t, models.RoleCustomer)
	other, _, err := utils.GenerateJWT("another-secret", &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	require.NoError(t, err)

	cases := map[string]struct {
		header    string
		blacklist revoked
	}{
		"missing":       {"", revoked{}},
		"malformed":     {"Token " + signed, revoked{}},
		"wrong secret":  {"Bearer " + other, revoked{}},
		"garbage":       {"Bearer not.a.jwt", revoked{}},
		"revoked token": {"Bearer " + signed, revoked{claims.ID: true}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			authRouter(tc.blacklist).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestRoleGates(t *testing.T) {
	r := authRouter(nil)
	cases := []struct {
		role        string
		adminStatus int
		deleteCode  int
	}{
		{models.RoleCustomer, http.StatusForbidden, http.StatusForbidden},
		{models.RoleAdmin, http.StatusNoContent, http.StatusForbidden},
		{models.RoleSuperAdmin, http.StatusNoContent, http.StatusNoContent},
	}
	for _, tc := range cases {
		signed, _ := token(t, tc.role)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.adminStatus, w.Code, tc.role)

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodDelete, "/orders/ORD-1", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.deleteCode, w.Code, tc.role)
	}
}

func TestLoginRateLimitLocksAfterFailures(t *testing.T) {
	counter := newCounter()
	r := gin.New()
	r.POST("/login", LoginRateLimit(counter), func(c *gin.Context) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, c.ShouldBindJSON(&in))
		if in.Password != "correct-horse" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	login := func(password string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		body := `{"email":"Asha@Example.com","password":"` + password + `"}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)))
		return w
	}

	login("wrong")
	assert.Equal(t, http.StatusOK, login("correct-horse").Code)
	assert.Zero(t, counter.Count(context.Background(), "login_attempts:asha@example.com"))

	for i := 0; i < LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, login("wrong").Code)
	}
	w := login("correct-horse")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.EqualValues(t, 90, decode(t, w)["retry_after"])
}

func TestRegisterRateLimitCountsCreatedOnly(t *testing.T) {
	counter := newCounter()
	status := http.StatusCreated
	r := gin.New()
	r.POST("/register", RegisterRateLimit(counter), func(c *gin.Context) { c.Status(status) })

	post := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))
		return w.Code
	}

	status = http.StatusConflict
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusConflict, post())
	}
	status = http.StatusCreated
	for i := 0; i < RegisterMaxAttempts; i++ {
		assert.Equal(t, http.StatusCreated, post())
	}
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestCartRateLimitPerUser(t *testing.T) {
	counter := newCounter()
	r := gin.New()
	r.POST("/cart", func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Next()
	}, CartRateLimit(counter), func(c *gin.Context) { c.Status(http.StatusOK) })

	add := func(user string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart", nil)
		req.Header.Set("X-User", user)
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < CartMaxAdds; i++ {
		require.Equal(t, http.StatusOK, add("u1").Code)
	}
	w := add("u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decode(t, w), "retry_after")

	w = add("u2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "19", w.Header().Get("X-RateLimit-Remaining"))
}

func TestAuditRecordsChange(t *testing.T) {
	r := gin.New()
	r.PUT("/products/:id", Audit(utils.NewAuditor(nil), utils.ActionProductUpdate, utils.ResourceProduct), func(c *gin.Context) {
		RecordChange(c, "", gin.H{"price": 450}, gin.H{"price": 420})
		c.Status(http.StatusOK)
	})
	r.DELETE("/products/:id", Audit(utils.NewAuditor(nil), utils.ActionProductDelete, utils.ResourceProduct), func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/products/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/services/account"
	"dryfruit_back_end/internal/store/memstore"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "handler-secret"

type tokens struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (t *tokens) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = true
	return nil
}

func (t *tokens) IsBlacklisted(_ context.Context, jti string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revoked[jti]
}

func (t *tokens) AllowResend(context.Context, string) bool { return true }

type silent struct{ codes map[string]string }

func (s *silent) VerificationCode(email, _, code string) { s.codes[email] = code }
func (s *silent) Welcome(string, string)                {}

type fakeOAuth struct {
	user goth.User
	err  error
}

func (f *fakeOAuth) Provider() string { return "google" }

func (f *fakeOAuth) Begin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "https://accounts.google.com/o/oauth2/auth", http.StatusTemporaryRedirect)
}

func (f *fakeOAuth) Complete(http.ResponseWriter, *http.Request) (goth.User, error) {
	return f.user, f.err
}

type fixture struct {
	router *gin.Engine
	users  *memstore.Users
	mails  *silent
	oauth  *fakeOAuth
}

func newFixture(t *testing.T, users ...*models.User) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memstore.NewUsers(users...)
	tk := &tokens{revoked: map[string]bool{}}
	mails := &silent{codes: map[string]string{}}
	oauth := &fakeOAuth{}
	h := NewHandler(account.NewService(store, tk, mails, secret), oauth, utils.NewAuditor(nil), "http://shop.test/", false)

	r := gin.New()
	authed := middleware.AuthRequired(secret, tk)
	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", authed, h.Logout)
	api.GET("/auth/me", authed, h.Me)
	api.POST("/auth/verify-email", h.VerifyEmail)
	api.GET("/auth/google", h.GoogleBegin)
	api.GET("/auth/google/callback", h.GoogleCallback)
	api.PUT("/auth/profile", authed, h.UpdateProfile)
	api.GET("/auth/addresses", authed, h.ListAddresses)
	api.POST("/auth/addresses", authed, h.AddAddress)
	api.DELETE("/auth/addresses/:id", authed, h.DeleteAddress)
	api.POST("/admin/auth/login", h.AdminLogin)
	api.GET("/admin/verify", authed, middleware.RequireAdmin, h.AdminVerify)
	return &fixture{router: r, users: store, mails: mails, oauth: oauth}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func tokenCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	return nil
}

func TestRegisterMeLogout(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/auth/register", "", `{"name":"Asha","email":"Asha@Example.com","password":"almonds-2024"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	token := body["token"].(string)
	assert.Equal(t, "asha@example.com", body["user"].(map[string]interface{})["email"])
	assert.NotContains(t, w.Body.String(), "password")

	cookie := tokenCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, token, cookie.Value)

	w = f.do(http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asha", decode(t, w)["user"].(map[string]interface{})["name"])

	w = f.do(http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, tokenCookie(w).MaxAge)

	w = f.do(http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/auth/register", "", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"a@b.co","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"a@b.co","password":"long-enough"}`).Code)
	w = f.do(http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"A@B.co","password":"long-enough"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginAndVerifyEmail(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/auth/register", "", `{"name":"Ravi","email":"ravi@example.com","password":"pistachio-99"}`).Code)

	w := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"ravi@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["error"])

	w = f.do(http.MethodPost, "/api/auth/login", "", `{"email":" RAVI@example.com ","password":"pistachio-99"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	w = f.do(http.MethodPost, "/api/auth/verify-email", "", `{"email":"ravi@example.com","code":"000000x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code := f.mails.codes["ravi@example.com"]
	w = f.do(http.MethodPost, "/api/auth/verify-email", "", `{"email":"ravi@example.com","code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["user"].(map[string]interface{})["emailVerified"])
}

func adminUser(t *testing.T, role string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("admin-pass-1")
	require.NoError(t, err)
	return &models.User{ID: primitive.NewObjectID(), Email: role + "@store.test", Name: role, Role: role, Password: hash}
}

func TestAdminLoginAndVerify(t *testing.T) {
	f := newFixture(t, adminUser(t, models.RoleAdmin), adminUser(t, models.RoleCustomer))

	w := f.do(http.MethodPost, "/api/admin/auth/login", "", `{"email":"customer@store.test","password":"admin-pass-1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, "/api/admin/auth/login", "", `{"email":"admin@store.test","password":"admin-pass-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = f.do(http.MethodGet, "/api/admin/verify", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Contains(t, body["permissions"], models.PermOrdersEdit)

	w = f.do(http.MethodPost, "/api/auth/login", "", `{"email":"customer@store.test","password":"admin-pass-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, "/api/admin/verify", decode(t, w)["token"].(string), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoogleCallback(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/auth/google", "", "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	f.oauth.user = goth.User{UserID: "g-123", Email: "meera@gmail.com", Name: "Meera"}
	w = f.do(http.MethodGet, "/api/auth/google/callback?code=abc", "", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "http://shop.test/auth/callback#token="), loc)
	require.NotNil(t, tokenCookie(w))

	u, err := f.users.FindByEmail(context.Background(), "meera@gmail.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	f.oauth.err = errors.New("state mismatch")
	w = f.do(http.MethodGet, "/api/auth/google/callback", "", "")
	assert.Equal(t, "http://shop.test/login?error=oauth", w.Header().Get("Location"))
}

func TestGoogleDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil, "http://shop.test", false)
	r := gin.New()
	r.GET("/api/auth/google", h.GoogleBegin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileAndAddresses(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/auth/register", "", `{"name":"Kiran","email":"kiran@example.com","password":"walnuts-123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["token"].(string)

	w = f.do(http.MethodPut, "/api/auth/profile", token, `{"name":"Kiran R","phone":"+91 98450 00000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kiran R", decode(t, w)["user"].(map[string]interface{})["name"])

	w = f.do(http.MethodPost, "/api/auth/addresses", token, `{"label":"home","fullName":"Kiran R","line1":"12 MG Road","city":"Bengaluru","state":"KA","postalCode":"560001"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	addrs := decode(t, w)["addresses"].([]interface{})
	require.Len(t, addrs, 1)
	first := addrs[0].(map[string]interface{})
	assert.Equal(t, true, first["isDefault"])
	assert.Equal(t, "India", first["country"])

	w = f.do(http.MethodPost, "/api/auth/addresses", token, `{"label":"garage","fullName":"K","line1":"x","city":"y","postalCode":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, "/api/auth/addresses/missing", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/api/auth/addresses/"+first["id"].(string), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["addresses"])
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dryfruit_back_end/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	Error(c, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{apperr.Auth("Token missing"), http.StatusUnauthorized, "Token missing"},
		{apperr.Forbidden("Admin access required"), http.StatusForbidden, "Admin access required"},
		{apperr.NotFound("Item not found in cart"), http.StatusNotFound, "Item not found in cart"},
		{apperr.Conflict("duplicate"), http.StatusConflict, "duplicate"},
		{apperr.Upstream("Payment gateway unavailable", errors.New("tls timeout")), http.StatusBadGateway, "Payment gateway unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
		{apperr.RateLimited("slow down", 60), http.StatusTooManyRequests, "slow down"},
	}
	for _, tc := range cases {
		status, body := run(t, tc.err)
		assert.Equal(t, tc.status, status, tc.msg)
		assert.Equal(t, tc.msg, body["error"])
	}
}

func TestErrorCarriesFields(t *testing.T) {
	status, body := run(t, apperr.InsufficientStock("Only 3 available", 3))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, float64(3), body["available"])

	_, body = run(t, apperr.Upstream("Payment gateway unavailable", errors.New("secret detail")))
	assert.NotContains(t, body["error"], "secret detail")
}

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/x?page=3&limit=1000", nil)
	p := Page(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.Limit)
}

// Package auth serves sign-up, sign-in and the customer's account pages.
package auth

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/account"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
)

// OAuth runs one provider's redirect flow.
type OAuth interface {
	Provider() string
	Begin(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request) (goth.User, error)
}

type Handler struct {
	accounts     *account.Service
	oauth        OAuth
	auditor      *utils.Auditor
	frontendURL  string
	secureCookie bool
}

// NewHandler takes a nil oauth when Google sign-in is not configured.
func NewHandler(accounts *account.Service, oauth OAuth, auditor *utils.Auditor, frontendURL string, secureCookie bool) *Handler {
	return &Handler{
		accounts:     accounts,
		oauth:        oauth,
		auditor:      auditor,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		secureCookie: secureCookie,
	}
}

func (h *Handler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(utils.TokenTTL.Seconds()), "/", "", h.secureCookie, true)
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
}

func (h *Handler) signedIn(c *gin.Context, status int, sess *account.Session) {
	h.setSession(c, sess.Token)
	c.JSON(status, gin.H{
		"user":      sess.User,
		"token":     sess.Token,
		"expiresAt": sess.Claims.ExpiresAt.Time,
	})
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	sess, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	log.Printf("✅ New account: %s", sess.User.Email)
	h.signedIn(c, http.StatusCreated, sess)
}

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)), input.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.signedIn(c, http.StatusOK, sess)
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if claims := middleware.Claims(c); claims != nil {
		if err := h.accounts.Logout(c.Request.Context(), claims.ID, claims.Remaining()); err != nil {
			response.Error(c, err)
			return
		}
	}
	h.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// POST /api/auth/verify-email
func (h *Handler) VerifyEmail(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	u, err := h.accounts.VerifyEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)), input.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified", "user": u})
}

// POST /api/auth/resend-code
func (h *Handler) ResendCode(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := h.accounts.ResendCode(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email))); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "A new code has been sent"})
}

// POST /api/admin/auth/login
func (h *Handler) AdminLogin(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	c.Set("email", email)

	sess, err := h.accounts.AdminLogin(c.Request.Context(), email, input.Password)
	if err != nil {
		h.auditor.LogFailedAction(c, utils.ActionAdminLoginFailed, utils.ResourceAuth, "", err.Error())
		response.Error(c, err)
		return
	}
	c.Set("user_id", sess.User.ID.Hex())
	h.auditor.LogAction(c, utils.ActionAdminLogin, utils.ResourceAuth, sess.User.ID.Hex(), nil, nil)
	h.signedIn(c, http.StatusOK, sess)
}

// POST /api/admin/auth/logout
func (h *Handler) AdminLogout(c *gin.Context) {
	h.Logout(c)
	if !c.IsAborted() {
		h.auditor.LogAction(c, utils.ActionAdminLogout, utils.ResourceAuth, c.GetString("user_id"), nil, nil)
	}
}

// GET /api/admin/verify
func (h *Handler) AdminVerify(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !u.IsAdmin() {
		response.Error(c, apperr.Forbidden("Admin access required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":       true,
		"user":        u,
		"permissions": models.PermissionsFor(u.Role),
	})
}

// GET /api/auth/google
func (h *Handler) GoogleBegin(c *gin.Context) {
	if h.oauth == nil {
		response.Error(c, apperr.NotFound("Google sign-in is not available"))
		return
	}
	h.oauth.Begin(c.Writer, c.Request)
}

// GET /api/auth/google/callback
// The storefront picks the token up from the URL fragment; the cookie is
// set as well for same-site deployments.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.oauth == nil {
		response.Error(c, apperr.NotFound("Google sign-in is not available"))
		return
	}
	gu, err := h.oauth.Complete(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ Google callback: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=oauth")
		return
	}

	sess, err := h.accounts.OAuthLogin(c.Request.Context(), h.oauth.Provider(), gu.UserID, gu.Email, gu.Name)
	if err != nil {
		log.Printf("❌ Google sign-in for %s: %v", gu.Email, err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=oauth")
		return
	}
	h.setSession(c, sess.Token)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback#token="+url.QueryEscape(sess.Token))
}

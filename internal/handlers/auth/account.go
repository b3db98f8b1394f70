package auth

import (
	"net/http"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

// PUT /api/auth/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), c.GetString("user_id"), input.Name, input.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// PUT /api/auth/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), c.GetString("user_id"), input.CurrentPassword, input.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// PUT /api/auth/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var input models.Preferences
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	prefs, err := h.accounts.UpdatePreferences(c.Request.Context(), c.GetString("user_id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

func (h *Handler) addresses(c *gin.Context, status int, addrs []models.Address, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(status, gin.H{"addresses": addrs})
}

// GET /api/auth/addresses
func (h *Handler) ListAddresses(c *gin.Context) {
	addrs, err := h.accounts.Addresses(c.Request.Context(), c.GetString("user_id"))
	h.addresses(c, http.StatusOK, addrs, err)
}

// POST /api/auth/addresses
func (h *Handler) AddAddress(c *gin.Context) {
	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	addrs, err := h.accounts.AddAddress(c.Request.Context(), c.GetString("user_id"), input)
	h.addresses(c, http.StatusCreated, addrs, err)
}

// PUT /api/auth/addresses/:id
func (h *Handler) UpdateAddress(c *gin.Context) {
	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	addrs, err := h.accounts.UpdateAddress(c.Request.Context(), c.GetString("user_id"), c.Param("id"), input)
	h.addresses(c, http.StatusOK, addrs, err)
}

// DELETE /api/auth/addresses/:id
func (h *Handler) DeleteAddress(c *gin.Context) {
	addrs, err := h.accounts.DeleteAddress(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	h.addresses(c, http.StatusOK, addrs, err)
}

// PUT /api/auth/addresses/:id/default
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	addrs, err := h.accounts.SetDefaultAddress(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	h.addresses(c, http.StatusOK, addrs, err)
}

package admin

import (
	"net/http"

	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/coupons
func (h *Handler) ListCoupons(c *gin.Context) {
	coupons, err := h.Admin.ListCoupons(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

// POST /api/admin/coupons
func (h *Handler) CreateCoupon(c *gin.Context) {
	var input models.Coupon
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	created, err := h.Admin.CreateCoupon(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, created.Code, nil, created)
	c.JSON(http.StatusCreated, gin.H{"coupon": created})
}

// PUT /api/admin/coupons/:id
func (h *Handler) UpdateCoupon(c *gin.Context) {
	var input models.Coupon
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	before, after, err := h.Admin.UpdateCoupon(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, "", before, after)
	c.JSON(http.StatusOK, gin.H{"coupon": after})
}

// DELETE /api/admin/coupons/:id
func (h *Handler) DeleteCoupon(c *gin.Context) {
	if err := h.Admin.DeleteCoupon(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

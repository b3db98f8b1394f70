package content

import (
	"net/http"

	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/content"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	content *content.Service
}

func NewHandler(svc *content.Service) *Handler {
	return &Handler{content: svc}
}

// POST /api/contact
func (h *Handler) Contact(c *gin.Context) {
	var input struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	msg, err := h.content.SubmitContact(c.Request.Context(), content.ContactInput{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thanks, we will get back to you soon", "id": msg.ID.Hex()})
}

// GET /api/blog
func (h *Handler) ListPosts(c *gin.Context) {
	page, err := h.content.ListPosts(c.Request.Context(), false, c.Query("tag"), response.Page(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/blog/:slug
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.content.GetPost(c.Request.Context(), c.Param("slug"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// GET /api/settings
//
// The public subset shown in the storefront header and footer.
func (h *Handler) Settings(c *gin.Context) {
	st, err := h.content.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"storeName":             st.StoreName,
		"supportEmail":          st.SupportEmail,
		"supportPhone":          st.SupportPhone,
		"announcement":          st.Announcement,
		"freeShippingThreshold": st.FreeShippingThreshold,
		"maintenance":           st.Maintenance,
	})
}

package routes

import (
	"net/http"

	"dryfruit_back_end/internal/cache"
	"dryfruit_back_end/internal/handlers/admin"
	"dryfruit_back_end/internal/handlers/auth"
	"dryfruit_back_end/internal/handlers/cart"
	"dryfruit_back_end/internal/handlers/content"
	"dryfruit_back_end/internal/handlers/order"
	"dryfruit_back_end/internal/handlers/product"
	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth    *auth.Handler
	Product *product.Handler
	Cart    *cart.Handler
	Order   *order.Handler
	Content *content.Handler
	Admin   *admin.Handler
}

// RegisterRoutes mounts the storefront API and the admin API. The cache
// doubles as the token blacklist and the rate-limit counter.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string, redis *cache.Client, auditor *utils.Auditor) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := middleware.AuthRequired(jwtSecret, redis)

	// Stripe posts here directly; it must not share the API rate limit.
	r.POST("/api/payments/stripe/webhook", h.Order.StripeWebhook)

	api := r.Group("/api", middleware.APIRateLimit(redis))

	// Auth
	a := api.Group("/auth")
	{
		a.POST("/register", middleware.RegisterRateLimit(redis), h.Auth.Register)
		a.POST("/login", middleware.LoginRateLimit(redis), h.Auth.Login)
		a.POST("/verify-email", h.Auth.VerifyEmail)
		a.POST("/resend-code", h.Auth.ResendCode)
		a.GET("/google", h.Auth.GoogleBegin)
		a.GET("/google/callback", h.Auth.GoogleCallback)

		a.POST("/logout", authed, h.Auth.Logout)
		a.GET("/me", authed, h.Auth.Me)
		a.PUT("/profile", authed, h.Auth.UpdateProfile)
		a.PUT("/password", authed, h.Auth.ChangePassword)
		a.PUT("/preferences", authed, h.Auth.UpdatePreferences)
		a.GET("/addresses", authed, h.Auth.ListAddresses)
		a.POST("/addresses", authed, h.Auth.AddAddress)
		a.PUT("/addresses/:id", authed, h.Auth.UpdateAddress)
		a.DELETE("/addresses/:id", authed, h.Auth.DeleteAddress)
		a.PUT("/addresses/:id/default", authed, h.Auth.SetDefaultAddress)
	}

	// Catalog
	api.GET("/products", h.Product.List)
	api.GET("/products/categories", h.Product.Categories)
	api.GET("/products/:id", h.Product.Get)
	api.GET("/products/:id/reviews", h.Product.ListReviews)
	api.POST("/products/:id/reviews", authed, h.Product.AddReview)
	api.POST("/reviews/:id/helpful", h.Product.MarkHelpful)

	// Cart
	c := api.Group("/cart", authed)
	{
		c.GET("", h.Cart.Get)
		c.GET("/ws", h.Cart.Live)
		c.POST("", middleware.CartRateLimit(redis), h.Cart.Add)
		c.PUT("", middleware.CartRateLimit(redis), h.Cart.Update)
		c.DELETE("", h.Cart.Clear)
		c.DELETE("/:productId", h.Cart.Remove)
	}

	// Orders
	o := api.Group("/orders", authed)
	{
		o.POST("", h.Order.Create)
		o.GET("", h.Order.List)
		o.POST("/verify-payment", h.Order.VerifyPayment)
		o.GET("/:id", h.Order.Get)
		o.GET("/:id/invoice", h.Order.Invoice)
		o.POST("/:id/cancel", h.Order.Cancel)
		o.POST("/:id/retry-payment", h.Order.RetryPayment)
	}

	api.GET("/payments/methods", h.Order.PaymentMethods)

	// Content
	api.POST("/contact", middleware.ContactRateLimit(redis), h.Content.Contact)
	api.GET("/blog", h.Content.ListPosts)
	api.GET("/blog/:slug", h.Content.GetPost)
	api.GET("/settings", h.Content.Settings)

	registerAdmin(api, h, authed, auditor, redis)
}

func registerAdmin(api *gin.RouterGroup, h Handlers, authed gin.HandlerFunc, auditor *utils.Auditor, redis *cache.Client) {
	audit := func(action, resource string) gin.HandlerFunc { return middleware.Audit(auditor, action, resource) }
	can := middleware.RequirePermission

	api.POST("/admin/auth/login", middleware.LoginRateLimit(redis), h.Auth.AdminLogin)

	g := api.Group("/admin", authed, middleware.RequireAdmin)
	g.POST("/auth/logout", h.Auth.AdminLogout)
	g.GET("/verify", h.Auth.AdminVerify)

	g.GET("/analytics", h.Admin.Analytics)
	g.GET("/audit", can(models.PermAuditView), h.Admin.AuditLogs)

	// Products
	g.GET("/products", h.Admin.ListProducts)
	g.GET("/products/:id", h.Admin.GetProduct)
	g.POST("/products", can(models.PermProductsEdit), audit(utils.ActionProductCreate, utils.ResourceProduct), h.Admin.CreateProduct)
	g.PUT("/products/:id", can(models.PermProductsEdit), audit(utils.ActionProductUpdate, utils.ResourceProduct), h.Admin.UpdateProduct)
	g.DELETE("/products/:id", can(models.PermProductsEdit), audit(utils.ActionProductDelete, utils.ResourceProduct), h.Admin.DeleteProduct)
	g.POST("/products/:id/images", can(models.PermProductsEdit), audit(utils.ActionProductImage, utils.ResourceProduct), h.Admin.UploadImage)
	g.POST("/products/:id/stock", can(models.PermProductsEdit), audit(utils.ActionStockAdjust, utils.ResourceInventory), h.Admin.AdjustStock)
	g.GET("/products/:id/movements", h.Admin.Movements)

	// Orders
	g.GET("/orders", h.Admin.ListOrders)
	g.GET("/orders/:orderNumber", h.Admin.GetOrder)
	g.GET("/orders/:orderNumber/invoice", h.Order.AdminInvoice)
	g.PUT("/orders/:orderNumber", can(models.PermOrdersEdit), audit(utils.ActionOrderUpdate, utils.ResourceOrder), h.Admin.UpdateOrder)
	g.DELETE("/orders/:orderNumber", can(models.PermOrdersDelete), audit(utils.ActionOrderDelete, utils.ResourceOrder), h.Admin.DeleteOrder)

	// Coupons
	g.GET("/coupons", h.Admin.ListCoupons)
	g.POST("/coupons", can(models.PermCouponsEdit), audit(utils.ActionCouponCreate, utils.ResourceCoupon), h.Admin.CreateCoupon)
	g.PUT("/coupons/:id", can(models.PermCouponsEdit), audit(utils.ActionCouponUpdate, utils.ResourceCoupon), h.Admin.UpdateCoupon)
	g.DELETE("/coupons/:id", can(models.PermCouponsEdit), audit(utils.ActionCouponDelete, utils.ResourceCoupon), h.Admin.DeleteCoupon)

	// Users
	g.GET("/users", can(models.PermUsersView), h.Admin.ListUsers)
	g.PUT("/users/:id/role", can(models.PermUsersRole), audit(utils.ActionUserRole, utils.ResourceUser), h.Admin.SetRole)

	// Messages, settings, blog
	g.GET("/messages", h.Admin.ListMessages)
	g.PUT("/messages/:id", can(models.PermMessagesEdit), audit(utils.ActionMessageUpdate, utils.ResourceMessage), h.Admin.UpdateMessage)
	g.DELETE("/messages/:id", can(models.PermMessagesEdit), audit(utils.ActionMessageDelete, utils.ResourceMessage), h.Admin.DeleteMessage)
	g.GET("/settings", h.Admin.GetSettings)
	g.PUT("/settings", can(models.PermSettingsEdit), audit(utils.ActionSettingsUpdate, utils.ResourceSettings), h.Admin.SaveSettings)
	g.POST("/blog", can(models.PermBlogEdit), audit(utils.ActionBlogCreate, utils.ResourceBlog), h.Admin.CreatePost)
}

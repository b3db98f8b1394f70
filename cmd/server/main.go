package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dryfruit_back_end/internal/auth"
	"dryfruit_back_end/internal/cache"
	"dryfruit_back_end/internal/config"
	"dryfruit_back_end/internal/database"
	adminapi "dryfruit_back_end/internal/handlers/admin"
	authapi "dryfruit_back_end/internal/handlers/auth"
	cartapi "dryfruit_back_end/internal/handlers/cart"
	contentapi "dryfruit_back_end/internal/handlers/content"
	orderapi "dryfruit_back_end/internal/handlers/order"
	productapi "dryfruit_back_end/internal/handlers/product"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/payment"
	"dryfruit_back_end/internal/pricing"
	"dryfruit_back_end/internal/routes"
	"dryfruit_back_end/internal/services"
	"dryfruit_back_end/internal/services/account"
	"dryfruit_back_end/internal/services/admin"
	"dryfruit_back_end/internal/services/cart"
	"dryfruit_back_end/internal/services/catalog"
	"dryfruit_back_end/internal/services/checkout"
	"dryfruit_back_end/internal/services/content"
	"dryfruit_back_end/internal/store"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalf("❌ Missing required settings: %s", strings.Join(missing, ", "))
	}
	gin.SetMode(cfg.GinMode)

	database.ConnectDatabases(cfg)
	defer database.Close()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 8 << 20

	redis := cache.New(database.Redis)
	auditor := utils.NewAuditor(database.Scylla)
	routes.RegisterRoutes(r, buildHandlers(cfg, redis, auditor), cfg.JWTSecret, redis, auditor)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("🚀 %s API listening on port %s", cfg.StoreName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Forced shutdown: %v", err)
	}
}

func buildHandlers(cfg *config.Config, redis *cache.Client, auditor *utils.Auditor) routes.Handlers {
	db := database.DB
	products := store.NewProductStore(db)
	reviews := store.NewReviewStore(db)
	orders := store.NewOrderStore(db)
	users := store.NewUserStore(db)
	coupons := store.NewCouponStore(db)
	messages := store.NewMessageStore(db)

	invoices := utils.NewInvoiceRenderer(cfg.ChromeEnabled, cfg.StoreName, cfg.UPIVPA)
	notifier := utils.NewNotifier(utils.NewMailer(cfg), invoices, cfg.StoreName, cfg.FrontendURL, cfg.AdminEmail)

	// Interfaces stay untyped nil when the backing service is off.
	var index catalog.Index
	if database.Elastic != nil {
		index = services.NewSearch(database.Elastic)
	}
	var images catalog.Images
	if database.MinIO != nil {
		images = services.NewImageStore(database.MinIO, cfg.MinioEndpoint, cfg.MinioBucket, cfg.MinioUseSSL)
	}

	var (
		gateways []payment.Gateway
		webhooks orderapi.Webhooks
	)
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateways = append(gateways, payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL))
		log.Println("✅ Razorpay enabled")
	}
	if cfg.StripeSecretKey != "" {
		st := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		gateways = append(gateways, st)
		if cfg.StripeWebhookSecret != "" {
			webhooks = st
		}
		log.Println("✅ Stripe enabled")
	}
	if len(gateways) == 0 {
		log.Println("⚠️ No payment gateway configured, only cash on delivery is accepted")
	}

	accounts := account.NewService(users, redis, notifier, cfg.JWTSecret)
	catalogSvc := catalog.NewService(products, reviews, orders, index, images, redis)
	carts := cart.NewService(products, store.NewCartStore(db), coupons, redis)
	checkoutSvc := checkout.NewService(checkout.Deps{
		Orders:    orders,
		Inventory: products,
		Carts:     carts,
		Coupons:   coupons,
		Users:     users,
		Tx:        store.NewTransactor(context.Background(), database.Mongo),
		Gateways:  payment.NewRegistry(gateways...),
		Notifier:  notifier,
		Stock:     catalogSvc,
	})
	adminSvc := admin.NewService(admin.Deps{
		Orders:   orders,
		Products: products,
		Users:    users,
		Messages: messages,
		Coupons:  coupons,
	})
	contentSvc := content.NewService(messages, store.NewBlogStore(db), store.NewSettingsStore(db), notifier, models.Settings{
		StoreName:             cfg.StoreName,
		SupportEmail:          cfg.AdminEmail,
		TaxRate:               pricing.TaxRate.Mul(decimal.NewFromInt(100)).InexactFloat64(),
		FreeShippingThreshold: pricing.FreeShippingThreshold.InexactFloat64(),
	})

	var oauth authapi.OAuth
	if g := auth.Setup(cfg); g != nil {
		oauth = g
	}

	return routes.Handlers{
		Auth:    authapi.NewHandler(accounts, oauth, auditor, cfg.FrontendURL, strings.HasPrefix(cfg.BaseURL, "https://")),
		Product: productapi.NewHandler(catalogSvc, accounts),
		Cart:    cartapi.NewHandler(carts, redis, cfg.FrontendURL),
		Order:   orderapi.NewHandler(checkoutSvc, invoices, webhooks),
		Content: contentapi.NewHandler(contentSvc),
		Admin: adminapi.NewHandler(adminapi.Deps{
			Catalog:  catalogSvc,
			Checkout: checkoutSvc,
			Admin:    adminSvc,
			Accounts: accounts,
			Content:  contentSvc,
			Auditor:  auditor,
		}),
	}
}

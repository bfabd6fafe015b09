package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/config"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/pkg/cloudinary"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, log *zap.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	countryRepo := repository.NewCountryRepository(db)
	cityRepo := repository.NewCityRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// The gateway client is injected everywhere; nothing below holds a
	// global. Without a secret key the stub keeps development working.
	var gw gateway.Client
	if cfg.Payment.GatewaySecretKey != "" {
		gw = gateway.NewStripeClient(cfg.Payment.GatewayBaseURL, cfg.Payment.GatewaySecretKey, log)
	} else {
		log.Warn("no gateway secret key configured, using in-memory stub gateway")
		gw = gateway.NewStubClient()
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo, log)
	orderSvc := service.NewOrderService(orderRepo, cartSvc, gw, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	productHandler := handler.NewProductHandler(productRepo, cloud)
	cartHandler := handler.NewCartHandler(cartSvc)
	paymentHandler := handler.NewPaymentHandler(orderSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(orderSvc, auditRepo, cfg, log)
	adminHandler := handler.NewAdminHandler(orderSvc, userRepo, productRepo, orderRepo, auditRepo)
	countryHandler := handler.NewCountryHandler(countryRepo)
	cityHandler := handler.NewCityHandler(cityRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/me", authMw, authHandler.Me)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
		}

		cart := api.Group("/cart")
		cart.Use(authMw)
		{
			cart.GET("", cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:item_id", cartHandler.UpdateItem)
			cart.DELETE("/items/:item_id", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.Clear)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("/create-intent", paymentHandler.CreateIntent)
			payments.POST("/confirm/:id", paymentHandler.Confirm)
			payments.GET("/orders", paymentHandler.ListMine)
			payments.GET("/orders/:id", paymentHandler.Get)
			payments.POST("/orders/:id/cancel", paymentHandler.Cancel)
			payments.POST("/orders/:id/request-cancellation", paymentHandler.RequestCancellation)
		}

		api.POST("/webhooks/payment", webhookHandler.Handle)

		countries := api.Group("/countries")
		{
			countries.GET("", countryHandler.List)
			countries.GET("/:id", countryHandler.Get)
		}
		cities := api.Group("/cities")
		{
			cities.GET("", cityHandler.List)
			cities.GET("/:id", cityHandler.Get)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/dashboard", adminHandler.Dashboard)

			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Delete)
			admin.POST("/products/:id/image", productHandler.UploadImage)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/cancellation-requests", adminHandler.ListCancellationRequests)
			admin.POST("/orders/:id/process-cancellation", adminHandler.ProcessCancellation)
			admin.POST("/orders/:id/refund", adminHandler.Refund)
			admin.DELETE("/orders/:id", adminHandler.DeleteOrder)

			admin.POST("/countries", countryHandler.Create)
			admin.PUT("/countries/:id", countryHandler.Update)
			admin.DELETE("/countries/:id", countryHandler.Delete)
			admin.POST("/cities", cityHandler.Create)
			admin.PUT("/cities/:id", cityHandler.Update)
			admin.DELETE("/cities/:id", cityHandler.Delete)
		}
	}

	return r
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flawlessmakeup/backend/config"
	"github.com/flawlessmakeup/backend/controllers"
	"github.com/flawlessmakeup/backend/database"
	"github.com/flawlessmakeup/backend/logger"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
	"github.com/flawlessmakeup/backend/routes"
	"github.com/flawlessmakeup/backend/sender"
	"github.com/flawlessmakeup/backend/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet at this point.
		panic(err)
	}

	logger.Initialize(cfg.Environment)
	log := logger.Log
	defer log.Sync()

	db, err := database.ConnectPostgres(cfg.PostgresDSN(), log,
		&models.Category{},
		&models.Product{},
		&models.ProductShade{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Redis is optional: without it product listings just skip the cache.
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		redisClient = nil
	}

	categoryRepo := repository.NewGormCategoryRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	txRunner := repository.NewGormCheckoutTxRunner(db)

	var emailSender sender.EmailSender
	if cfg.SMTPHost != "" {
		smtpSender, err := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFromName)
		if err != nil {
			log.Warn("SMTP misconfigured, order notifications disabled", zap.Error(err))
		} else {
			emailSender = smtpSender
		}
	}

	tax, shipping := services.PoliciesFromConfig(cfg.TaxRate, cfg.ShippingFlatCost, cfg.FreeShippingThreshold)

	categoryService := services.NewCategoryService(categoryRepo, log)
	productService := services.NewProductService(productRepo, redisClient, log)
	cartService := services.NewCartService(cartRepo, productRepo, log)
	orderService := services.NewOrderService(orderRepo, log)
	notificationService := services.NewNotificationService(emailSender, cfg.AdminEmail, log)
	checkoutService := services.NewCheckoutService(txRunner, cartService, tax, shipping, notificationService, log)
	adminService := services.NewAdminService(productService, categoryService, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger())

	routes.Register(router, routes.Controllers{
		Products:   controllers.NewProductController(productService),
		Categories: controllers.NewCategoryController(categoryService),
		Cart:       controllers.NewCartController(cartService),
		Orders:     controllers.NewOrderController(checkoutService, orderService),
		Admin:      controllers.NewAdminController(adminService),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server is running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Shutdown error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

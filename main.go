package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/controllers"
	"github.com/rakeshsingh12700/dearstudent62-storefront/database"
	"github.com/rakeshsingh12700/dearstudent62-storefront/logger"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
	"github.com/rakeshsingh12700/dearstudent62-storefront/repository"
	"github.com/rakeshsingh12700/dearstudent62-storefront/routes"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
	"github.com/rakeshsingh12700/dearstudent62-storefront/tokenstore"
	"go.uber.org/zap"
)

const serviceName = "storefront"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- AWS setup ---
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	// --- Logger (optionally tee'd to CloudWatch Logs) ---
	var cwWriter *aws_pkg.CloudWatchLogsClient
	if cfg.CloudWatchLogsEnable {
		cwWriter, err = aws_pkg.NewCloudWatchLogsClient(context.Background(), awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
		} else {
			defer cwWriter.Close()
		}
	}
	var zapLogger *zap.Logger
	if cwWriter != nil {
		zapLogger, err = logger.New(cfg.Environment, cwWriter)
	} else {
		zapLogger, err = logger.New(cfg.Environment, nil)
	}
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer zapLogger.Sync()

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.Postgres, zapLogger, &models.Coupon{}, &models.CouponUsage{}, &models.Purchase{})
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}

	rdb, err := database.NewRedisClient(context.Background(), cfg.RedisURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Redis connection failed", zap.Error(err))
	}

	snsClient := aws_pkg.NewSNSClient(awsCfg)
	presigner := aws_pkg.NewS3Presigner(awsCfg, cfg.DownloadBucket)
	metricsClient := aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	if !metricsClient.IsEnabled() {
		zapLogger.Info("CloudWatch metrics disabled")
	}

	// --- Dependency injection ---
	calc := pricing.NewCalculator(cfg.Pricing)
	svcOpts := []services.Option{services.WithMetrics(metricsClient)}

	couponRepo := repository.NewGormCouponRepository(db)
	purchaseRepo := repository.NewGormPurchaseRepo(db)
	productRepo := repository.NewCachedProductRepository(
		repository.NewDynamoProductRepository(database.NewDynamoClient(awsCfg), cfg.ProductsTable),
		rdb, cfg.ProductCacheTTL, zapLogger,
	)

	couponService := services.NewCouponService(couponRepo, purchaseRepo, calc, snsClient, cfg.EventsSNSTopicARN, zapLogger, svcOpts...)
	checkoutService := services.NewCheckoutService(productRepo, couponService, calc, zapLogger, svcOpts...)
	downloadService := services.NewDownloadService(tokenstore.NewRedisStore(rdb), productRepo, presigner,
		cfg.DownloadTokenTTL, cfg.PresignTTL, zapLogger, svcOpts...)
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		zapLogger.Warn("Razorpay keys not configured; payment endpoints will fail")
	}
	paymentService := services.NewPaymentService(checkoutService, couponService, downloadService, purchaseRepo,
		services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		snsClient, cfg.EventsSNSTopicARN, zapLogger, svcOpts...)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.AdminEmails)

	// --- HTTP router ---
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controllers.RegisterValidators(); err != nil {
		zapLogger.Fatal("Validator registration failed", zap.Error(err))
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(r, routes.Controllers{
		Pricing:  controllers.NewPricingController(calc, checkoutService),
		Checkout: controllers.NewCheckoutController(checkoutService),
		Coupons:  controllers.NewCouponController(couponService),
		Payments: controllers.NewPaymentController(paymentService),
		Download: controllers.NewDownloadController(downloadService),
	}, auth, middleware.RateLimitMiddleware(cfg.CouponRatePerMinute, cfg.CouponRateBurst))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zapLogger.Info("Storefront service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}

	if err := rdb.Close(); err != nil {
		zapLogger.Error("Redis close error", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}

	zapLogger.Info("Storefront service stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webhook-service/config"
	"webhook-service/controllers"
	"webhook-service/database"
	"webhook-service/kafka"
	"webhook-service/logger"
	"webhook-service/middleware"
	aws_pkg "webhook-service/pkg/aws"
	"webhook-service/repository"
	"webhook-service/routes"
	"webhook-service/seed"
	"webhook-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "webhook-service"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var cwWriter *aws_pkg.CloudWatchLogsClient
	if cfg.CloudWatchEnabled {
		cwWriter, err = aws_pkg.NewCloudWatchLogsClient(context.Background(), serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
			cwWriter = nil
		}
	}
	var zlog *zap.Logger
	if cwWriter != nil {
		zlog, err = logger.New(cfg.AppEnv, cwWriter)
	} else {
		zlog, err = logger.New(cfg.AppEnv, nil)
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	repo := repository.NewGormPaymentRepository(db)

	if cfg.SeedFile != "" {
		records, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			zlog.Fatal("Failed to load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err = seed.Apply(ctx, repo, records, cfg.SeedReset, zlog)
		cancel()
		if err != nil {
			zlog.Fatal("Failed to seed pending payments", zap.Error(err))
		}
	}

	// AWS clients
	var metricsClient *aws_pkg.MetricsClient
	if cfg.CloudWatchEnabled {
		if metricsClient, err = aws_pkg.NewMetricsClient(context.Background()); err != nil {
			zlog.Warn("CloudWatch metrics disabled", zap.Error(err))
			metricsClient = nil
		}
	}

	var events services.EventPublisher
	switch cfg.EventBus {
	case config.EventBusSNS:
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			zlog.Warn("AWS config unavailable, transition events disabled", zap.Error(err))
			break
		}
		events = services.NewSNSEventPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.PaymentSNSTopicARN)
	case config.EventBusKafka:
		producer := kafka.NewTransitionEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
		defer producer.Close()
		events = producer
	}

	var recorder services.MetricsRecorder
	if metricsClient != nil {
		recorder = metricsClient
	}

	settlement := services.NewSettlementClient(cfg.SettlementConfirmURL, cfg.SettlementCancelURL, cfg.SettlementTimeout)
	webhookService := services.NewWebhookService(cfg.WebhookToken, repo, settlement, events, recorder, zlog)
	webhookController := controllers.NewWebhookController(webhookService, zlog)

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitPerMinute), cfg.RateLimitBurst, 5*time.Minute)
	go limiter.Run(stop)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.Metrics(metricsClient, serviceName))

	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	routes.RegisterWebhookRoutes(r, webhookController, cfg.WebhookToken, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	zlog.Info("Webhook service started",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("event_bus", cfg.EventBus),
	)
	<-quit
	zlog.Info("Shutting down webhook service...")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited cleanly")
}

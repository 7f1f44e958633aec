package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/compreg/compreg/internal/config"
	"github.com/compreg/compreg/internal/database"
	"github.com/compreg/compreg/internal/handlers"
	"github.com/compreg/compreg/internal/media"
	"github.com/compreg/compreg/internal/metrics"
	"github.com/compreg/compreg/internal/middleware"
	"github.com/compreg/compreg/internal/notification"
	"github.com/compreg/compreg/internal/repository"
	"github.com/compreg/compreg/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.Server.LogLevel).Warn("Unknown log level, keeping info")
	}

	ctx := context.Background()

	users, companies, db, err := initStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	if db != nil {
		defer db.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	recorder, err := initDeliveryLog(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB delivery log")
	}

	emailSender, smsSender, err := initSenders(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize notification providers")
	}
	dispatcher := notification.NewDispatcher(emailSender, smsSender, recorder, collector, logger).
		WithExpiries(cfg.OTP.Expiry, cfg.Reset.Expiry)

	limiter, redisClient := initAttemptLimiter(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	images, err := initImageStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize S3 uploads")
	}

	jwtService, err := service.NewJWTService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWT service")
	}

	authService := service.NewAuthService(users, jwtService, dispatcher, limiter, collector, &cfg.OTP, &cfg.Reset, logger)
	companyService := service.NewCompanyService(companies, users, images, dispatcher, logger)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, logger)
	defer rateLimiter.Stop()

	router := handlers.NewRouter(handlers.RouterConfig{
		AuthHandlers:    handlers.NewAuthHandlers(authService, logger),
		CompanyHandlers: handlers.NewCompanyHandlers(companyService, logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtService, logger),
		RateLimiter:     rateLimiter,
		HTTPObserver:    collector,
		MetricsHandler:  metrics.Handler(registry),
		Logger:          logger,
	})

	// CORS wraps the router so preflight requests for any path are answered
	// before route matching.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.UserStore, repository.CompanyStore, *sql.DB, error) {
	if cfg.Database.Backend == config.BackendMemory {
		logger.Warn("Using in-memory store, data will be lost on restart")
		return repository.NewMemoryUserRepository(), repository.NewMemoryCompanyRepository(), nil, nil
	}

	db, err := database.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := database.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Info("Database migrations applied")
	}

	logger.Info("PostgreSQL store initialized")
	return repository.NewUserRepository(db, logger), repository.NewCompanyRepository(db, logger), db, nil
}

func initDeliveryLog(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (notification.Recorder, error) {
	if cfg.DynamoDB.DeliveryLogTable == "" {
		logger.Info("Delivery log disabled")
		return notification.NopRecorder{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
		}
	})

	logger.WithField("table", cfg.DynamoDB.DeliveryLogTable).Info("DynamoDB client initialized")
	return repository.NewDeliveryLogRepository(client, cfg.DynamoDB.DeliveryLogTable, logger), nil
}

func initSenders(cfg *config.Config, logger *logrus.Logger) (notification.EmailSender, notification.SMSSender, error) {
	console := notification.NewConsoleSender(logger)

	var email notification.EmailSender = console
	if cfg.SMTP.Host != "" {
		smtpSender, err := notification.NewSMTPSender(&cfg.SMTP)
		if err != nil {
			return nil, nil, err
		}
		email = smtpSender
	} else {
		logger.Warn("SMTP_HOST not set, emails will be written to the log")
	}

	var sms notification.SMSSender = console
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		sms = notification.NewTwilioSender(&cfg.Twilio)
	} else {
		logger.Warn("Twilio credentials not set, SMS will be written to the log")
	}

	return email, sms, nil
}

// initAttemptLimiter connects to Redis when configured. An unreachable Redis
// is logged but not fatal; the limiter fails open.
func initAttemptLimiter(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (service.AttemptLimiter, *redis.Client) {
	if cfg.Redis.Endpoint == "" {
		logger.Warn("REDIS_ENDPOINT not set, verification attempts are not limited")
		return service.NoopAttemptLimiter{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis is not reachable")
	} else {
		logger.Info("Redis client initialized")
	}

	return service.NewRedisAttemptLimiter(client, logger), client
}

func initImageStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (service.ImageStore, error) {
	if cfg.S3.Bucket == "" {
		logger.Warn("S3_BUCKET not set, logo and banner uploads are disabled")
		return nil, nil
	}

	client, err := media.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return nil, err
	}

	logger.WithField("bucket", cfg.S3.Bucket).Info("S3 client initialized")
	return media.NewS3Uploader(client, &cfg.S3, logger), nil
}

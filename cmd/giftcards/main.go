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

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/giftcards/internal/giftcards"
	"github.com/richxcame/giftcards/internal/orders"
	"github.com/richxcame/giftcards/internal/voucher"
	"github.com/richxcame/giftcards/migrations"
	"github.com/richxcame/giftcards/pkg/common"
	"github.com/richxcame/giftcards/pkg/config"
	"github.com/richxcame/giftcards/pkg/database"
	"github.com/richxcame/giftcards/pkg/email"
	"github.com/richxcame/giftcards/pkg/eventbus"
	"github.com/richxcame/giftcards/pkg/health"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/ratelimit"
	"github.com/richxcame/giftcards/pkg/redis"
	"github.com/richxcame/giftcards/pkg/resilience"
	"github.com/richxcame/giftcards/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("giftcards")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     cfg.Server.ServiceName + "@" + serviceVersion,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
			cfg.Sentry.Enabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		cfg.Sentry.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	if cfg.Database.MigrationsRun {
		if err := database.RunMigrations(&cfg.Database, migrations.FS); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)

	checks := map[string]common.CheckFunc{
		"database": health.DatabaseChecker(pool),
	}

	// Per-card locking: Redis across replicas, in-process otherwise
	var locker giftcards.CardLocker
	var limiter *ratelimit.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-process card locks", zap.Error(err))
		} else {
			defer redisClient.Close()
			ttl := time.Duration(cfg.GiftCard.LockTTLSeconds) * time.Second
			locker = giftcards.NewRedisLocker(redisClient, ttl)
			checks["redis"] = health.RedisChecker(redisClient.Client)
			limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		}
	}

	repo := giftcards.NewRepository(pool)
	service := giftcards.NewService(repo, orders.NewRepository(pool), locker, giftcards.ServiceConfig{
		DefaultCurrency: cfg.GiftCard.DefaultCurrency,
		CodeMaxAttempts: cfg.GiftCard.CodeMaxAttempts,
		Language:        cfg.GiftCard.Language,
	})

	// Vouchers
	var renderer giftcards.VoucherRenderer = voucher.NewPDFRenderer(voucher.Config{
		Author:   cfg.GiftCard.VoucherAuthor,
		SiteName: cfg.SMTP.SiteName,
		Language: cfg.GiftCard.Language,
	})
	if cfg.Storage.Enabled {
		store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			BaseURL:   cfg.Storage.BaseURL,
		})
		if err != nil {
			logger.Warn("Voucher archive disabled", zap.Error(err))
		} else {
			renderer = voucher.NewArchivingRenderer(renderer, store)
		}
	}

	smtpBreaker := resilience.NewCircuitBreaker(
		resilience.BuildSettings("smtp", 60, 30, 5, 1),
		resilience.GracefulDegradation("smtp"),
	)
	dispatcher := giftcards.NewDispatcher(repo, renderer, email.NewSMTPSender(cfg.SMTP), smtpBreaker, giftcards.DispatcherConfig{
		SiteName: cfg.SMTP.SiteName,
		Language: cfg.GiftCard.Language,
	})
	service.SetDelivery(renderer, dispatcher)

	// Events
	if cfg.NATS.Enabled {
		bus, err := eventbus.Connect(eventbus.Config{
			URL:            cfg.NATS.URL,
			StreamName:     "GIFTCARDS",
			Subjects:       []string{cfg.NATS.Stream + ".>"},
			HandlerTimeout: time.Minute,
		})
		if err != nil {
			logger.Warn("Event bus unavailable, vouchers are sent on request only", zap.Error(err))
		} else {
			defer bus.Close()
			service.SetEventPublisher(bus)
			if err := giftcards.NewEventHandler(service).RegisterSubscriptions(ctx, bus); err != nil {
				logger.Fatal("Failed to subscribe to gift card events", zap.Error(err))
			}
		}
	}

	router := setupRouter(cfg, giftcards.NewHandler(service), checks, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Gift card service starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gift card service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
}

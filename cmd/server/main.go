// Command server runs the notification dispatch service: HTTP ingestion,
// per-channel consumer pools, and the retry sweeper, all sharing one
// Postgres connection and one Redis client. Structure grounded in the
// teacher's notification/main.go App lifecycle (Initialize/Run/Shutdown),
// generalized from its mock-repository wiring to the real collaborators in
// internal/.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/notifyhub/notifyhub/internal/config"
	"github.com/notifyhub/notifyhub/internal/consumer"
	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/dispatch/handler"
	"github.com/notifyhub/notifyhub/internal/httpapi"
	"github.com/notifyhub/notifyhub/internal/idempotency"
	"github.com/notifyhub/notifyhub/internal/ingest"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/obs"
	"github.com/notifyhub/notifyhub/internal/queue"
	"github.com/notifyhub/notifyhub/internal/ratelimit"
	"github.com/notifyhub/notifyhub/internal/retry"
	"github.com/notifyhub/notifyhub/internal/store"
	"github.com/notifyhub/notifyhub/internal/sweeper"
	"github.com/notifyhub/notifyhub/internal/templaterepo"
	"github.com/notifyhub/notifyhub/internal/user"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	log, err := obs.NewLogger(cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer log.Sync()

	db, err := store.Open(cfg.DatabaseDSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	notificationStore := store.NewGormStore(db)
	userRepo := user.NewGormRepo(db)
	templateRepo := templaterepo.NewGormRepo(db)

	idempotencyGate := idempotency.NewRedisGate(redisClient, cfg.Idempotency.TTL, cfg.Idempotency.FailOpen, log)
	limiter := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.WindowSize, cfg.RateLimit.MaxPerWindow, cfg.RateLimit.PerChannel, cfg.RateLimit.FailOpen, log)

	qcfg := queue.Config{
		Brokers:     cfg.Kafka.Brokers,
		TopicPrefix: cfg.Kafka.TopicPrefix,
		SASLUser:    cfg.Kafka.SASLUser,
		SASLPass:    cfg.Kafka.SASLPass,
		SASLEnabled: cfg.Kafka.SASLEnabled,
		TLSEnabled:  cfg.Kafka.TLSEnabled,
	}
	publisher := queue.NewKafkaPublisher(qcfg)
	defer publisher.Close()

	ingestSvc := ingest.New(notificationStore, userRepo, templateRepo, idempotencyGate, limiter, publisher, log)

	dispatcher := dispatch.NewDispatcher(
		handler.NewEmail(handler.EmailConfig{
			SMTPHost: cfg.Email.SMTPHost,
			SMTPPort: cfg.Email.SMTPPort,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}),
		handler.NewSMS(handler.SMSConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
		}),
		handler.NewPush(handler.PushConfig{
			FCMServerKey: cfg.Push.FCMServerKey,
		}),
		handler.NewInApp(),
	)

	retryPolicy := retry.NewPolicy(cfg.Retry.BaseDelay, cfg.Retry.Multiplier, cfg.Retry.MaxRetries, float64(cfg.Retry.JitterPct))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channels := []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelPush, models.ChannelInApp}
	pools := make([]*consumer.Pool, 0, len(channels))
	for _, ch := range channels {
		pool := consumer.NewPool(qcfg, cfg.Kafka.GroupID, ch, cfg.ConsumerPool.WorkersPerChannel, consumer.Deps{
			Store:          notificationStore,
			Users:          userRepo,
			Dispatcher:     dispatcher,
			Retry:          retryPolicy,
			HandlerTimeout: cfg.ConsumerPool.HandlerTimeout,
			Log:            log,
		})
		pools = append(pools, pool)
		go func(p *consumer.Pool) {
			if err := p.Run(ctx); err != nil {
				log.Error("consumer pool exited", zap.Error(err))
			}
		}(pool)
	}

	sweep := sweeper.New(notificationStore, publisher, cfg.Sweeper.Interval, cfg.Sweeper.BatchSize, cfg.Sweeper.StuckThreshold, log)
	go sweep.Run(ctx)

	handlers := httpapi.Handlers{
		Notifications: httpapi.NewNotificationsHandler(ingestSvc, notificationStore, templateRepo),
		Templates:     httpapi.NewTemplatesHandler(templateRepo),
		Users:         httpapi.NewUsersHandler(userRepo),
		Health:        httpapi.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers),
	}
	router := httpapi.NewRouter(cfg, log, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("starting notification service", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	for _, p := range pools {
		p.Close()
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	log.Info("notification service stopped")
}

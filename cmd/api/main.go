package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/carpool"
	"github.com/chachabrian/carpool-backend/internal/chat"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/database"
	"github.com/chachabrian/carpool-backend/internal/events"
	"github.com/chachabrian/carpool-backend/internal/graph"
	"github.com/chachabrian/carpool-backend/internal/handlers"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/internal/router"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/internal/tracker"
	applogger "github.com/chachabrian/carpool-backend/pkg/logger"
)

const (
	claimSweepInterval = 10 * time.Minute

	busRetryMin = time.Second
	busRetryMax = 30 * time.Second
)

func main() {
	cfg, err := config.Load(os.Getenv("CARPOOL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting carpool api",
		zap.Int("port", cfg.Server.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.Bool("kafka", cfg.Kafka.Enabled()),
	)

	db, err := database.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	defer sqlDB.Close()

	repo := repository.NewRepository(db)
	health := map[string]handlers.Pinger{"postgres": sqlDB}

	// Without Redis everything stays in process, which is fine for one instance.
	hub := realtime.NewHub(logger, 0)
	var (
		bus    realtime.Bus = hub
		claims tracker.ClaimStore
		rdb    *redis.Client
	)
	if cfg.Redis.Enabled() {
		rdb, err = services.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, using in-process bus and claims", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
		redisBus := realtime.NewRedisBus(rdb, cfg.Redis.Channel, hub, logger)
		go runBus(ctx, redisBus, logger)
		bus = redisBus
		claims = tracker.NewRedisClaims(rdb, cfg.Tracker.StateTTL)
		health["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		mem := tracker.NewMemoryClaims(cfg.Tracker.StateTTL)
		go sweepClaims(ctx, mem, logger)
		claims = mem
	}

	var fb *services.Firebase
	if cfg.Firebase.Enabled() {
		fb, err = services.NewFirebase(ctx, cfg.Firebase, logger)
		if err != nil {
			logger.Fatal("firebase init failed", zap.Error(err))
		}
	}

	var verifier auth.Verifier
	switch cfg.Auth.Mode {
	case "firebase":
		verifier = auth.NewFirebaseVerifier(fb.Auth)
	default:
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	}

	var fcm services.PushSender
	if fb != nil {
		fcm = services.NewFCMSender(fb.Messaging, cfg.Push.AndroidChannel)
	} else {
		logger.Warn("firebase not configured, FCM push disabled")
	}
	push := services.NewPushRouter(services.NewExpoSender(cfg.Push.ExpoAccessToken, cfg.Push.Timeout), fcm, logger)

	var writer notify.Writer
	if cfg.OpenAI.APIKey != "" {
		writer = services.NewOpenAIWriter(cfg.OpenAI)
	} else {
		logger.Info("openai not configured, notifications use templates")
	}
	composer := notify.NewComposer(writer, cfg.OpenAI.Timeout, logger)

	var emitter events.Emitter
	if cfg.Kafka.Enabled() {
		emitter = events.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		emitter = events.NewLogEmitter(logger)
	}
	defer emitter.Close()

	storage, err := services.NewStorage(cfg.Storage, cfg.Server.BaseURL, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(bus, push, repo.User, cfg.Push.Timeout, logger)
	engine := carpool.NewEngine(repo, dispatcher, emitter, cfg.Matching, logger)
	trips := tracker.New(repo, claims, bus, dispatcher, composer, emitter, cfg.Tracker, logger)
	chatSvc := chat.NewService(repo, bus, dispatcher, logger)
	communitySvc := community.NewService(repo, logger)

	schema, err := graph.NewSchema(
		graph.NewResolver(engine, trips, chatSvc, communitySvc, bus, logger),
		cfg.Server.MaxQueryDepth,
	)
	if err != nil {
		logger.Fatal("graphql schema invalid", zap.Error(err))
	}

	r := router.Setup(router.Deps{
		Config:    cfg,
		Logger:    logger,
		Verifier:  verifier,
		Schema:    schema,
		Bus:       bus,
		Community: communitySvc,
		Tracker:   trips,
		Storage:   storage,
		Health:    health,
	})

	// No WriteTimeout: websocket subscriptions are long lived.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// runBus keeps the Redis relay up, backing off between attempts. The bus
// delivers locally while it is down.
func runBus(ctx context.Context, bus *realtime.RedisBus, logger *zap.Logger) {
	backoff := busRetryMin
	for {
		err := bus.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("redis bus stopped, retrying", zap.Error(err), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > busRetryMax {
			backoff = busRetryMax
		}
	}
}

func sweepClaims(ctx context.Context, claims *tracker.MemoryClaims, logger *zap.Logger) {
	ticker := time.NewTicker(claimSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := claims.Sweep(); n > 0 {
				logger.Debug("expired trip claims swept", zap.Int("trips", n))
			}
		}
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatherly/backend/internal/cache"
	"gatherly/backend/internal/config"
	"gatherly/backend/internal/connectivity"
	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/group"
	"gatherly/backend/internal/domain/notifications"
	"gatherly/backend/internal/domain/proposal"
	"gatherly/backend/internal/domain/submission"
	"gatherly/backend/internal/domain/user"
	"gatherly/backend/internal/feed"
	"gatherly/backend/internal/firebase"
	apihttp "gatherly/backend/internal/http"
	"gatherly/backend/internal/notify"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cfg := config.Load()

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		logger.Fatal("firebase app init failed", zap.Error(err))
	}

	authClient, err := firebase.NewAuthClient(ctx, app)
	if err != nil {
		logger.Fatal("firebase auth client init failed", zap.Error(err))
	}

	fs, err := firebase.NewFirestore(ctx, app)
	if err != nil {
		logger.Fatal("firestore init failed", zap.Error(err))
	}
	defer fs.Close()

	store := docstore.NewFirestoreStore(fs.Client, logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	// A fired reminder lands as a notification record on the user document,
	// same shape as the records the proposal batch writes.
	scheduler := notify.NewLocalScheduler(cfg.ReminderDelay, func(id, title string) {
		uid, proposalID := notify.SplitReminderKey(id)
		wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := store.Set(wctx, "users/"+uid+"/notifications", uuid.NewString(), docstore.Doc{
			"title":      "Vote reminder",
			"body":       title,
			"type":       "reminder",
			"proposalId": proposalID,
			"read":       false,
			"createdAt":  time.Now().UTC(),
		}, false)
		if err != nil {
			logger.Warn("reminder delivery failed", zap.String("id", id), zap.Error(err))
		}
	}, logger)
	defer scheduler.Close()

	monitor := connectivity.NewMonitor(
		connectivity.DialProbe(cfg.ProbeAddr, 3*time.Second),
		cfg.ProbeInterval, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	// Repositories and services
	userRepo := user.NewRepo(store)
	groupRepo := group.NewRepo(store)
	proposalRepo := proposal.NewRepo(store, logger)
	submissionRepo := submission.NewRepo(store, userRepo, scheduler, logger)
	notificationsSvc := notifications.NewService(store)
	cacheStore := cache.NewRedis(rdb, cfg.CacheTTL)
	feedSvc := feed.NewService(monitor, groupRepo, proposalRepo, cacheStore, logger)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:              cfg,
		AuthClient:       authClient,
		Log:              logger,
		Users:            userRepo,
		Groups:           groupRepo,
		Proposals:        proposalRepo,
		Submissions:      submissionRepo,
		NotificationsSvc: notificationsSvc,
		FeedSvc:          feedSvc,
		Scheduler:        scheduler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.Info("API listening", zap.String("port", cfg.Port), zap.String("project", cfg.ProjectID))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")
	_ = srv.Shutdown(ctxShutdown)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/redis/go-redis/v9"

	"labequip-backend/config"
	"labequip-backend/internal/api"
	"labequip-backend/internal/borrow"
	"labequip-backend/internal/db"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/keylock"
	"labequip-backend/internal/model"
	"labequip-backend/internal/notification"
	"labequip-backend/internal/projection"
	"labequip-backend/internal/reservation"
	"labequip-backend/internal/store"
	"labequip-backend/internal/sweeper"
)

func main() {
	logger := log.New(os.Stdout, "labequip-backend ", log.LstdFlags)

	config.LoadEnv()
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys are not configured; overdue push notifications are disabled")
	}

	opensAt, err := model.ParseClock(cfg.Reservation.OpenTime)
	if err != nil {
		logger.Fatalf("invalid reservation.open_time: %v", err)
	}
	closesAt, err := model.ParseClock(cfg.Reservation.CloseTime)
	if err != nil {
		logger.Fatalf("invalid reservation.close_time: %v", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
	workerPool.Start(ctx)

	resolver, closeResolver := newResolver(ctx, cfg, logger)
	defer closeResolver()

	locks := keylock.New()
	projector := projection.NewProjector(appStore, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)

	borrows := borrow.NewService(appStore,
		borrow.WithBorrowableStatusCodes(cfg.Borrow.BorrowableStatusCodes...),
		borrow.WithQuantityCoercion(*cfg.Borrow.CoerceQuantity),
		borrow.WithPublisher(workerPool),
		borrow.WithLocks(locks),
		borrow.WithProjector(projector),
	)
	reservations := reservation.NewService(appStore,
		reservation.WithOpenHours(opensAt, closesAt),
		reservation.WithPublisher(workerPool),
		reservation.WithLocks(locks),
		reservation.WithProjector(projector),
	)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.NewRunner(cfg.Sweeper, borrows).Run(sweepCtx)
	}()

	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Store:        appStore,
		Borrows:      borrows,
		Reservations: reservations,
		Resolver:     resolver,
		WebPush:      webpushOptions,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	// nothing may dispatch once the pool is closed
	stopSweeper()
	<-sweeperDone
	workerPool.Close()
	logger.Println("notification queue drained")
	cancel()

	logger.Println("Server gracefully stopped")
}

// newResolver builds the actor resolver for the configured auth mode.
func newResolver(ctx context.Context, cfg *config.Config, logger *log.Logger) (identity.Resolver, func()) {
	if cfg.Auth.Mode == "header" {
		logger.Println("auth mode is header: trusting X-User-Id / X-User-Role from the gateway")
		return identity.HeaderResolver{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	logger.Printf("session store connected to redis at %s", cfg.Redis.Addr)

	return identity.NewSessionStore(rdb), func() {
		if err := rdb.Close(); err != nil {
			logger.Printf("closing redis: %v", err)
		}
	}
}

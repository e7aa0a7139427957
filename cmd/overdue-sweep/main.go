// Command overdue-sweep marks every borrowed record past its planned return
// date as overdue, once, and exits. It is meant to be run from cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"labequip-backend/config"
	"labequip-backend/internal/borrow"
	"labequip-backend/internal/db"
	"labequip-backend/internal/notification"
	"labequip-backend/internal/store"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "sweep timeout")
	flag.Parse()

	logger := log.New(os.Stderr, "overdue-sweep ", log.LstdFlags)

	config.LoadEnv()
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	appStore := store.NewGormStore(gormDB)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
	workerPool.Start(ctx)

	borrows := borrow.NewService(appStore, borrow.WithPublisher(workerPool))
	n, err := borrows.SweepOverdue(ctx)
	// audit entries and pushes for the swept records go out before exit
	workerPool.Close()
	if err != nil {
		logger.Fatalf("overdue sweep failed: %v", err)
	}

	fmt.Printf("overdueCount=%d\n", n)
}

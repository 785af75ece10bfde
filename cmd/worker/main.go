package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/Domenick1991/visitbooking/internal/bootstrap"
	"github.com/Domenick1991/visitbooking/internal/email"
	"github.com/Domenick1991/visitbooking/internal/kafka"
	"github.com/Domenick1991/visitbooking/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// The worker owns the transition sweep for shared storage and relays
// lifecycle events from kafka to participant emails.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		log.Fatalf("worker needs shared storage, storage.driver is %q", cfg.Storage.Driver)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("build app", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			zl.Warn("close app", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Scheduler.Run(gctx) })

	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.NotificationsTopic
		if topic == "" {
			topic = cfg.Kafka.EventsTopic
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, zl)
		defer consumer.Close()

		loc, err := cfg.Booking.Location()
		if err != nil {
			zl.Fatal("booking timezone", zap.Error(err))
		}
		sender := email.NewSender(zl, email.WithLocation(loc))
		g.Go(func() error {
			err := consumer.ConsumeEvents(gctx, sender.Send)
			if err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	zl.Info("worker started", zap.Duration("interval", cfg.Scheduler.Interval()), zap.Bool("email_relay", cfg.Kafka.Enabled))
	if err := g.Wait(); err != nil {
		zl.Error("worker stopped", zap.Error(err))
	}
}

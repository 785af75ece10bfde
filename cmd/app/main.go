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
	"github.com/Domenick1991/visitbooking/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
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

	zl.Info("starting visit booking api",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("double_booking", cfg.Booking.DoubleBooking),
		zap.Bool("embedded_scheduler", cfg.RunsEmbeddedScheduler()),
	)
	if err := bootstrap.Run(ctx, app); err != nil {
		zl.Error("server error", zap.Error(err))
	}
}

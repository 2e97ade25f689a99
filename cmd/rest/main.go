package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"eq-coach-be/internal/bootstrap"
	"eq-coach-be/internal/config"
	"eq-coach-be/internal/server"
	"eq-coach-be/internal/tracer"
	"eq-coach-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer(ctx)
	defer func() { _ = shutdownTracer(context.Background()) }()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection,
		database.WithLogLevel(logLevel),
		database.WithTracing(tracer.Enabled()),
	)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	srv := server.New(cfg, container)

	// 4. Supervise background services and the HTTP server
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Println("Background: Starting Memory Index Consumer...")
		return container.ConsumerService.Consume(gctx)
	})

	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Server stopped")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cert-evaluator-be/internal/bootstrap"
	"cert-evaluator-be/internal/config"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/server"
	"cert-evaluator-be/internal/tracer"
	"cert-evaluator-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.InitTracer(ctx, cfg.Otel, log)
	defer func() { _ = shutdownTracer(context.Background()) }()

	var db *gorm.DB
	if cfg.App.StorageDriver == config.StorageDriverPostgres {
		var err error
		db, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Error("Main", "Unable to connect to database", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}

	container, err := bootstrap.NewContainer(ctx, db, cfg, log)
	if err != nil {
		log.Error("Main", "Failed to build container", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer container.Close()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Error("Main", "Failed to start indexing consumer", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	srv := server.New(cfg, container, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Main", "Server stopped", nil)
}

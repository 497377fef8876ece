package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cert-evaluator-be/internal/config"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/service"
	pktNats "cert-evaluator-be/pkg/nats"
)

func main() {
	cfg := config.Load()

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	if cfg.App.NatsURL == "" {
		log.Error("Audit", "NATS_URL is not set", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The publisher creates the stream if the API has not run yet.
	pub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
	if err != nil {
		log.Error("Audit", "Failed to ensure event stream", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	pub.Close()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Error("Audit", "Failed to connect to NATS", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer sub.Close()

	if err := service.NewAuditService(sub, log).Start(ctx); err != nil {
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("Audit", "Audit worker stopped", nil)
}

package main

import (
	"log"

	"go.uber.org/zap"

	"realtime-events/internal/config"
	"realtime-events/internal/events"
	"realtime-events/internal/handlers"
	"realtime-events/internal/logger"
)

const (
	serviceName = "realtime-events"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.SkipTokenVerification {
		zlog.Warn("token signature verification is DISABLED, development only")
	}

	manager := events.NewManager(zlog)
	go manager.Run()

	router := handlers.NewRouter(cfg, zlog, manager, serviceName, version)

	zlog.Info("starting server",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("port", cfg.Port))

	if err := router.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

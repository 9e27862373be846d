package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/groupscholar/opportunity-radar/internal/api"
	"github.com/groupscholar/opportunity-radar/internal/config"
	"github.com/groupscholar/opportunity-radar/internal/db"
	"github.com/groupscholar/opportunity-radar/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	store := db.NewStore(pool, logger)
	srv := api.NewServer(store, logger, api.Options{
		AdminSecret: cfg.AdminSecret,
		CORSOrigins: cfg.CORSOrigins,
	})

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := srv.Start(cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

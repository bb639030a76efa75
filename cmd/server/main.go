package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lookupbot/credit-engine/internal/api"
	"github.com/lookupbot/credit-engine/internal/core/service"
	"github.com/lookupbot/credit-engine/internal/infrastructure/config"
	mongodb "github.com/lookupbot/credit-engine/internal/infrastructure/db/mongo"
	redisdb "github.com/lookupbot/credit-engine/internal/infrastructure/db/redis"
	"github.com/lookupbot/credit-engine/internal/infrastructure/notify"
	"github.com/lookupbot/credit-engine/internal/infrastructure/queue"
	"github.com/lookupbot/credit-engine/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.DayLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid day time zone")
	}

	// --- Stores ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	accounts := mongodb.NewAccountRepository(db)
	blocks := mongodb.NewBlockRepository(db)
	history := mongodb.NewHistoryRepository(db)
	operators := mongodb.NewOperatorRepository(db)
	usage := redisdb.NewUsageStore(rdb)

	// --- Services ---
	policy := service.Policy{
		AdminUserID:    cfg.AdminUserID,
		DefaultBalance: cfg.DefaultBalance,
		DailyGrant:     cfg.DailyGrant,
		SpecialBalance: cfg.SpecialBalance,
		ChargeCost:     cfg.ChargeCost,
		FeatureCaps:    cfg.FeatureCaps,
		Location:       loc,
	}
	quota := service.NewQuotaService(accounts, usage, policy, log)
	charges := service.NewChargeService(quota, accounts, history, policy, log)
	admin := service.NewAdminService(accounts, blocks, history, notify.NewLogNotifier(log), policy, log)
	auth := service.NewAuthService(operators, cfg.JWTSecret, 24*time.Hour)

	// --- Dispatcher for charge requests from the chat transport ---
	dispatcher := queue.NewDispatcher(cfg.Workers, charges, log)
	dispatcher.Start(ctx)

	// --- HTTP surface ---
	e := api.NewRouter(api.Deps{
		DB:          db,
		Redis:       rdb,
		Auth:        auth,
		Charges:     charges,
		Admin:       admin,
		JWTSecret:   cfg.JWTSecret,
		AdminUserID: cfg.AdminUserID,
		Logger:      log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("credit engine started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("credit engine stopped")
}

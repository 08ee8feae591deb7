package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services"
	"scamshield/internal/infrastructure/cache"
	"scamshield/internal/infrastructure/database"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/pkg/logger"
)

// Standalone reconciliation worker. Runs the same sweep loop as the API
// process; the Redis lock keeps concurrent deployments single-flight.
func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Msg("starting ScamShield reconciler")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer db.Close()

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, sweeps will use the local lock only")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	repos := repository.New(db)

	policy := models.AutoVerificationPolicy{
		Enabled:                 cfg.AutoVerify.Enabled,
		PhoneThreshold:          cfg.AutoVerify.PhoneThreshold,
		EmailThreshold:          cfg.AutoVerify.EmailThreshold,
		WebsiteThreshold:        cfg.AutoVerify.WebsiteThreshold,
		SocialMediaThreshold:    cfg.AutoVerify.SocialMediaThreshold,
		OtherThreshold:          cfg.AutoVerify.OtherThreshold,
		UniqueReportersRequired: cfg.AutoVerify.UniqueReportersRequired,
		TimePeriodHours:         cfg.AutoVerify.TimePeriodHours,
	}
	reconciler := services.NewReconciliationEngine(repos.Reputation, redisCache, policy, cfg.AutoVerify.SweepInterval, cfg.AutoVerify.SweepBatchSize, log)

	// Run one sweep immediately, then fall into the timer loop
	if err := reconciler.TriggerSweep(ctx); err != nil && err != services.ErrSweepAlreadyRunning {
		log.Error().Err(err).Msg("initial sweep failed")
	}

	go reconciler.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()
	reconciler.Stop()
	log.Info().Msg("shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"scamshield/internal/api"
	"scamshield/internal/api/handlers"
	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services"
	"scamshield/internal/domain/services/ai"
	grpchealth "scamshield/internal/grpc/health"
	"scamshield/internal/infrastructure/cache"
	"scamshield/internal/infrastructure/database"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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
		Str("version", cfg.App.Version).
		Msg("starting ScamShield")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	repos := repository.New(db)
	log.Info().Msg("repositories initialized")

	// Initialize the assessment pipeline
	extractor := services.NewSignalExtractor(log)
	ownChecker := services.NewOwnReputationChecker(repos.Reputation, cfg.Risk.LookupConcurrency, log)

	urlClient := services.NewGoogleSafeBrowsingClient(cfg.URLScan, log)
	if cfg.URLScan.APIKey == "" {
		log.Warn().Msg("no Safe Browsing API key configured, URL checks will report as unavailable")
	}
	urlChecker := services.NewUrlReputationChecker(urlClient, redisCache, cfg.URLScan.Timeout, cfg.URLScan.CacheTTL, log)

	var intentClient services.IntentClient
	if cfg.Intent.APIKey != "" {
		intentClient = ai.NewClient(cfg.Intent, log)
		log.Info().Str("provider", cfg.Intent.Provider).Msg("AI intent classifier enabled")
	} else {
		log.Warn().Msg("no intent API key configured, using rule-based classification only")
	}
	classifier := services.NewIntentClassifier(intentClient, cfg.Intent, log)

	combiner := services.NewScoreCombiner(cfg.Risk)
	assessor := services.NewMessageAssessor(extractor, ownChecker, urlChecker, classifier, combiner, cfg.Risk.AssessmentTimeout, log)
	log.Info().Msg("assessment pipeline initialized")

	// Initialize the reconciliation engine
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
	go reconciler.Start(ctx)
	defer reconciler.Stop()
	log.Info().Bool("enabled", policy.Enabled).Msg("reconciliation engine initialized")

	// Initialize handlers
	deps := handlers.Dependencies{
		Assessor:   assessor,
		Reconciler: reconciler,
		Repos:      repos,
		DB:         db,
		Cache:      redisCache,
		Logger:     log,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpchealth.Register(ctx, grpcServer, db, redisCache)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop gRPC server
	grpcServer.GracefulStop()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		// URL scan caching, rate limiting and the distributed sweep lock
		// degrade gracefully when the cache is nil
		redisCache = nil
	}

	return db, redisCache, nil
}

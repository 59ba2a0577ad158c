package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobboard/recommendation-service/internal/config"
	"jobboard/recommendation-service/internal/handlers"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/repositories"
	"jobboard/recommendation-service/internal/server"
	"jobboard/recommendation-service/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("✅ Config loaded", "env", cfg.Server.Env, "db_driver", cfg.Database.Driver)

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", "error", err)
	}
	log.Info("✅ Database ready")

	clk := clock.System()

	recRepo := repositories.NewRecommendationRepository(db)
	searchRepo := repositories.NewSavedSearchRepository(db)

	recService := services.NewRecommendationService(recRepo, clk, services.ListLimits{
		Default: cfg.API.DefaultListLimit,
		Max:     cfg.API.MaxListLimit,
	}, log)
	searchService := services.NewSavedSearchService(searchRepo, clk, log)

	scheduler := services.NewAlertScheduler(
		searchRepo,
		services.NewLogNotifier(log),
		clk,
		services.AlertSchedulerConfig{
			Interval:    cfg.Scheduler.AlertTickInterval,
			BatchSize:   cfg.Scheduler.AlertBatchSize,
			Concurrency: cfg.Scheduler.AlertConcurrency,
		},
		log,
	)
	sweeper := services.NewTTLSweeper(recService, cfg.Scheduler.TTLSweepInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	sweeper.Start(ctx)

	app := server.New(server.Handlers{
		Recommendations: handlers.NewRecommendationHandler(recService, clk, log),
		SavedSearches:   handlers.NewSavedSearchHandler(searchService, log),
	}, server.Options{
		AppName:        "Job Board Recommendation API",
		RequestLogging: true,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		cancel()
		scheduler.Stop()
		sweeper.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("❌ Server forced to shutdown", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", "addr", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal("❌ Failed to start server", "error", err)
	}
}

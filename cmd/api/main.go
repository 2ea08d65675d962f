package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/fraud-analyzer/internal/api"
	"github.com/dvloznov/fraud-analyzer/internal/api/handlers"
	"github.com/dvloznov/fraud-analyzer/internal/app"
	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to YAML config (optional)")
		port       = flag.String("port", "", "HTTP server port (overrides server.port)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Initialize logger
	log := logger.WithFields(logger.NewWithLevel(cfg.LogLevel), map[string]interface{}{"service": "api"})
	ctx := logger.WithContext(context.Background(), log)

	services, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Server.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.Server.Workers),
		inmemory.WithMaxRetries(cfg.Server.MaxRetries),
	)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.Server.Workers).Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, services.Runner.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	var reports handlers.ReportLister
	if services.Repo != nil {
		reports = services.Repo
	} else {
		log.Warn().Msg("No warehouse configured - GET /api/reports will be unavailable")
	}

	handler := api.NewRouter(api.Deps{
		Generator: services.Assembler,
		Publisher: jobQueue,
		Jobs:      jobStore,
		Reports:   reports,
		APIKey:    cfg.Server.APIKey,
		Log:       log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dvloznov/fraud-analyzer/internal/app"
	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/jobs"
	"github.com/dvloznov/fraud-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (optional)")
		schedule   = flag.String("schedule", "", "Cron spec (overrides server.schedule)")
		source     = flag.String("source", "", "Transactions CSV to analyze (overrides server.schedule_source)")
		runNow     = flag.Bool("run-now", false, "Enqueue one analysis immediately on start")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *schedule != "" {
		cfg.Server.Schedule = *schedule
	}
	if *source != "" {
		cfg.Server.ScheduleSource = *source
	}

	log := logger.WithFields(logger.NewWithLevel(cfg.LogLevel), map[string]interface{}{"service": "worker"})
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	if cfg.Server.ScheduleSource == "" {
		log.Fatal().Msg("No source to analyze: set server.schedule_source or -source")
	}
	if cfg.Server.Schedule == "" && !*runNow {
		log.Fatal().Msg("Nothing to do: set server.schedule, -schedule or -run-now")
	}

	services, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Server.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.Server.Workers),
		inmemory.WithMaxRetries(cfg.Server.MaxRetries),
	)

	log.Info().Int("workers", cfg.Server.Workers).Msg("Starting worker service")
	if err := jobQueue.Start(ctx, services.Runner.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	enqueue := func() {
		job := &jobs.AnalysisJob{SourceURI: cfg.Server.ScheduleSource}
		if err := jobQueue.PublishAnalysis(ctx, job); err != nil {
			log.Error().Err(err).Str("source_uri", job.SourceURI).Msg("Failed to enqueue analysis")
			return
		}
		log.Info().Str("job_id", job.JobID).Str("source_uri", job.SourceURI).Msg("Analysis enqueued")
	}

	var scheduler *cron.Cron
	if cfg.Server.Schedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Server.Schedule, enqueue); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Server.Schedule).Msg("Invalid schedule")
		}
		scheduler.Start()
		log.Info().
			Str("schedule", cfg.Server.Schedule).
			Str("source_uri", cfg.Server.ScheduleSource).
			Msg("Schedule registered")
	}
	if *runNow {
		enqueue()
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
	"github.com/ilramdhan/scene-expr/internal/infrastructure/persistence"
	"github.com/ilramdhan/scene-expr/internal/modules/evaluation"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/database"
	"github.com/ilramdhan/scene-expr/pkg/logger"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	log := logger.Init(&cfg.Log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.WithFields(logrus.Fields{
		"workers":    cfg.Worker.Count,
		"batch_size": cfg.Worker.BatchSize,
		"poll":       cfg.Worker.PollInterval,
	}).Info("Starting worker service")

	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	exprRepo := persistence.NewExpressionRepository(pool)
	oidRepo := persistence.NewObjectIdentifierRepository(pool)
	jobRepo := persistence.NewBatchJobRepository(pool)

	ids := objectid.NewManager()
	if err := ids.Load(ctx, persistence.IdentifierStore{Repo: oidRepo}); err != nil {
		log.Fatalf("Failed to load object identifiers: %v", err)
	}

	engine := evaluation.NewEngine(exprRepo, runtime.NewFunctions(), ids, cfg.Evaluation, log)
	validationPool := evaluation.NewValidationPool(engine, exprRepo, jobRepo, cfg.Worker.Count, cfg.Worker.BatchSize, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Worker service ready. Waiting for jobs...")

	interval := cfg.Worker.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			log.Info("Shutting down worker service...")
			cancel()
			return

		case <-ticker.C:
			jobs, err := jobRepo.ListPending(ctx, entity.JobTypeValidateAll, 10)
			if err != nil {
				log.WithError(err).Warn("Failed to list jobs")
				continue
			}

			for _, job := range jobs {
				processJob(ctx, log, validationPool, jobRepo, job)
			}
		}
	}
}

func processJob(ctx context.Context, log *logrus.Logger, validationPool *evaluation.ValidationPool, jobRepo repository.BatchJobRepository, job *entity.BatchJob) {
	entry := log.WithField("job_id", job.ID)
	startTime := time.Now()
	entry.Info("Starting job")

	err := validationPool.ValidateAll(ctx, job.ID)
	if errors.Is(err, evaluation.ErrJobNotPending) {
		entry.Debug("Job already claimed")
		return
	}
	if err != nil {
		entry.WithError(err).Error("Job failed")
		if err := jobRepo.Fail(ctx, job.ID, err.Error()); err != nil {
			entry.WithError(err).Warn("Failed to mark job as failed")
		}
		return
	}

	entry.WithField("elapsed", time.Since(startTime)).Info("Job completed")
}

package evaluation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
)

// ValidationPool preprocesses every stored expression concurrently so that
// broken expressions are reported once, at load time, rather than per tick
type ValidationPool struct {
	engine      *Engine
	exprRepo    repository.ExpressionRepository
	jobRepo     repository.BatchJobRepository
	workerCount int
	batchSize   int
	log         *logrus.Logger
}

// NewValidationPool creates a new validation pool
func NewValidationPool(
	engine *Engine,
	exprRepo repository.ExpressionRepository,
	jobRepo repository.BatchJobRepository,
	workerCount, batchSize int,
	log *logrus.Logger,
) *ValidationPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ValidationPool{
		engine:      engine,
		exprRepo:    exprRepo,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		batchSize:   batchSize,
		log:         log,
	}
}

// ValidateAll validates every stored expression and records the results. The
// job must be pending; a job already claimed elsewhere yields ErrJobNotPending.
func (wp *ValidationPool) ValidateAll(ctx context.Context, jobID uuid.UUID) error {
	claimed, err := wp.jobRepo.Claim(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s", ErrJobNotPending, jobID)
	}

	totalCount, err := wp.exprRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count expressions: %w", err)
	}

	if err := wp.jobRepo.UpdateStatus(ctx, jobID, entity.JobStatusRunning, totalCount, 0, 0); err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	idChan := make(chan uuid.UUID, wp.batchSize*2)
	resultChan := make(chan *entity.ValidationResult, wp.batchSize*2)
	errChan := make(chan error, 1)

	var processedCount int64
	var failedCount int64

	var wg sync.WaitGroup
	for i := 0; i < wp.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for id := range idChan {
				stored, err := wp.exprRepo.GetByID(ctx, id)
				if err != nil {
					wp.log.WithError(err).WithFields(logrus.Fields{"worker": workerID, "expression_id": id}).
						Warn("failed to load expression")
					atomic.AddInt64(&failedCount, 1)
					continue
				}
				resultChan <- wp.engine.Validate(stored)
			}
		}(i)
	}

	var resultWg sync.WaitGroup
	resultWg.Add(1)
	go func() {
		defer resultWg.Done()
		buffer := make([]*entity.ValidationResult, 0, wp.batchSize)

		flush := func() {
			if len(buffer) == 0 {
				return
			}
			if _, err := wp.exprRepo.UpdateValidationBatch(ctx, buffer); err != nil {
				wp.log.WithError(err).Error("failed to store validation batch")
			}
			var invalid int64
			for _, res := range buffer {
				if !res.Valid {
					invalid++
					wp.log.WithFields(logrus.Fields{
						"expression_id": res.ExpressionID,
						"error":         res.Error,
					}).Warn("invalid expression")
				}
			}
			atomic.AddInt64(&processedCount, int64(len(buffer)))
			atomic.AddInt64(&failedCount, invalid)
			if err := wp.jobRepo.UpdateProgress(ctx, jobID, int64(len(buffer)), invalid); err != nil {
				wp.log.WithError(err).Warn("failed to update job progress")
			}
			buffer = buffer[:0]
		}

		for res := range resultChan {
			buffer = append(buffer, res)
			if len(buffer) >= wp.batchSize {
				flush()
			}
		}
		flush()
	}()

	go func() {
		defer close(idChan)
		offset := 0
		for {
			ids, err := wp.exprRepo.ListIDs(ctx, wp.batchSize, offset)
			if err != nil {
				errChan <- fmt.Errorf("failed to list expression IDs: %w", err)
				return
			}
			if len(ids) == 0 {
				return
			}
			for _, id := range ids {
				select {
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				case idChan <- id:
				}
			}
			offset += len(ids)
		}
	}()

	wg.Wait()
	close(resultChan)
	resultWg.Wait()

	select {
	case err := <-errChan:
		return err
	default:
	}

	if err := wp.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	wp.log.WithFields(logrus.Fields{
		"job_id":    jobID,
		"processed": atomic.LoadInt64(&processedCount),
		"failed":    atomic.LoadInt64(&failedCount),
		"total":     totalCount,
	}).Info("validation complete")
	return nil
}

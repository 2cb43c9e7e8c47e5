package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
)

const jobColumns = `id, job_type, status, total_records, processed_records, failed_records, metadata, error_message, started_at, finished_at, created_at`

// batchJobRepo implements repository.BatchJobRepository
type batchJobRepo struct {
	pool *pgxpool.Pool
}

// NewBatchJobRepository creates a new batch job repository
func NewBatchJobRepository(pool *pgxpool.Pool) repository.BatchJobRepository {
	return &batchJobRepo{pool: pool}
}

func scanJob(row pgx.Row) (*entity.BatchJob, error) {
	var job entity.BatchJob
	err := row.Scan(&job.ID, &job.JobType, &job.Status, &job.TotalRecords, &job.ProcessedRecords, &job.FailedRecords,
		&job.Metadata, &job.ErrorMessage, &job.StartedAt, &job.FinishedAt, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// execOne runs an update that must touch exactly the job identified by id
func (r *batchJobRepo) execOne(ctx context.Context, id uuid.UUID, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch job %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *batchJobRepo) Create(ctx context.Context, job *entity.BatchJob) error {
	query := `INSERT INTO batch_jobs (` + jobColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query,
		job.ID, job.JobType, job.Status, job.TotalRecords, job.ProcessedRecords, job.FailedRecords,
		job.Metadata, job.ErrorMessage, job.StartedAt, job.FinishedAt, job.CreatedAt)
	return err
}

func (r *batchJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM batch_jobs WHERE id = $1`, id))
}

func (r *batchJobRepo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE batch_jobs SET status = $2, started_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, entity.JobStatusRunning, entity.JobStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *batchJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus, total, processed, failed int64) error {
	return r.execOne(ctx, id, `
		UPDATE batch_jobs SET status = $2, total_records = $3, processed_records = $4, failed_records = $5
		WHERE id = $1
	`, status, total, processed, failed)
}

func (r *batchJobRepo) UpdateProgress(ctx context.Context, id uuid.UUID, processed, failed int64) error {
	return r.execOne(ctx, id, `
		UPDATE batch_jobs SET processed_records = processed_records + $2, failed_records = failed_records + $3
		WHERE id = $1
	`, processed, failed)
}

func (r *batchJobRepo) Complete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, id, `UPDATE batch_jobs SET status = $2, finished_at = $3 WHERE id = $1`,
		entity.JobStatusCompleted, time.Now())
}

func (r *batchJobRepo) Fail(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.execOne(ctx, id, `UPDATE batch_jobs SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`,
		entity.JobStatusFailed, errorMsg, time.Now())
}

func (r *batchJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.BatchJob, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM batch_jobs ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *batchJobRepo) ListPending(ctx context.Context, jobType entity.JobType, limit int) ([]*entity.BatchJob, error) {
	return r.list(ctx, `
		SELECT `+jobColumns+` FROM batch_jobs
		WHERE status = $1 AND job_type = $2
		ORDER BY created_at
		LIMIT $3
	`, entity.JobStatusPending, jobType, limit)
}

func (r *batchJobRepo) list(ctx context.Context, query string, args ...interface{}) ([]*entity.BatchJob, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.BatchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

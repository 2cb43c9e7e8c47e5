package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
)

// ExpressionRepository defines the interface for stored expression operations
type ExpressionRepository interface {
	// Create creates a new stored expression
	Create(ctx context.Context, expr *entity.StoredExpression) error
	// CreateBatch creates multiple expressions using COPY protocol
	CreateBatch(ctx context.Context, exprs []*entity.StoredExpression) (int64, error)
	// GetByID retrieves an expression by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredExpression, error)
	// List retrieves expressions with pagination, optionally filtered by scene
	List(ctx context.Context, sceneName string, limit, offset int) ([]*entity.StoredExpression, error)
	// ListIDs retrieves expression IDs with pagination (for batch processing)
	ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
	// Count returns the total count of expressions
	Count(ctx context.Context) (int64, error)
	// UpdateValidationBatch stores validation results
	UpdateValidationBatch(ctx context.Context, results []*entity.ValidationResult) (int64, error)
}

// ObjectIdentifierRepository defines the interface for object identifier persistence
type ObjectIdentifierRepository interface {
	// List retrieves every mapping
	List(ctx context.Context) ([]*entity.ObjectIdentifier, error)
	// Upsert creates or updates a mapping
	Upsert(ctx context.Context, oid *entity.ObjectIdentifier) error
}

// BatchJobRepository defines the interface for batch job operations
type BatchJobRepository interface {
	// Create creates a new batch job
	Create(ctx context.Context, job *entity.BatchJob) error
	// GetByID retrieves a job by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error)
	// Claim moves a pending job to running, reporting false if it was not pending
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateStatus updates a job's status, total and progress
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus, total, processed, failed int64) error
	// UpdateProgress updates a job's progress atomically
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, failed int64) error
	// Complete marks a job as completed
	Complete(ctx context.Context, id uuid.UUID) error
	// Fail marks a job as failed
	Fail(ctx context.Context, id uuid.UUID, errorMsg string) error
	// ListRecent retrieves recent jobs
	ListRecent(ctx context.Context, limit int) ([]*entity.BatchJob, error)
	// ListPending retrieves the oldest pending jobs of a type
	ListPending(ctx context.Context, jobType entity.JobType, limit int) ([]*entity.BatchJob, error)
}

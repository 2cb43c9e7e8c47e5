package evaluation

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

var errNotFound = errors.New("not found")

type memExpressionRepo struct {
	mu      sync.Mutex
	exprs   map[uuid.UUID]*entity.StoredExpression
	results map[uuid.UUID]*entity.ValidationResult
}

func newMemExpressionRepo(plains ...string) *memExpressionRepo {
	r := &memExpressionRepo{
		exprs:   make(map[uuid.UUID]*entity.StoredExpression),
		results: make(map[uuid.UUID]*entity.ValidationResult),
	}
	for _, p := range plains {
		r.Create(context.Background(), &entity.StoredExpression{ID: uuid.New(), SceneName: "Level1", PlainString: p})
	}
	return r
}

func (r *memExpressionRepo) Create(ctx context.Context, e *entity.StoredExpression) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exprs[e.ID] = e
	return nil
}

func (r *memExpressionRepo) CreateBatch(ctx context.Context, exprs []*entity.StoredExpression) (int64, error) {
	for _, e := range exprs {
		r.Create(ctx, e)
	}
	return int64(len(exprs)), nil
}

func (r *memExpressionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredExpression, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exprs[id]
	if !ok {
		return nil, errNotFound
	}
	return e, nil
}

func (r *memExpressionRepo) List(ctx context.Context, sceneName string, limit, offset int) ([]*entity.StoredExpression, error) {
	return nil, nil
}

func (r *memExpressionRepo) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.exprs))
	for id := range r.exprs {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end], nil
}

func (r *memExpressionRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.exprs)), nil
}

func (r *memExpressionRepo) UpdateValidationBatch(ctx context.Context, results []*entity.ValidationResult) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range results {
		r.results[res.ExpressionID] = res
	}
	return int64(len(results)), nil
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.BatchJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*entity.BatchJob)}
}

func (r *memJobRepo) Create(ctx context.Context, job *entity.BatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *memJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errNotFound
	}
	return job, nil
}

func (r *memJobRepo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != entity.JobStatusPending {
		return false, nil
	}
	job.Status = entity.JobStatusRunning
	return true, nil
}

func (r *memJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus, total, processed, failed int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Status, job.TotalRecords, job.ProcessedRecords, job.FailedRecords = status, total, processed, failed
	return nil
}

func (r *memJobRepo) UpdateProgress(ctx context.Context, id uuid.UUID, processed, failed int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.ProcessedRecords += processed
	job.FailedRecords += failed
	return nil
}

func (r *memJobRepo) Complete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = entity.JobStatusCompleted
	return nil
}

func (r *memJobRepo) Fail(ctx context.Context, id uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = entity.JobStatusFailed
	r.jobs[id].ErrorMessage = errorMsg
	return nil
}

func (r *memJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.BatchJob, error) {
	return nil, nil
}

func (r *memJobRepo) ListPending(ctx context.Context, jobType entity.JobType, limit int) ([]*entity.BatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.BatchJob
	for _, job := range r.jobs {
		if job.Status == entity.JobStatusPending && job.JobType == jobType && len(out) < limit {
			out = append(out, job)
		}
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEngine(repo *memExpressionRepo) (*Engine, *objectid.Manager) {
	ids := objectid.NewManager()
	cfg := config.EvaluationConfig{CacheSize: 16, MaxExpressionLength: 256}
	return NewEngine(repo, runtime.NewFunctions(), ids, cfg, quietLogger()), ids
}

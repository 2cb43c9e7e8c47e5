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

const expressionColumns = `id, scene_name, owner, plain_string, kind, valid, last_error, validated_at, created_at, updated_at`

// expressionRepo implements repository.ExpressionRepository
type expressionRepo struct {
	pool *pgxpool.Pool
}

// NewExpressionRepository creates a new stored expression repository
func NewExpressionRepository(pool *pgxpool.Pool) repository.ExpressionRepository {
	return &expressionRepo{pool: pool}
}

func scanExpression(row pgx.Row) (*entity.StoredExpression, error) {
	var e entity.StoredExpression
	err := row.Scan(&e.ID, &e.SceneName, &e.Owner, &e.PlainString, &e.Kind, &e.Valid, &e.LastError, &e.ValidatedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expressionRepo) Create(ctx context.Context, e *entity.StoredExpression) error {
	query := `
		INSERT INTO expressions (` + expressionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.SceneName, e.Owner, e.PlainString, e.Kind, e.Valid, e.LastError, e.ValidatedAt, e.CreatedAt, e.UpdatedAt)
	return err
}

// CreateBatch uses PostgreSQL COPY protocol for high-performance bulk inserts
func (r *expressionRepo) CreateBatch(ctx context.Context, exprs []*entity.StoredExpression) (int64, error) {
	columns := []string{"id", "scene_name", "owner", "plain_string", "kind", "valid", "last_error", "validated_at", "created_at", "updated_at"}

	rows := make([][]interface{}, len(exprs))
	for i, e := range exprs {
		rows[i] = []interface{}{
			e.ID, e.SceneName, e.Owner, e.PlainString, e.Kind, e.Valid, e.LastError, e.ValidatedAt, e.CreatedAt, e.UpdatedAt,
		}
	}

	copyCount, err := r.pool.CopyFrom(ctx, pgx.Identifier{"expressions"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy expressions: %w", err)
	}
	return copyCount, nil
}

func (r *expressionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredExpression, error) {
	query := `SELECT ` + expressionColumns + ` FROM expressions WHERE id = $1`
	return scanExpression(r.pool.QueryRow(ctx, query, id))
}

func (r *expressionRepo) List(ctx context.Context, sceneName string, limit, offset int) ([]*entity.StoredExpression, error) {
	query := `
		SELECT ` + expressionColumns + `
		FROM expressions
		WHERE $1::text = '' OR scene_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, sceneName, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exprs []*entity.StoredExpression
	for rows.Next() {
		e, err := scanExpression(rows)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, rows.Err()
}

func (r *expressionRepo) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM expressions ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *expressionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM expressions").Scan(&count)
	return count, err
}

// UpdateValidationBatch copies results into a temp table and applies them in
// one statement
func (r *expressionRepo) UpdateValidationBatch(ctx context.Context, results []*entity.ValidationResult) (int64, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tempTable := fmt.Sprintf("temp_validation_%d", time.Now().UnixNano())
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		CREATE TEMP TABLE %s (
			expression_id UUID,
			kind VARCHAR(16),
			valid BOOLEAN,
			error TEXT,
			validated_at TIMESTAMPTZ
		) ON COMMIT DROP
	`, tempTable))
	if err != nil {
		return 0, fmt.Errorf("failed to create temp table: %w", err)
	}

	columns := []string{"expression_id", "kind", "valid", "error", "validated_at"}
	rows := make([][]interface{}, len(results))
	for i, res := range results {
		rows[i] = []interface{}{res.ExpressionID, res.Kind, res.Valid, res.Error, res.ValidatedAt}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{tempTable}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy to temp table: %w", err)
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE expressions e SET
			kind = t.kind,
			valid = t.valid,
			last_error = t.error,
			validated_at = t.validated_at,
			updated_at = NOW()
		FROM %s t
		WHERE e.id = t.expression_id
	`, tempTable))
	if err != nil {
		return 0, fmt.Errorf("failed to apply validation results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return copyCount, nil
}

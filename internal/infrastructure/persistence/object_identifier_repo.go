package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/internal/domain/repository"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

// objectIdentifierRepo implements repository.ObjectIdentifierRepository
type objectIdentifierRepo struct {
	pool *pgxpool.Pool
}

// NewObjectIdentifierRepository creates a new object identifier repository
func NewObjectIdentifierRepository(pool *pgxpool.Pool) repository.ObjectIdentifierRepository {
	return &objectIdentifierRepo{pool: pool}
}

func (r *objectIdentifierRepo) List(ctx context.Context) ([]*entity.ObjectIdentifier, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, object_id, created_at FROM object_identifiers ORDER BY object_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var oids []*entity.ObjectIdentifier
	for rows.Next() {
		var oid entity.ObjectIdentifier
		var id int64
		if err := rows.Scan(&oid.Name, &id, &oid.CreatedAt); err != nil {
			return nil, err
		}
		oid.ID = uint32(id)
		oids = append(oids, &oid)
	}
	return oids, rows.Err()
}

func (r *objectIdentifierRepo) Upsert(ctx context.Context, oid *entity.ObjectIdentifier) error {
	query := `
		INSERT INTO object_identifiers (name, object_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET object_id = EXCLUDED.object_id
	`
	_, err := r.pool.Exec(ctx, query, oid.Name, int64(oid.ID), oid.CreatedAt)
	return err
}

// IdentifierStore adapts an ObjectIdentifierRepository to objectid.Store
type IdentifierStore struct {
	Repo repository.ObjectIdentifierRepository
}

// LoadAll implements objectid.Store
func (s IdentifierStore) LoadAll(ctx context.Context) (map[string]objectid.ID, error) {
	oids, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]objectid.ID, len(oids))
	for _, oid := range oids {
		out[oid.Name] = objectid.ID(oid.ID)
	}
	return out, nil
}

// Save implements objectid.Store
func (s IdentifierStore) Save(ctx context.Context, name string, id objectid.ID) error {
	return s.Repo.Upsert(ctx, &entity.ObjectIdentifier{Name: name, ID: uint32(id), CreatedAt: time.Now()})
}

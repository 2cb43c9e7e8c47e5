package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilramdhan/scene-expr/internal/domain/entity"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

type memIdentifierRepo struct {
	rows    map[string]*entity.ObjectIdentifier
	listErr error
}

func (r *memIdentifierRepo) List(ctx context.Context) ([]*entity.ObjectIdentifier, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*entity.ObjectIdentifier, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memIdentifierRepo) Upsert(ctx context.Context, oid *entity.ObjectIdentifier) error {
	r.rows[oid.Name] = oid
	return nil
}

func TestIdentifierStore_RoundTrip(t *testing.T) {
	repo := &memIdentifierRepo{rows: map[string]*entity.ObjectIdentifier{
		"Player": {Name: "Player", ID: 7},
	}}
	store := IdentifierStore{Repo: repo}
	ctx := context.Background()

	m := objectid.NewManager()
	require.NoError(t, m.Load(ctx, store))
	assert.Equal(t, objectid.ID(7), m.Lookup("Player"))

	id, err := m.RegisterAndSave(ctx, store, "Enemy")
	require.NoError(t, err)
	assert.Equal(t, objectid.ID(8), id)
	require.Contains(t, repo.rows, "Enemy")
	assert.Equal(t, uint32(8), repo.rows["Enemy"].ID)
	assert.False(t, repo.rows["Enemy"].CreatedAt.IsZero())
}

func TestIdentifierStore_LoadError(t *testing.T) {
	boom := errors.New("boom")
	store := IdentifierStore{Repo: &memIdentifierRepo{listErr: boom}}

	err := objectid.NewManager().Load(context.Background(), store)
	assert.ErrorIs(t, err, boom)
}

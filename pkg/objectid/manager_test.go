package objectid

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	ids     map[string]ID
	saveErr error
}

func (s *memStore) LoadAll(ctx context.Context) (map[string]ID, error) {
	return s.ids, nil
}

func (s *memStore) Save(ctx context.Context, name string, id ID) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ids[name] = id
	return nil
}

func TestManager_LookupUnknown(t *testing.T) {
	m := NewManager()
	assert.Equal(t, NoObject, m.Lookup("Player"))
}

func register(t *testing.T, m *Manager, name string) ID {
	t.Helper()
	id, err := m.Register(name)
	require.NoError(t, err)
	return id
}

func TestManager_RegisterIsStable(t *testing.T) {
	m := NewManager()

	first := register(t, m, "Player")
	second := register(t, m, "Enemy")

	assert.NotEqual(t, NoObject, first)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, register(t, m, "Player"))
	assert.Equal(t, first, m.Lookup("Player"))
	assert.Equal(t, 2, m.Len())
}

func TestManager_AssignMovesNext(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Assign("Boss", 41))

	assert.Equal(t, ID(41), m.Lookup("Boss"))
	assert.Equal(t, ID(42), register(t, m, "Minion"))
	assert.Equal(t, []string{"Boss", "Minion"}, m.Names())
}

func TestManager_AssignRejectsNoObject(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.Assign("Ghost", NoObject), ErrInvalidID)
	assert.Equal(t, 0, m.Len())
}

func TestManager_AssignMaxIDExhausts(t *testing.T) {
	m := NewManager()
	a := register(t, m, "A")
	require.NoError(t, m.Assign("Big", MaxID))

	id, err := m.Register("B")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, NoObject, id)
	assert.Equal(t, NoObject, m.Lookup("B"))

	// known names still resolve, and lower assignments do not revive next
	assert.Equal(t, a, register(t, m, "A"))
	require.NoError(t, m.Assign("Low", 5))
	_, err = m.Register("C")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestManager_RegisterUpToMaxID(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Assign("Almost", MaxID-1))

	assert.Equal(t, MaxID, register(t, m, "Last"))
	_, err := m.Register("Overflow")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestManager_ConcurrentRegister(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	results := make([]ID, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Register("Shared")
		}(i)
	}
	wg.Wait()

	for _, id := range results {
		assert.Equal(t, results[0], id)
	}
	assert.Equal(t, 1, m.Len())
}

func TestManager_LoadAndSave(t *testing.T) {
	store := &memStore{ids: map[string]ID{"Tree": 7}}
	m := NewManager()

	require.NoError(t, m.Load(context.Background(), store))
	assert.Equal(t, ID(7), m.Lookup("Tree"))

	id, err := m.RegisterAndSave(context.Background(), store, "Rock")
	require.NoError(t, err)
	assert.Equal(t, ID(8), id)
	assert.Equal(t, ID(8), store.ids["Rock"])

	snap := m.Snapshot()
	snap["Tree"] = 99
	assert.Equal(t, ID(7), m.Lookup("Tree"))
}

func TestManager_LoadRejectsNoObject(t *testing.T) {
	store := &memStore{ids: map[string]ID{"Broken": NoObject}}
	err := NewManager().Load(context.Background(), store)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestManager_SaveError(t *testing.T) {
	store := &memStore{ids: map[string]ID{}, saveErr: errors.New("down")}
	m := NewManager()

	_, err := m.RegisterAndSave(context.Background(), store, "Rock")
	assert.Error(t, err)
}

func TestManager_AssignAndSave(t *testing.T) {
	store := &memStore{ids: map[string]ID{}}
	m := NewManager()

	require.NoError(t, m.AssignAndSave(context.Background(), store, "Boss", 12))
	assert.Equal(t, ID(12), m.Lookup("Boss"))
	assert.Equal(t, ID(12), store.ids["Boss"])

	assert.ErrorIs(t, m.AssignAndSave(context.Background(), store, "Big", MaxID), ErrInvalidID)
	assert.ErrorIs(t, m.AssignAndSave(context.Background(), store, "Zero", NoObject), ErrInvalidID)
	assert.NotContains(t, store.ids, "Big")
	assert.Equal(t, ID(13), register(t, m, "Minion"))
}

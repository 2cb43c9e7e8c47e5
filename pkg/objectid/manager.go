package objectid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ID is the numeric handle of a named game object
type ID uint32

const (
	// NoObject is returned for names that were never registered
	NoObject ID = 0
	// MaxID is the largest identifier a name can hold
	MaxID ID = math.MaxUint32
)

var (
	ErrExhausted = errors.New("object identifiers exhausted")
	ErrInvalidID = errors.New("invalid object identifier")
)

// Store persists the name to identifier mapping
type Store interface {
	// LoadAll returns every persisted mapping
	LoadAll(ctx context.Context) (map[string]ID, error)
	// Save persists one mapping
	Save(ctx context.Context, name string, id ID) error
}

// Manager maps object names to identifiers.
// It is safe for concurrent use.
type Manager struct {
	mu  sync.RWMutex
	ids map[string]ID
	// next is NoObject once MaxID has been handed out
	next ID
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{
		ids:  make(map[string]ID),
		next: 1,
	}
}

// Lookup returns the identifier of name, or NoObject if name is unknown
func (m *Manager) Lookup(name string) ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids[name]
}

// Register returns the identifier of name, assigning the next free one if needed
func (m *Manager) Register(name string) (ID, error) {
	m.mu.RLock()
	id, ok := m.ids[name]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[name]; ok {
		return id, nil
	}
	if m.next == NoObject {
		return NoObject, fmt.Errorf("%w: cannot register %q", ErrExhausted, name)
	}
	id = m.next
	m.ids[name] = id
	m.next++ // wraps to NoObject after MaxID
	return id, nil
}

// Assign forces name to map to id
func (m *Manager) Assign(name string, id ID) error {
	if id == NoObject {
		return fmt.Errorf("%w: %q cannot map to %d", ErrInvalidID, name, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[name] = id
	switch {
	case id == MaxID:
		m.next = NoObject
	case m.next != NoObject && id >= m.next:
		m.next = id + 1
	}
	return nil
}

// Len returns the number of registered names
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Names returns the registered names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.ids))
	for name := range m.ids {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the mapping
func (m *Manager) Snapshot() map[string]ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ID, len(m.ids))
	for k, v := range m.ids {
		out[k] = v
	}
	return out
}

// Load merges every mapping persisted in store into the manager
func (m *Manager) Load(ctx context.Context, store Store) error {
	persisted, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load object identifiers: %w", err)
	}
	for name, id := range persisted {
		if err := m.Assign(name, id); err != nil {
			return fmt.Errorf("failed to load object identifiers: %w", err)
		}
	}
	return nil
}

// RegisterAndSave registers name and persists the mapping
func (m *Manager) RegisterAndSave(ctx context.Context, store Store, name string) (ID, error) {
	id, err := m.Register(name)
	if err != nil {
		return NoObject, err
	}
	if err := store.Save(ctx, name, id); err != nil {
		return id, fmt.Errorf("failed to save object identifier %q: %w", name, err)
	}
	return id, nil
}

// AssignAndSave forces name to map to id and persists the mapping. MaxID is
// reserved so that a client cannot exhaust automatic registration.
func (m *Manager) AssignAndSave(ctx context.Context, store Store, name string, id ID) error {
	if id == MaxID {
		return fmt.Errorf("%w: %d is reserved", ErrInvalidID, id)
	}
	if err := m.Assign(name, id); err != nil {
		return err
	}
	if err := store.Save(ctx, name, id); err != nil {
		return fmt.Errorf("failed to save object identifier %q: %w", name, err)
	}
	return nil
}

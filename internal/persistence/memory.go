package persistence

import "sync"

// MemoryStore keeps the last saved snapshot in memory. Nothing survives the process.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot *Snapshot
	saves    int
}

// NewMemoryStore creates a MemoryStore, optionally seeded with an initial snapshot.
func NewMemoryStore(initial *Snapshot) *MemoryStore {
	if initial == nil {
		initial = NewSnapshot()
	}
	initial.normalize()
	return &MemoryStore{snapshot: initial.Clone()}
}

func (m *MemoryStore) Name() string {
	return "memory"
}

func (m *MemoryStore) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.snapshot.Validate(); err != nil {
		return nil, err
	}
	return m.snapshot.Clone(), nil
}

func (m *MemoryStore) Save(s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s.Clone()
	m.saves++
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Snapshot returns a copy of the last saved snapshot.
func (m *MemoryStore) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.Clone()
}

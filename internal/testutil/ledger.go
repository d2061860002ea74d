package testutil

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/persistence"
)

// ErrDiskFull is returned by a FailingPersister while it is failing.
var ErrDiskFull = errors.New("no space left on device")

// FailingPersister is an in-memory persister whose Save can be switched to fail.
// It is used to exercise the durability gap: mutations that apply in memory
// but cannot be written to storage.
type FailingPersister struct {
	*persistence.MemoryStore

	mu       sync.Mutex
	failing  bool
	failures int
}

// NewFailingPersister creates a FailingPersister that starts out healthy.
func NewFailingPersister(initial *persistence.Snapshot) *FailingPersister {
	return &FailingPersister{MemoryStore: persistence.NewMemoryStore(initial)}
}

// SetFailing switches Save between failing with ErrDiskFull and succeeding.
func (p *FailingPersister) SetFailing(failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = failing
}

// Failures returns how many Save calls have failed.
func (p *FailingPersister) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *FailingPersister) Save(s *persistence.Snapshot) error {
	p.mu.Lock()
	if p.failing {
		p.failures++
		p.mu.Unlock()
		return ErrDiskFull
	}
	p.mu.Unlock()
	return p.MemoryStore.Save(s)
}

// NewTestStore opens a ledger.Store on an empty in-memory persister.
//
// Example usage:
//
//	store, persister := testutil.NewTestStore(t)
//	require.NoError(t, store.SetCash("alice", testutil.Dec("1000")))
//	assert.Equal(t, 1, persister.Saves())
func NewTestStore(t *testing.T) (*ledger.Store, *persistence.MemoryStore) {
	t.Helper()

	persister := persistence.NewMemoryStore(nil)
	return NewTestStoreWith(t, persister), persister
}

// NewTestStoreWith opens a ledger.Store on the given persister.
func NewTestStoreWith(t *testing.T, persister persistence.Persister) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(persister, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open test ledger: %v", err)
	}
	return store
}

// NewFundedTestStore opens a ledger.Store where every given user already has cash.
//
// Example usage:
//
//	store, _ := testutil.NewFundedTestStore(t, map[string]string{"alice": "1000"})
func NewFundedTestStore(t *testing.T, cash map[string]string) (*ledger.Store, *persistence.MemoryStore) {
	t.Helper()

	snapshot := persistence.NewSnapshot()
	for username, amount := range cash {
		snapshot.Cash[username] = Dec(amount)
	}
	persister := persistence.NewMemoryStore(snapshot)
	return NewTestStoreWith(t, persister), persister
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Package ledger holds the in-memory account state: per-user cash, per-user
// holdings and the append-only order log.
//
// A Store is the single owner of that state. Every mutation runs inside the
// store's write lock and ends with a full snapshot being handed to the
// configured persistence.Persister before the lock is released. Reads share
// the read lock and never observe a half-applied mutation.
package ledger

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/persistence"
)

// Reader is the read-only view of the ledger handed to View callbacks.
// *Tx also implements it, so read helpers work inside and outside Update.
type Reader interface {
	Cash(username string) decimal.Decimal
	Holding(username, symbol string) (model.Holding, bool)
	Holdings(username string) []model.Holding
	HasAccount(username string) bool
	OrdersByUser(username string) []model.OrderRecord
}

// Store owns the ledger state and keeps it in sync with a Persister.
type Store struct {
	mu        sync.RWMutex
	state     *persistence.Snapshot
	persister persistence.Persister
	dirty     bool
	log       zerolog.Logger
}

// Open loads the persisted state and returns a ready Store.
// Any load failure is returned as *apperrors.StartupError: the caller must
// not continue with an empty ledger that would overwrite the stored one.
func Open(persister persistence.Persister, log zerolog.Logger) (*Store, error) {
	snapshot, err := persister.Load()
	if err != nil {
		return nil, &apperrors.StartupError{Source: persister.Name(), Err: err}
	}

	s := &Store{
		state:     snapshot,
		persister: persister,
		log:       log.With().Str("component", "ledger").Logger(),
	}

	s.log.Info().
		Str("storage", persister.Name()).
		Int("users", len(snapshot.Users())).
		Int("orders", len(snapshot.Orders)).
		Msg("Ledger loaded")

	return s, nil
}

// Update runs fn inside the write critical section. Changes staged on tx are
// applied only if fn returns nil; if anything changed, the full state is then
// flushed before the lock is released.
//
// A flush failure is returned as *apperrors.PersistenceError. The changes stay
// applied in memory and the store is marked dirty until a later flush succeeds.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.update("update", fn)
}

func (s *Store) update(op string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s.state)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.changed() {
		return nil
	}

	tx.apply(s.state)
	return s.flushLocked(op)
}

// View runs fn with a consistent read-only view of the ledger.
// fn must not retain the Reader after it returns.
func (s *Store) View(fn func(r Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(snapshotReader{s.state})
}

// Cash returns the user's cash balance, zero for unknown users.
func (s *Store) Cash(username string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReader{s.state}.Cash(username)
}

// SetCash replaces the user's cash balance.
func (s *Store) SetCash(username string, value decimal.Decimal) error {
	return s.update("set cash", func(tx *Tx) error {
		return tx.SetCash(username, value)
	})
}

// Holding returns the user's holding in symbol, if any.
func (s *Store) Holding(username, symbol string) (model.Holding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReader{s.state}.Holding(username, symbol)
}

// SetHolding upserts a holding. A holding with no shares removes the record.
func (s *Store) SetHolding(username string, holding model.Holding) error {
	return s.update("set holding", func(tx *Tx) error {
		return tx.SetHolding(username, holding)
	})
}

// RemoveHolding deletes the user's holding in symbol. Removing an absent
// holding is a no-op and does not flush.
func (s *Store) RemoveHolding(username, symbol string) error {
	return s.update("remove holding", func(tx *Tx) error {
		tx.RemoveHolding(username, symbol)
		return nil
	})
}

// Holdings returns a copy of the user's holdings sorted by symbol.
func (s *Store) Holdings(username string) []model.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReader{s.state}.Holdings(username)
}

// HasAccount reports whether cash has ever been set for the user.
func (s *Store) HasAccount(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReader{s.state}.HasAccount(username)
}

// Users returns every user with cash or holdings, sorted.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Users()
}

// AppendOrder adds a record to the end of the order log.
func (s *Store) AppendOrder(record model.OrderRecord) error {
	return s.update("append order", func(tx *Tx) error {
		return tx.AppendOrder(record)
	})
}

// OrdersByUser returns the user's orders in append order.
func (s *Store) OrdersByUser(username string) []model.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReader{s.state}.OrdersByUser(username)
}

// Orders returns a copy of the full order log.
func (s *Store) Orders() []model.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Orders)
}

// Flush saves the current state regardless of the dirty flag.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked("flush")
}

// Dirty reports whether the in-memory state is ahead of storage because the
// last save failed.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// StorageName describes where the ledger is persisted.
func (s *Store) StorageName() string {
	return s.persister.Name()
}

// Close attempts a final flush when the store is dirty, then closes the persister.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flushErr error
	if s.dirty {
		flushErr = s.flushLocked("close")
	}
	if err := s.persister.Close(); err != nil {
		return fmt.Errorf("failed to close ledger storage: %w", err)
	}
	return flushErr
}

// flushLocked must be called with the write lock held.
func (s *Store) flushLocked(op string) error {
	if err := s.persister.Save(s.state); err != nil {
		s.dirty = true
		s.log.Error().
			Err(err).
			Str("op", op).
			Str("storage", s.persister.Name()).
			Msg("Ledger changed in memory but could not be persisted")
		return &apperrors.PersistenceError{Op: op, Err: err}
	}

	if s.dirty {
		s.log.Info().Str("op", op).Msg("Ledger persisted after earlier failure")
	}
	s.dirty = false

	s.log.Debug().
		Str("op", op).
		Int("orders", len(s.state.Orders)).
		Msg("Ledger persisted")
	return nil
}

// snapshotReader reads committed state. Callers hold the store lock.
type snapshotReader struct {
	s *persistence.Snapshot
}

func (r snapshotReader) Cash(username string) decimal.Decimal {
	if cash, ok := r.s.Cash[username]; ok {
		return cash
	}
	return decimal.Zero
}

func (r snapshotReader) Holding(username, symbol string) (model.Holding, bool) {
	h, ok := r.s.Holdings[username][symbol]
	return h, ok
}

func (r snapshotReader) Holdings(username string) []model.Holding {
	holdings := make([]model.Holding, 0, len(r.s.Holdings[username]))
	for _, h := range r.s.Holdings[username] {
		holdings = append(holdings, h)
	}
	sortHoldings(holdings)
	return holdings
}

func (r snapshotReader) HasAccount(username string) bool {
	_, ok := r.s.Cash[username]
	return ok
}

func (r snapshotReader) OrdersByUser(username string) []model.OrderRecord {
	orders := make([]model.OrderRecord, 0)
	for _, o := range r.s.Orders {
		if o.Username == username {
			orders = append(orders, o)
		}
	}
	return orders
}

func sortHoldings(holdings []model.Holding) {
	slices.SortFunc(holdings, func(a, b model.Holding) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
}

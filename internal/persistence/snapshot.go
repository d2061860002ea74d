// Package persistence stores full snapshots of the ledger state.
//
// Every save replaces the whole stored state; there is no incremental log.
// The on-disk layout is the Snapshot type: cash by user, holdings by user and
// symbol, and the order log in append order.
package persistence

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// Snapshot is the complete ledger state. Its JSON form is the ledger file format.
type Snapshot struct {
	Cash     map[string]decimal.Decimal          `json:"cash"`
	Holdings map[string]map[string]model.Holding `json:"holdings"`
	Orders   []model.OrderRecord                 `json:"orders"`
}

// Persister loads and saves ledger snapshots.
// Save must not retain the snapshot: callers keep mutating it after Save returns.
type Persister interface {
	Load() (*Snapshot, error)
	Save(s *Snapshot) error
	Close() error
	// Name describes the storage location for logs and errors.
	Name() string
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Cash:     make(map[string]decimal.Decimal),
		Holdings: make(map[string]map[string]model.Holding),
		Orders:   make([]model.OrderRecord, 0),
	}
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	maps.Copy(c.Cash, s.Cash)
	for user, holdings := range s.Holdings {
		c.Holdings[user] = maps.Clone(holdings)
	}
	c.Orders = append(c.Orders, s.Orders...)
	return c
}

// Users returns every username with cash or holdings, sorted.
func (s *Snapshot) Users() []string {
	seen := make(map[string]bool, len(s.Cash))
	for user := range s.Cash {
		seen[user] = true
	}
	for user, holdings := range s.Holdings {
		if len(holdings) > 0 {
			seen[user] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// normalize replaces nil collections left by decoding with empty ones.
func (s *Snapshot) normalize() {
	if s.Cash == nil {
		s.Cash = make(map[string]decimal.Decimal)
	}
	if s.Holdings == nil {
		s.Holdings = make(map[string]map[string]model.Holding)
	}
	for user, holdings := range s.Holdings {
		if holdings == nil {
			delete(s.Holdings, user)
		}
	}
	if s.Orders == nil {
		s.Orders = make([]model.OrderRecord, 0)
	}
}

// Validate checks the invariants a decoded snapshot must hold before the
// ledger can trust it. Violations wrap apperrors.ErrCorruptState.
func (s *Snapshot) Validate() error {
	for user, holdings := range s.Holdings {
		if strings.TrimSpace(user) == "" {
			return fmt.Errorf("%w: holdings for blank username", apperrors.ErrCorruptState)
		}
		for symbol, h := range holdings {
			if strings.TrimSpace(symbol) == "" || h.Symbol != symbol {
				return fmt.Errorf("%w: holding key %q does not match symbol %q for %s", apperrors.ErrCorruptState, symbol, h.Symbol, user)
			}
			if h.Shares <= 0 {
				return fmt.Errorf("%w: holding %s for %s has %d shares", apperrors.ErrCorruptState, symbol, user, h.Shares)
			}
			if h.AvgCost.IsNegative() {
				return fmt.Errorf("%w: holding %s for %s has negative average cost", apperrors.ErrCorruptState, symbol, user)
			}
		}
	}
	for i, o := range s.Orders {
		if o.Shares <= 0 || o.Price.IsNegative() || o.Username == "" || o.Symbol == "" {
			return fmt.Errorf("%w: order %d is invalid", apperrors.ErrCorruptState, i)
		}
		if _, ok := model.ParseAction(string(o.Action)); !ok {
			return fmt.Errorf("%w: order %d has unknown action %q", apperrors.ErrCorruptState, i, o.Action)
		}
	}
	return nil
}

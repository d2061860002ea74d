package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/persistence"
)

type holdingKey struct {
	username string
	symbol   string
}

// Tx stages changes against the committed state for the duration of one
// Update call. Reads on a Tx see its own staged writes. A Tx is only valid
// inside the Update callback that received it.
type Tx struct {
	base     *persistence.Snapshot
	cash     map[string]decimal.Decimal
	holdings map[holdingKey]*model.Holding // nil marks a removal
	orders   []model.OrderRecord
}

func newTx(base *persistence.Snapshot) *Tx {
	return &Tx{
		base:     base,
		cash:     make(map[string]decimal.Decimal),
		holdings: make(map[holdingKey]*model.Holding),
	}
}

// Cash returns the user's cash balance including staged changes.
func (tx *Tx) Cash(username string) decimal.Decimal {
	if cash, ok := tx.cash[username]; ok {
		return cash
	}
	return snapshotReader{tx.base}.Cash(username)
}

// SetCash stages a new cash balance for the user.
func (tx *Tx) SetCash(username string, value decimal.Decimal) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.ErrInvalidUsername
	}
	tx.cash[username] = value
	return nil
}

// Holding returns the user's holding including staged changes.
func (tx *Tx) Holding(username, symbol string) (model.Holding, bool) {
	if h, ok := tx.holdings[holdingKey{username, symbol}]; ok {
		if h == nil {
			return model.Holding{}, false
		}
		return *h, true
	}
	return snapshotReader{tx.base}.Holding(username, symbol)
}

// SetHolding stages an upsert. A holding with zero or fewer shares is staged
// as a removal so that no empty position is ever stored.
func (tx *Tx) SetHolding(username string, holding model.Holding) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.ErrInvalidUsername
	}
	if strings.TrimSpace(holding.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidHolding)
	}
	if holding.AvgCost.IsNegative() {
		return fmt.Errorf("%w: average cost of %s is negative", apperrors.ErrInvalidHolding, holding.Symbol)
	}
	if holding.Shares <= 0 {
		tx.RemoveHolding(username, holding.Symbol)
		return nil
	}
	tx.holdings[holdingKey{username, holding.Symbol}] = &holding
	return nil
}

// RemoveHolding stages the deletion of a holding. Absent holdings are ignored.
func (tx *Tx) RemoveHolding(username, symbol string) {
	key := holdingKey{username, symbol}
	if _, ok := tx.Holding(username, symbol); !ok {
		// Drop any staged upsert-then-removal of a holding the base never had.
		if _, inBase := tx.base.Holdings[username][symbol]; !inBase {
			delete(tx.holdings, key)
		}
		return
	}
	tx.holdings[key] = nil
}

// Holdings returns the user's holdings including staged changes, sorted by symbol.
func (tx *Tx) Holdings(username string) []model.Holding {
	merged := make(map[string]model.Holding, len(tx.base.Holdings[username]))
	for symbol, h := range tx.base.Holdings[username] {
		merged[symbol] = h
	}
	for key, h := range tx.holdings {
		if key.username != username {
			continue
		}
		if h == nil {
			delete(merged, key.symbol)
		} else {
			merged[key.symbol] = *h
		}
	}

	holdings := make([]model.Holding, 0, len(merged))
	for _, h := range merged {
		holdings = append(holdings, h)
	}
	sortHoldings(holdings)
	return holdings
}

// HasAccount reports whether the user has a cash balance, staged or committed.
func (tx *Tx) HasAccount(username string) bool {
	if _, ok := tx.cash[username]; ok {
		return true
	}
	return snapshotReader{tx.base}.HasAccount(username)
}

// AppendOrder stages a record at the end of the order log.
func (tx *Tx) AppendOrder(record model.OrderRecord) error {
	if strings.TrimSpace(record.Username) == "" {
		return apperrors.ErrInvalidUsername
	}
	if strings.TrimSpace(record.Symbol) == "" || record.Shares <= 0 || record.Price.IsNegative() {
		return fmt.Errorf("%w: symbol, positive shares and a non-negative price are required", apperrors.ErrInvalidOrder)
	}
	if _, ok := model.ParseAction(string(record.Action)); !ok {
		return fmt.Errorf("%w: unknown action %q", apperrors.ErrInvalidOrder, record.Action)
	}
	tx.orders = append(tx.orders, record)
	return nil
}

// OrdersByUser returns the user's committed and staged orders in append order.
func (tx *Tx) OrdersByUser(username string) []model.OrderRecord {
	orders := snapshotReader{tx.base}.OrdersByUser(username)
	for _, o := range tx.orders {
		if o.Username == username {
			orders = append(orders, o)
		}
	}
	return orders
}

func (tx *Tx) changed() bool {
	return len(tx.cash) > 0 || len(tx.holdings) > 0 || len(tx.orders) > 0
}

// apply writes the staged changes into s. Holdings are replaced, never mutated.
func (tx *Tx) apply(s *persistence.Snapshot) {
	for username, cash := range tx.cash {
		s.Cash[username] = cash
	}
	for key, h := range tx.holdings {
		if h == nil {
			delete(s.Holdings[key.username], key.symbol)
			if len(s.Holdings[key.username]) == 0 {
				delete(s.Holdings, key.username)
			}
			continue
		}
		if s.Holdings[key.username] == nil {
			s.Holdings[key.username] = make(map[string]model.Holding)
		}
		s.Holdings[key.username][key.symbol] = *h
	}
	s.Orders = append(s.Orders, tx.orders...)
}

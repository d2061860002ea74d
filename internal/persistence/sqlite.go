package persistence

import (
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// SQLiteStore persists snapshots into the cash, holding and order_log tables.
// Each Save replaces the content of all three tables in one transaction, the
// same full-snapshot contract as FileStore. The schema is created by
// database.Migrate. Money is stored as decimal text to stay exact.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

// NewSQLiteStore creates a SQLiteStore on an open, migrated database.
func NewSQLiteStore(db *sql.DB, name string) *SQLiteStore {
	return &SQLiteStore{db: db, name: name}
}

// Name returns the database location.
func (s *SQLiteStore) Name() string {
	return s.name
}

// DB returns the underlying database handle for health checks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Load reads the full ledger state. Rows that cannot be parsed wrap apperrors.ErrCorruptState.
func (s *SQLiteStore) Load() (*Snapshot, error) {
	snapshot := NewSnapshot()

	if err := s.loadCash(snapshot); err != nil {
		return nil, err
	}
	if err := s.loadHoldings(snapshot); err != nil {
		return nil, err
	}
	if err := s.loadOrders(snapshot); err != nil {
		return nil, err
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SQLiteStore) loadCash(snapshot *Snapshot) error {
	rows, err := s.db.Query(`SELECT username, balance FROM cash`)
	if err != nil {
		return fmt.Errorf("failed to query cash table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username, balanceStr string
		if err := rows.Scan(&username, &balanceStr); err != nil {
			return fmt.Errorf("failed to scan cash table results: %w", err)
		}
		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return fmt.Errorf("%w: cash for %s: %v", apperrors.ErrCorruptState, username, err)
		}
		snapshot.Cash[username] = balance
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cash table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadHoldings(snapshot *Snapshot) error {
	rows, err := s.db.Query(`SELECT username, symbol, shares, avg_cost FROM holding`)
	if err != nil {
		return fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username, avgCostStr string
		var h model.Holding
		if err := rows.Scan(&username, &h.Symbol, &h.Shares, &avgCostStr); err != nil {
			return fmt.Errorf("failed to scan holding table results: %w", err)
		}
		h.AvgCost, err = decimal.NewFromString(avgCostStr)
		if err != nil {
			return fmt.Errorf("%w: avg cost of %s for %s: %v", apperrors.ErrCorruptState, h.Symbol, username, err)
		}
		if snapshot.Holdings[username] == nil {
			snapshot.Holdings[username] = make(map[string]model.Holding)
		}
		snapshot.Holdings[username][h.Symbol] = h
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating holding table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadOrders(snapshot *Snapshot) error {
	rows, err := s.db.Query(`
		SELECT id, timestamp, username, symbol, action, shares, price, total_amount
		FROM order_log
		ORDER BY seq ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to query order_log table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o model.OrderRecord
		var timestampStr, action, priceStr, totalStr string
		if err := rows.Scan(&o.ID, &timestampStr, &o.Username, &o.Symbol, &action, &o.Shares, &priceStr, &totalStr); err != nil {
			return fmt.Errorf("failed to scan order_log table results: %w", err)
		}
		o.Action = model.Action(action)
		if o.Timestamp, err = ParseTime(timestampStr); err != nil {
			return fmt.Errorf("%w: order %s: %v", apperrors.ErrCorruptState, o.ID, err)
		}
		if o.Price, err = decimal.NewFromString(priceStr); err != nil {
			return fmt.Errorf("%w: order %s price: %v", apperrors.ErrCorruptState, o.ID, err)
		}
		if o.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
			return fmt.Errorf("%w: order %s total: %v", apperrors.ErrCorruptState, o.ID, err)
		}
		snapshot.Orders = append(snapshot.Orders, o)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order_log table: %w", err)
	}
	return nil
}

// Save replaces the stored state with the snapshot in a single transaction.
func (s *SQLiteStore) Save(snapshot *Snapshot) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"order_log", "holding", "cash"} {
		if _, err = tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}

	for _, username := range slices.Sorted(maps.Keys(snapshot.Cash)) {
		if _, err = tx.Exec(
			`INSERT INTO cash (username, balance) VALUES (?, ?)`,
			username, snapshot.Cash[username].String(),
		); err != nil {
			return fmt.Errorf("failed to insert cash for %s: %w", username, err)
		}
	}

	for _, username := range slices.Sorted(maps.Keys(snapshot.Holdings)) {
		holdings := snapshot.Holdings[username]
		for _, symbol := range slices.Sorted(maps.Keys(holdings)) {
			h := holdings[symbol]
			if _, err = tx.Exec(
				`INSERT INTO holding (username, symbol, shares, avg_cost) VALUES (?, ?, ?, ?)`,
				username, h.Symbol, h.Shares, h.AvgCost.String(),
			); err != nil {
				return fmt.Errorf("failed to insert holding %s for %s: %w", symbol, username, err)
			}
		}
	}

	for i, o := range snapshot.Orders {
		if _, err = tx.Exec(`
			INSERT INTO order_log (seq, id, timestamp, username, symbol, action, shares, price, total_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i+1, o.ID, o.Timestamp.UTC().Format(time.RFC3339Nano), o.Username, o.Symbol,
			string(o.Action), o.Shares, o.Price.String(), o.TotalAmount.String(),
		); err != nil {
			return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ParseTime parses a timestamp in RFC3339 (with or without fractional
// seconds) or "2006-01-02" format and returns it in UTC.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		returnTime, err = time.Parse("2006-01-02", str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

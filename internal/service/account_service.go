package service

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// AccountService opens and reads trading accounts.
// An account exists once the ledger holds a cash balance for the user.
type AccountService struct {
	store       *ledger.Store
	defaultCash decimal.Decimal
	log         zerolog.Logger
}

// NewAccountService creates a new AccountService that seeds new accounts with defaultCash.
func NewAccountService(store *ledger.Store, defaultCash decimal.Decimal, log zerolog.Logger) *AccountService {
	return &AccountService{
		store:       store,
		defaultCash: defaultCash,
		log:         log.With().Str("component", "accounts").Logger(),
	}
}

// Open seeds the default cash balance for a user without an account and
// returns the account. Opening an existing account changes nothing.
//
// If the seeded balance cannot be persisted the account is returned together
// with *apperrors.PersistenceError.
func (s *AccountService) Open(username string) (model.Account, error) {
	if strings.TrimSpace(username) == "" {
		return model.Account{}, apperrors.ErrInvalidUsername
	}

	created := false
	err := s.store.Update(func(tx *ledger.Tx) error {
		if tx.HasAccount(username) {
			return nil
		}
		created = true
		return tx.SetCash(username, s.defaultCash)
	})
	if created {
		s.log.Info().Str("username", username).Str("cash", s.defaultCash.String()).Msg("Account opened")
	}

	account, _ := s.Get(username)
	return account, err
}

// Get returns the user's cash and holdings sorted by symbol.
// Unknown users have zero cash and no holdings.
func (s *AccountService) Get(username string) (model.Account, error) {
	if strings.TrimSpace(username) == "" {
		return model.Account{}, apperrors.ErrInvalidUsername
	}

	var account model.Account
	_ = s.store.View(func(r ledger.Reader) error {
		account = model.Account{
			Username: username,
			Cash:     r.Cash(username),
			Holdings: r.Holdings(username),
		}
		return nil
	})
	return account, nil
}

// Exists reports whether the user has an account.
func (s *AccountService) Exists(username string) bool {
	return s.store.HasAccount(username)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler with the provided service dependency.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// AccountResponse is an account together with its durability state.
type AccountResponse struct {
	model.Account
	Durable bool   `json:"durable"`
	Warning string `json:"warning,omitempty"`
}

// OpenAccount handles POST requests to open an account with the default cash balance.
// Opening an existing account returns it unchanged.
//
// Endpoint: POST /api/account/{username}
// Response: 200 OK with AccountResponse
// Error: 400 Bad Request if the username is invalid (validated by middleware)
// Error: 500 Internal Server Error if the account cannot be opened
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	account, err := h.accountService.Open(username)
	var persistErr *apperrors.PersistenceError
	switch {
	case err == nil:
		response.RespondJSON(w, http.StatusOK, AccountResponse{Account: account, Durable: true})
	case errors.As(err, &persistErr):
		response.RespondJSON(w, http.StatusOK, AccountResponse{
			Account: account,
			Durable: false,
			Warning: apperrors.ErrPersistence.Error(),
		})
	default:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToOpenAccount.Error(), err.Error())
	}
}

// GetAccount handles GET requests to retrieve a user's cash and holdings.
//
// Endpoint: GET /api/account/{username}
// Response: 200 OK with model.Account
// Error: 400 Bad Request if the username is invalid (validated by middleware)
// Error: 404 Not Found if the user has no account
// Error: 500 Internal Server Error if retrieval fails
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if !h.accountService.Exists(username) {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrAccountNotFound.Error(), username)
		return
	}

	account, err := h.accountService.Get(username)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAccount.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
)

// PortfolioHandler handles HTTP requests for portfolio valuation endpoints.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Analysis handles GET requests to reconstruct a user's portfolio cost, value and
// profit over time. A user without holdings or with a symbol lacking price
// history gets hasData=false and an explanatory message, not an error.
//
// Endpoint: GET /api/portfolio/{username}/analysis
// Response: 200 OK with PortfolioResult
// Error: 400 Bad Request if the username is invalid (validated by middleware)
// Error: 500 Internal Server Error if the analysis was interrupted
func (h *PortfolioHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	result, err := h.portfolioService.Analyze(r.Context(), username)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToAnalyzePortfolio.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Holdings handles GET requests to value each of a user's holdings at the current price.
// A holding whose price is unavailable carries an error field instead of market values.
//
// Endpoint: GET /api/portfolio/{username}/holdings
// Response: 200 OK with array of HoldingValuation
// Error: 400 Bad Request if the username is invalid (validated by middleware)
// Error: 500 Internal Server Error if valuation was interrupted
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	valuations, err := h.portfolioService.Holdings(r.Context(), username)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, valuations)
}

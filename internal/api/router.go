package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Trading-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/config"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
)

// Services groups the services exposed over HTTP.
type Services struct {
	System    *service.SystemService
	Account   *service.AccountService
	Order     *service.OrderService
	Portfolio *service.PortfolioService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// Write endpoints require the internal API key when one is configured.
	writeGuard := func(next http.Handler) http.Handler { return next }
	if cfg.Security.InternalAPIKey != "" {
		writeGuard = custommiddleware.APIKeyMiddleware(cfg.Security.InternalAPIKey)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/account/{username}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUsernameMiddleware)
			accountHandler := handlers.NewAccountHandler(services.Account)
			r.Get("/", accountHandler.GetAccount)
			r.With(writeGuard).Post("/", accountHandler.OpenAccount)
		})

		r.Route("/order/{username}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUsernameMiddleware)
			orderHandler := handlers.NewOrderHandler(services.Order)
			r.Get("/", orderHandler.Orders)
			r.With(writeGuard).Post("/", orderHandler.PlaceOrder)
			r.With(custommiddleware.ValidateUUIDMiddleware).Get("/{uuid}", orderHandler.GetOrder)
		})

		r.Route("/portfolio/{username}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUsernameMiddleware)
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio)
			r.Get("/analysis", portfolioHandler.Analysis)
			r.Get("/holdings", portfolioHandler.Holdings)
		})
	})

	return r
}

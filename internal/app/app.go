// Package app assembles the ledger, price source, services and background
// jobs from configuration. The HTTP server and the CLI share it.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/config"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/database"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/persistence"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/pricing"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/scheduler"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/yahoo"
)

// App holds the wired application components.
type App struct {
	Config    *config.Config
	Store     *ledger.Store
	Prices    pricing.Source
	Accounts  *service.AccountService
	Orders    *service.OrderService
	Portfolio *service.PortfolioService
	System    *service.SystemService
	Scheduler *scheduler.Scheduler

	log zerolog.Logger
}

// New opens the configured ledger storage, loads the ledger and builds the
// services. A ledger that cannot be loaded is returned as
// *apperrors.StartupError; the caller must not continue.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	persister, db, err := newPersister(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := ledger.Open(persister, log)
	if err != nil {
		_ = persister.Close()
		return nil, err
	}

	prices, err := newPriceSource(cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Store:     store,
		Prices:    prices,
		Accounts:  service.NewAccountService(store, cfg.Trading.DefaultCash, log),
		Orders:    service.NewOrderService(store, prices, cfg.Trading.PriceTimeout, log),
		Portfolio: service.NewPortfolioService(store, prices, log),
		System:    service.NewSystemService(store, db, cfg.Storage.Driver, prices.Name(), features(cfg)),
		Scheduler: scheduler.New(log),
		log:       log,
	}

	if schedule := cfg.Scheduler.FlushRetrySchedule; schedule != "" {
		if err := a.Scheduler.AddJob(schedule, scheduler.NewFlushRetryJob(store, log)); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to schedule ledger flush retry: %w", err)
		}
	}

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("price_source", prices.Name()).
		Int("users", len(store.Users())).
		Msg("Application initialized")
	return a, nil
}

// Router returns the HTTP handler serving the API.
func (a *App) Router() http.Handler {
	return api.NewRouter(api.Services{
		System:    a.System,
		Account:   a.Accounts,
		Order:     a.Orders,
		Portfolio: a.Portfolio,
	}, a.Config, a.log)
}

// Start starts the background jobs.
func (a *App) Start() {
	a.Scheduler.Start()
}

// Close stops the background jobs and closes the ledger, attempting a final
// write if earlier writes failed.
func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.Store.Close()
}

func newPersister(cfg *config.Config, log zerolog.Logger) (persistence.Persister, *sql.DB, error) {
	switch cfg.Storage.Driver {
	case config.StorageJSON:
		store, err := persistence.NewFileStore(cfg.Storage.Path, cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create ledger file store: %w", err)
		}
		return store, nil, nil

	case config.StorageSQLite:
		db, err := database.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return persistence.NewSQLiteStore(db, cfg.Storage.Path), db, nil

	case config.StorageMemory:
		return persistence.NewMemoryStore(nil), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newPriceSource(cfg *config.Config, log zerolog.Logger) (pricing.Source, error) {
	var source pricing.Source
	switch cfg.Pricing.Source {
	case config.PriceSourceYahoo:
		source = pricing.NewYahooSource(yahoo.NewFinanceClient(), cfg.Pricing.HistoryDays, log)

	case config.PriceSourceStatic:
		if cfg.Pricing.StaticFile == "" {
			source = pricing.NewStaticSource()
			break
		}
		static, err := pricing.LoadStaticSource(cfg.Pricing.StaticFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load static prices: %w", err)
		}
		source = static

	default:
		return nil, errors.New("unknown price source " + cfg.Pricing.Source)
	}

	if cfg.Pricing.CacheTTL > 0 {
		source = pricing.NewCachedSource(source, cfg.Pricing.CacheTTL)
	}
	return source, nil
}

func features(cfg *config.Config) map[string]bool {
	return map[string]bool{
		"holdings_valuation": true,
		"price_cache":        cfg.Pricing.CacheTTL > 0,
		"encrypted_storage":  cfg.Storage.EncryptionKey != "",
		"write_auth":         cfg.Security.InternalAPIKey != "",
		"flush_retry":        cfg.Scheduler.FlushRetrySchedule != "",
	}
}

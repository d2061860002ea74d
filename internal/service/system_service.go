package service

import (
	"database/sql"
	"fmt"
	"maps"
	"strconv"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/database"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	store         *ledger.Store
	db            *sql.DB // nil unless the sqlite storage driver is used
	storageDriver string
	priceSource   string
	features      map[string]bool
}

// NewSystemService creates a new SystemService.
// db may be nil when the ledger is not stored in SQLite.
func NewSystemService(store *ledger.Store, db *sql.DB, storageDriver, priceSource string, features map[string]bool) *SystemService {
	return &SystemService{
		store:         store,
		db:            db,
		storageDriver: storageDriver,
		priceSource:   priceSource,
		features:      features,
	}
}

// CheckHealth reports the ledger storage state. The error is non-nil when the
// database cannot be reached; a dirty ledger is reported in the info.
func (s *SystemService) CheckHealth() (model.HealthInfo, error) {
	info := model.HealthInfo{
		Storage: s.storageDriver,
		Dirty:   s.store.Dirty(),
	}
	if s.db != nil {
		if err := database.HealthCheck(s.db); err != nil {
			return info, fmt.Errorf("database unreachable: %w", err)
		}
	}
	return info, nil
}

// CheckVersion returns the application version, the schema version for
// SQLite storage and the enabled features.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	info := model.VersionInfo{
		AppVersion:    version.Version,
		StorageDriver: s.storageDriver,
		PriceSource:   s.priceSource,
		Features:      maps.Clone(s.features),
	}
	if info.Features == nil {
		info.Features = map[string]bool{}
	}

	if s.db != nil {
		dbVersion, err := database.SchemaVersion(s.db)
		if err != nil {
			return model.VersionInfo{}, err
		}
		info.DbVersion = strconv.FormatInt(dbVersion, 10)
	}
	return info, nil
}

package model

// VersionInfo contains version and feature information for the application.
type VersionInfo struct {
	AppVersion    string          `json:"app_version"`
	DbVersion     string          `json:"db_version,omitempty"`
	StorageDriver string          `json:"storage_driver"`
	PriceSource   string          `json:"price_source"`
	Features      map[string]bool `json:"features"`
}

// HealthInfo describes the state of the ledger storage.
// Dirty is true while the last snapshot write failed and has not been retried successfully.
type HealthInfo struct {
	Storage string `json:"storage"`
	Dirty   bool   `json:"dirty"`
}

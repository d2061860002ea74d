// Package version holds the build version, set with -ldflags at build time.
package version

// Version is overridden by: -ldflags "-X github.com/ndewijer/Trading-Ledger-Backend/internal/version.Version=1.2.3"
var Version = "dev"

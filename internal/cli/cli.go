// Package cli implements the ledgerctl subcommands. Each command opens the
// application on the configured storage, performs one operation and closes
// it again, so the ledger file is flushed before the process exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/app"
)

// Env holds what the commands need to run.
type Env struct {
	Open func() (*app.App, error)
	Out  io.Writer
	Err  io.Writer
}

// Register adds every ledgerctl command to the commander.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&openCmd{env: env}, "accounts")
	c.Register(&cashCmd{env: env}, "accounts")
	c.Register(newBuyCmd(env), "orders")
	c.Register(newSellCmd(env), "orders")
	c.Register(&ordersCmd{env: env}, "orders")
	c.Register(&analyzeCmd{env: env}, "portfolio")
	c.Register(&holdingsCmd{env: env}, "portfolio")
}

var errUsernameRequired = errors.New("a username is required (-u)")

// run opens the application, calls fn and closes the application. Errors
// from fn and from the final flush are printed to Err.
func (e *Env) run(ctx context.Context, fn func(ctx context.Context, a *app.App) error) subcommands.ExitStatus {
	a, err := e.Open()
	if err != nil {
		fmt.Fprintf(e.Err, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	if err := fn(ctx, a); err != nil {
		fmt.Fprintf(e.Err, "Error: %v\n", err)
		status = subcommands.ExitFailure
	}

	if err := a.Close(); err != nil {
		fmt.Fprintf(e.Err, "Error closing ledger: %v\n", err)
		status = subcommands.ExitFailure
	}
	return status
}

func (e *Env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.Out, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

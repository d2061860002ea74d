package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/app"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

type openCmd struct {
	env      *Env
	username string
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "open an account seeded with the default cash" }
func (*openCmd) Usage() string {
	return `ledgerctl open -u <username>

  Opens an account for the user. An existing account is left unchanged.
`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
}

func (c *openCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	return c.env.run(ctx, func(_ context.Context, a *app.App) error {
		account, err := a.Accounts.Open(c.username)
		var persistErr *apperrors.PersistenceError
		if err != nil && !errors.As(err, &persistErr) {
			return err
		}
		printAccount(c.env, account)
		if persistErr != nil {
			fmt.Fprintf(c.env.Err, "Warning: %v\n", persistErr)
		}
		return nil
	})
}

type cashCmd struct {
	env      *Env
	username string
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "display the cash balance and holdings of an account" }
func (*cashCmd) Usage() string {
	return `ledgerctl cash -u <username>

  Displays the cash balance and the holdings at average cost.
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
}

func (c *cashCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	return c.env.run(ctx, func(_ context.Context, a *app.App) error {
		if !a.Accounts.Exists(c.username) {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, c.username)
		}
		account, err := a.Accounts.Get(c.username)
		if err != nil {
			return err
		}
		printAccount(c.env, account)
		return nil
	})
}

func printAccount(env *Env, account model.Account) {
	fmt.Fprintf(env.Out, "Account: %s\nCash:    %s\n", account.Username, money(account.Cash))
	if len(account.Holdings) == 0 {
		return
	}

	fmt.Fprintln(env.Out)
	w := env.table()
	fmt.Fprintln(w, "SYMBOL\tSHARES\tAVG COST\tTOTAL COST")
	for _, h := range account.Holdings {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", h.Symbol, h.Shares, money(h.AvgCost), money(h.TotalCost()))
	}
	_ = w.Flush()
}

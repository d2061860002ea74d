package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/app"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
)

// orderCmd places a market order. buy and sell share it.
type orderCmd struct {
	env      *Env
	action   model.Action
	username string
}

func newBuyCmd(env *Env) *orderCmd  { return &orderCmd{env: env, action: model.ActionBuy} }
func newSellCmd(env *Env) *orderCmd { return &orderCmd{env: env, action: model.ActionSell} }

func (c *orderCmd) Name() string { return strings.ToLower(string(c.action)) }

func (c *orderCmd) Synopsis() string {
	if c.action == model.ActionBuy {
		return "buy shares at the current market price"
	}
	return "sell shares at the current market price"
}

func (c *orderCmd) Usage() string {
	return fmt.Sprintf(`ledgerctl %s -u <username> <symbol> <shares>

  Executes a %s order for a whole number of shares at the current price.
`, c.Name(), c.action)
}

func (c *orderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
}

func (c *orderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	if f.NArg() != 2 {
		fmt.Fprintf(c.env.Err, "Usage: %s", c.Usage())
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)
	shares, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(c.env.Err, "Error parsing shares %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ctx context.Context, a *app.App) error {
		result, err := a.Orders.PlaceOrder(ctx, c.username, symbol, string(c.action), shares)
		var persistErr *apperrors.PersistenceError
		if err != nil && !errors.As(err, &persistErr) {
			return err
		}
		if !result.Success {
			return errors.New(result.Message)
		}

		printExecution(c.env, result)
		if persistErr != nil {
			fmt.Fprintf(c.env.Err, "Warning: %v\n", persistErr)
		}
		return nil
	})
}

func printExecution(env *Env, result model.ExecutionResult) {
	fmt.Fprintln(env.Out, result.Message)
	w := env.table()
	if o := result.Order; o != nil {
		fmt.Fprintf(w, "Order:\t%s\n", o.ID)
		fmt.Fprintf(w, "Trade:\t%s %d %s @ %s = %s\n", o.Action, o.Shares, o.Symbol, money(o.Price), money(o.TotalAmount))
	}
	fmt.Fprintf(w, "Cash:\t%s\n", money(result.CashAfterTrade))
	fmt.Fprintf(w, "Shares:\t%d\n", result.TotalSharesAfterTrade)
	fmt.Fprintf(w, "Avg cost:\t%s\n", money(result.AverageCostAfterTrade))
	fmt.Fprintf(w, "Holding value:\t%s\n", money(result.TotalHoldingValueAfterTrade))
	_ = w.Flush()
}

type ordersCmd struct {
	env      *Env
	username string
	symbol   string
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "list the executed orders of a user" }
func (*ordersCmd) Usage() string {
	return `ledgerctl orders -u <username> [-s <symbol>]

  Lists the user's executed orders, oldest first.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
	f.StringVar(&c.symbol, "s", "", "only list orders for this symbol")
}

func (c *ordersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	return c.env.run(ctx, func(_ context.Context, a *app.App) error {
		orders, err := a.Orders.Orders(c.username)
		if err != nil {
			return err
		}

		symbol := strings.ToUpper(strings.TrimSpace(c.symbol))
		w := c.env.table()
		fmt.Fprintln(w, "TIMESTAMP\tACTION\tSYMBOL\tSHARES\tPRICE\tTOTAL\tID")
		for _, o := range orders {
			if symbol != "" && o.Symbol != symbol {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				o.Timestamp.Format("2006-01-02 15:04:05"), o.Action, o.Symbol, o.Shares,
				money(o.Price), money(o.TotalAmount), o.ID)
		}
		return w.Flush()
	})
}

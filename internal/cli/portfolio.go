package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/app"
)

type analyzeCmd struct {
	env      *Env
	username string
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "display the daily value and profit of a portfolio" }
func (*analyzeCmd) Usage() string {
	return `ledgerctl analyze -u <username>

  Values the current holdings against their price history, one line per
  trading day.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
}

func (c *analyzeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	return c.env.run(ctx, func(ctx context.Context, a *app.App) error {
		result, err := a.Portfolio.Analyze(ctx, c.username)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.env.Out, result.Message)
		if !result.HasData {
			return nil
		}

		w := c.env.table()
		fmt.Fprintln(w, "DATE\tCOST\tVALUE\tPROFIT\tRATE")
		for _, s := range result.Snapshots {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.Date.Format("2006-01-02"), money(s.TotalCost), money(s.TotalValue),
				money(s.Profit), percent(s.ProfitRate))
		}
		return w.Flush()
	})
}

type holdingsCmd struct {
	env      *Env
	username string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "value the holdings of a portfolio at current prices" }
func (*holdingsCmd) Usage() string {
	return `ledgerctl holdings -u <username>

  Displays every holding with its current price and unrealized gain or loss.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(c.env.Err, errUsernameRequired)
		return subcommands.ExitUsageError
	}
	return c.env.run(ctx, func(ctx context.Context, a *app.App) error {
		valuations, err := a.Portfolio.Holdings(ctx, c.username)
		if err != nil {
			return err
		}

		w := c.env.table()
		fmt.Fprintln(w, "SYMBOL\tSHARES\tAVG COST\tPRICE\tVALUE\tGAIN/LOSS\t")
		for _, v := range valuations {
			if v.Error != "" {
				fmt.Fprintf(w, "%s\t%d\t%s\t-\t-\t-\t%s\n", v.Symbol, v.Shares, money(v.AvgCost), v.Error)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t\n",
				v.Symbol, v.Shares, money(v.AvgCost), money(v.CurrentPrice),
				money(v.MarketValue), money(v.TotalUnrealizedGainLoss))
		}
		return w.Flush()
	})
}

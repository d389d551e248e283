package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/finbook/finbook/internal/service"
)

type forecastCmd struct {
	app     *App
	account string
	month   string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "forecast the balance of a month" }
func (*forecastCmd) Usage() string {
	return `forecast [-account <name>] [-month <2006-01>]

  Prints opening balance, income, expense and closing balance for the month.
  Without -account the forecast covers all accounts. The month defaults to
  the current one.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account name (default: all accounts)")
	f.StringVar(&c.month, "month", "", "calendar month, e.g. 2026-08 (default: current)")
}

func (c *forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month := c.month
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}

	scope := service.ScopeAll()
	if c.account != "" {
		acct, err := c.app.Repos.Accounts.GetByName(ctx, c.account)
		if err != nil {
			return fail(err)
		}
		if acct == nil {
			fmt.Fprintf(os.Stderr, "Error: no account named %q\n", c.account)
			return subcommands.ExitFailure
		}
		scope = service.ScopeAccount(acct.ID)
	}

	f, err := c.app.Forecast.ForecastMonth(ctx, scope, month)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Forecast for %s\n", month)
	fmt.Printf("  opening  %12s\n", f.OpeningBalance.StringFixed(2))
	fmt.Printf("  income   %12s\n", f.Income.StringFixed(2))
	fmt.Printf("  expense  %12s\n", f.Expense.StringFixed(2))
	fmt.Printf("  closing  %12s", f.ClosingBalance.StringFixed(2))
	if f.IsAdjusted {
		fmt.Print("  (adjusted)")
	}
	fmt.Println()
	return subcommands.ExitSuccess
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type adjustCmd struct {
	app     *App
	account string
	month   string
	balance string
	note    string
	remove  bool
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "set or delete a monthly balance adjustment" }
func (*adjustCmd) Usage() string {
	return `adjust -account <name> -month <2006-01> [-balance <amount> [-note <text>] | -rm]

  An adjustment overrides the account's computed closing balance for that
  month; the following month opens at the adjusted value.
`
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account name (required)")
	f.StringVar(&c.month, "month", "", "calendar month, e.g. 2026-08 (required)")
	f.StringVar(&c.balance, "balance", "", "adjusted closing balance")
	f.StringVar(&c.note, "note", "", "optional note")
	f.BoolVar(&c.remove, "rm", false, "delete the adjustment")
}

func (c *adjustCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.month == "" {
		fmt.Fprintln(os.Stderr, "Error: -account and -month are required")
		return subcommands.ExitUsageError
	}
	acct, err := c.app.Repos.Accounts.GetByName(ctx, c.account)
	if err != nil {
		return fail(err)
	}
	if acct == nil {
		fmt.Fprintf(os.Stderr, "Error: no account named %q\n", c.account)
		return subcommands.ExitFailure
	}

	if c.remove {
		ok, err := c.app.Adjustments.Delete(ctx, acct.ID, c.month)
		if err != nil {
			return fail(err)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: adjustments are not available in this database")
			return subcommands.ExitFailure
		}
		fmt.Printf("Removed adjustment for %s %s\n", acct.Name, c.month)
		return subcommands.ExitSuccess
	}

	if c.balance == "" {
		fmt.Fprintln(os.Stderr, "Error: -balance or -rm is required")
		return subcommands.ExitUsageError
	}
	balance, err := decimal.NewFromString(c.balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid balance %q\n", c.balance)
		return subcommands.ExitUsageError
	}
	ok, err := c.app.Adjustments.Set(ctx, acct.ID, c.month, balance, c.note)
	if err != nil {
		return fail(err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: adjustments are not available in this database")
		return subcommands.ExitFailure
	}
	fmt.Printf("Adjusted %s %s to %s\n", acct.Name, c.month, balance.StringFixed(2))
	return subcommands.ExitSuccess
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/finbook/finbook/internal/database/repository"
)

type accountsCmd struct {
	app      *App
	add      string
	acctType string
	balance  string
	currency string
	remove   string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list, add or delete accounts" }
func (*accountsCmd) Usage() string {
	return `accounts [-add <name> [-type <type>] [-balance <amount>] [-currency <code>]] [-rm <name>]

  Without flags, lists all accounts. -rm deletes an account and cascades to
  its transactions, recurring transactions and balance adjustments.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "create an account with this name")
	f.StringVar(&c.acctType, "type", "checking", "account type (checking, savings, credit-card, cash, investment, other)")
	f.StringVar(&c.balance, "balance", "0", "initial balance")
	f.StringVar(&c.currency, "currency", "", "currency code (default: configured currency)")
	f.StringVar(&c.remove, "rm", "", "delete the account with this name")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch {
	case c.add != "":
		return c.create(ctx)
	case c.remove != "":
		return c.delete(ctx)
	default:
		return c.list(ctx)
	}
}

func (c *accountsCmd) create(ctx context.Context) subcommands.ExitStatus {
	balance, err := decimal.NewFromString(c.balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid balance %q\n", c.balance)
		return subcommands.ExitUsageError
	}
	currency := c.currency
	if currency == "" {
		currency = c.app.Cfg.UI.Currency
	}
	a := repository.Account{
		Name:           c.add,
		Type:           repository.AccountType(c.acctType),
		InitialBalance: balance,
		Currency:       currency,
	}
	if err := c.app.Repos.Accounts.Create(ctx, &a); err != nil {
		return fail(err)
	}
	fmt.Printf("Created account %q (id %d)\n", a.Name, a.ID)
	return subcommands.ExitSuccess
}

func (c *accountsCmd) delete(ctx context.Context) subcommands.ExitStatus {
	a, err := c.app.Repos.Accounts.GetByName(ctx, c.remove)
	if err != nil {
		return fail(err)
	}
	if a == nil {
		fmt.Fprintf(os.Stderr, "Error: no account named %q\n", c.remove)
		return subcommands.ExitFailure
	}
	if err := c.app.Repos.Accounts.Delete(ctx, a.ID); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted account %q and its dependent rows\n", a.Name)
	return subcommands.ExitSuccess
}

func (c *accountsCmd) list(ctx context.Context) subcommands.ExitStatus {
	accounts, err := c.app.Repos.Accounts.GetAll(ctx)
	if err != nil {
		return fail(err)
	}
	for _, a := range accounts {
		archived := ""
		if a.Archived {
			archived = "  [archived]"
		}
		fmt.Printf("%-4d %-24s %-12s %10s %s%s\n", a.ID, a.Name, a.Type, a.InitialBalance.StringFixed(2), a.Currency, archived)
	}
	return subcommands.ExitSuccess
}

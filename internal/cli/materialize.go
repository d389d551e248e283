package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/finbook/finbook/internal/database"
)

type materializeCmd struct {
	app *App
}

func (*materializeCmd) Name() string     { return "materialize" }
func (*materializeCmd) Synopsis() string { return "turn due recurring transactions into transactions" }
func (*materializeCmd) Usage() string {
	return `materialize

  Emits a concrete transaction for every recurring transaction whose next
  execution date has passed, advancing its cursor.
`
}

func (*materializeCmd) SetFlags(*flag.FlagSet) {}

func (c *materializeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	n, err := c.app.Materializer.Run(ctx, database.Now())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Materialized %d transaction(s)\n", n)
	return subcommands.ExitSuccess
}

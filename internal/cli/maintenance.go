package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/finbook/finbook/internal/database"
)

type maintenanceCmd struct {
	app        *App
	sweep      bool
	duplicates bool
	reset      bool
	rebuild    bool
}

func (*maintenanceCmd) Name() string     { return "maintenance" }
func (*maintenanceCmd) Synopsis() string { return "database maintenance actions" }
func (*maintenanceCmd) Usage() string {
	return `maintenance [-sweep-orphans] [-duplicates] [-reset] [-rebuild]

  -sweep-orphans deletes rows referencing accounts that no longer exist.
  -duplicates reports likely duplicate transactions without deleting them.
  -reset wipes all data, keeping the schema.
  -rebuild drops and recreates the schema (last resort), then expects a
  remote re-pull.
`
}

func (c *maintenanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.sweep, "sweep-orphans", false, "delete orphaned rows")
	f.BoolVar(&c.duplicates, "duplicates", false, "report likely duplicate transactions")
	f.BoolVar(&c.reset, "reset", false, "wipe all data")
	f.BoolVar(&c.rebuild, "rebuild", false, "drop and recreate the schema")
}

func (c *maintenanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ran := false
	if c.rebuild {
		if err := database.Rebuild(c.app.DB); err != nil {
			return fail(err)
		}
		fmt.Println("Schema rebuilt; run finbook sync -force-remote to re-pull data")
		ran = true
	}
	if c.reset {
		if err := c.app.Maintenance.Reset(ctx); err != nil {
			return fail(err)
		}
		fmt.Println("All data wiped")
		ran = true
	}
	if c.sweep {
		n, err := c.app.Maintenance.SweepOrphans(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Removed %d orphaned row(s)\n", n)
		ran = true
	}
	if c.duplicates {
		pairs, err := c.app.Maintenance.DuplicateCandidates(ctx)
		if err != nil {
			return fail(err)
		}
		for _, p := range pairs {
			fmt.Printf("%.0f%%  %s  %s  %s | %s\n", p.Similarity*100,
				p.A.Date.Format(time.DateOnly), p.A.Amount.StringFixed(2), p.A.Description, p.B.Description)
		}
		fmt.Printf("%d candidate pair(s)\n", len(pairs))
		ran = true
	}
	if !ran {
		fmt.Fprintln(os.Stderr, "Error: pick at least one action")
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

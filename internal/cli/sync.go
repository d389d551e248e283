package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/finbook/finbook/internal/syncer"
)

type syncCmd struct {
	app         *App
	forceLocal  bool
	forceRemote bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "run one sync pass against the remote store" }
func (*syncCmd) Usage() string {
	return `sync [-force-local | -force-remote]

  Fetches the remote snapshot, merges it with local data and pushes the
  result back. -force-local pushes local data verbatim instead of merging;
  -force-remote adopts the remote data verbatim. Both are one-shot switches.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.forceLocal, "force-local", false, "push local data verbatim, skipping merge")
	f.BoolVar(&c.forceRemote, "force-remote", false, "adopt remote data verbatim, skipping merge")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.forceLocal && c.forceRemote {
		fmt.Fprintln(os.Stderr, "Error: -force-local and -force-remote are mutually exclusive")
		return subcommands.ExitUsageError
	}

	creds, err := c.app.credentials()
	if err != nil {
		return fail(err)
	}

	if c.forceLocal {
		if err := c.app.Repos.State.RequestForceLocal(ctx); err != nil {
			return fail(err)
		}
	}
	if c.forceRemote {
		if err := c.app.Repos.State.RequestForceRemote(ctx); err != nil {
			return fail(err)
		}
	}

	c.app.Syncer.OnProgress = func(p syncer.Progress) {
		fmt.Printf("  %s\n", p.Stage)
	}
	if err := c.app.Syncer.Sync(ctx, creds); err != nil {
		return fail(err)
	}
	st, err := c.app.Repos.State.Get(ctx)
	if err == nil && st.SyncID != nil {
		fmt.Printf("Synced (id %s)\n", *st.SyncID)
	}
	return subcommands.ExitSuccess
}

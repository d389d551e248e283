package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/finbook/finbook/internal/config"
	"github.com/finbook/finbook/internal/secrets"
)

type loginCmd struct {
	app      *App
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "store remote credentials" }
func (*loginCmd) Usage() string {
	return `login -username <name> -password <password>

  Saves the remote username in the config and the password in the local
  secrets store.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "remote username (required)")
	f.StringVar(&c.password, "password", "", "remote password (required)")
}

func (c *loginCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -username and -password are required")
		return subcommands.ExitUsageError
	}
	if err := secrets.StoreRemotePassword(c.username, c.password); err != nil {
		return fail(err)
	}
	cfg := c.app.Cfg
	cfg.Remote.Username = c.username
	if err := config.Save(cfg); err != nil {
		return fail(err)
	}
	fmt.Printf("Stored credentials for %s\n", c.username)
	return subcommands.ExitSuccess
}

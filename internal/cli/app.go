// Package cli implements the finbook subcommands. The CLI is thin glue:
// every command delegates to the services wired up in main.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/config"
	"github.com/finbook/finbook/internal/remote"
	"github.com/finbook/finbook/internal/secrets"
	"github.com/finbook/finbook/internal/service"
	"github.com/finbook/finbook/internal/syncer"
)

// App bundles everything the commands need.
type App struct {
	Cfg          config.Config
	Log          *zap.Logger
	DB           *sql.DB
	Repos        syncer.Repos
	Syncer       *syncer.Syncer
	Forecast     *service.ForecastService
	Adjustments  *service.AdjustmentService
	Materializer *service.Materializer
	Maintenance  *service.MaintenanceService
}

// Commands returns all finbook subcommands.
func Commands(app *App) []subcommands.Command {
	return []subcommands.Command{
		&loginCmd{app: app},
		&syncCmd{app: app},
		&forecastCmd{app: app},
		&accountsCmd{app: app},
		&adjustCmd{app: app},
		&materializeCmd{app: app},
		&maintenanceCmd{app: app},
	}
}

// credentials resolves the remote identity: username from config, password
// from the FINBOOK_REMOTE_PASSWORD env var or the secrets store.
func (a *App) credentials() (remote.Credentials, error) {
	user := a.Cfg.Remote.Username
	if user == "" {
		return remote.Credentials{}, fmt.Errorf("no remote username configured; run finbook login")
	}
	if pw := os.Getenv("FINBOOK_REMOTE_PASSWORD"); pw != "" {
		return remote.Credentials{Username: user, Password: pw}, nil
	}
	pw, err := secrets.FetchRemotePassword(user)
	if err != nil {
		return remote.Credentials{}, fmt.Errorf("no stored password for %s; run finbook login", user)
	}
	return remote.Credentials{Username: user, Password: pw}, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

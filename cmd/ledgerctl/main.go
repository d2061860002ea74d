package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/app"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/cli"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/config"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cli.Register(commander, &cli.Env{
		Open: openApp,
		Out:  os.Stdout,
		Err:  os.Stderr,
	})

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openApp loads the same configuration as the server. Logs go to stderr so
// they never mix with command output.
func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: true,
		Output: os.Stderr,
	})
	logger.SetGlobalLogger(log)

	return app.New(cfg, log)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/gosln/cmd/gosln/cli"
	"github.com/willibrandon/gosln/cmd/gosln/commands"
	"github.com/willibrandon/gosln/cmd/gosln/version"
)

// Version information (set via ldflags during build)
var (
	buildVersion = "0.0.0-dev"
	commit       = "unknown"
	date         = "unknown"
	builtBy      = "unknown"
)

func main() {
	version.Version = buildVersion
	version.Commit = commit
	version.Date = date
	version.BuiltBy = builtBy

	cli.SetupVersion()

	cli.AddCommand(commands.NewCreateCommand(cli.Console))
	cli.AddCommand(commands.NewGenerateCommand(cli.Console))
	cli.AddCommand(commands.NewValidateCommand(cli.Console))
	cli.AddCommand(commands.NewShowCommand(cli.Console))
	cli.AddCommand(commands.NewVersionCommand(cli.Console))

	// Interrupts cancel the running build; the builder checks between steps
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	code := commands.ExitCode(err)
	if err != nil {
		cli.Console.Error("%v", err)
	}
	os.Exit(code)
}

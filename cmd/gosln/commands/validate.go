package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/fsys"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [CONFIG_FILE | DIRECTORY]",
		Short: "Check that a solution file is up to date with its configuration",
		Long: `Build the solution described by a .subsln configuration file and compare it
with the .sln file on disk. Nothing is written.

The command exits with code 10 when the solution file is missing or would be
changed by generate.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), console, args)
		},
	}
}

func runValidate(ctx context.Context, console *output.Console, args []string) error {
	path, err := resolveConfiguration(args)
	if err != nil {
		return err
	}

	c, err := compile(ctx, fsys.NewOSFileSystem(), path)
	if err != nil {
		return err
	}

	console.Issues(c.Result.Issues)
	console.Issues(c.UpdateIssues)
	if c.Result.Issues.HasErrors() {
		return exitErrorf(ExitBuildFailure, "the build reported %d errors", len(c.Result.Issues.Errors()))
	}

	switch {
	case !c.Existed:
		return exitErrorf(ExitNotValidated, "%s does not exist", c.SolutionPath)
	case !c.UpToDate():
		console.Info("Pending changes to %s:", c.SolutionPath)
		console.Changes(c.Changes)
		return exitErrorf(ExitNotValidated, "%s is not up to date (%d changes)", c.SolutionPath, len(c.Changes))
	}

	console.Success("%s is up to date", c.SolutionPath)
	return nil
}

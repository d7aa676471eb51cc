package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/fsys"
)

// GenerateOptions holds options for the generate command
type GenerateOptions struct {
	DryRun bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(console *output.Console) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [CONFIG_FILE | DIRECTORY]",
		Short: "Generate or update the solution file of a configuration",
		Long: `Build the solution described by a .subsln configuration file and write it
to its .sln file. An existing solution file is updated in place: foreign
content is preserved and only the differences are rewritten.

The solution file is not written when the build reports errors.`,
		Example: `  gosln generate
  gosln generate build/Product.subsln
  gosln generate --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), console, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the changes without writing the solution file")

	return cmd
}

func runGenerate(ctx context.Context, console *output.Console, args []string, opts *GenerateOptions) error {
	path, err := resolveConfiguration(args)
	if err != nil {
		return err
	}

	files := fsys.NewOSFileSystem()
	c, err := compile(ctx, files, path)
	if err != nil {
		return err
	}

	console.Issues(c.Result.Issues)
	console.Issues(c.UpdateIssues)
	if c.Result.Issues.HasErrors() {
		return exitErrorf(ExitBuildFailure, "the build reported %d errors; %s was not written",
			len(c.Result.Issues.Errors()), c.SolutionPath)
	}
	if c.UpdateIssues.HasErrors() {
		return exitErrorf(ExitUpdateFailure, "%s could not be updated (%d errors)",
			c.SolutionPath, len(c.UpdateIssues.Errors()))
	}

	if c.UpToDate() {
		console.Success("%s is up to date", c.SolutionPath)
		return nil
	}

	console.Info("Changes to %s:", c.SolutionPath)
	console.Changes(c.Changes)
	if opts.DryRun {
		console.Info("Dry run: %s was not written", c.SolutionPath)
		return nil
	}

	if err := c.write(files); err != nil {
		return err
	}
	console.Success("Wrote %s (%d changes)", c.SolutionPath, len(c.Changes))
	return nil
}

package commands

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/fsys"
)

// ShowOptions holds options for the show command
type ShowOptions struct {
	Format string
	Sets   bool
}

// NewShowCommand creates the show command
func NewShowCommand(console *output.Console) *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:     "show [CONFIG_FILE | DIRECTORY]",
		Aliases: []string{"display"},
		Short:   "Display the solution built from a configuration",
		Long: `Build the solution described by a .subsln configuration file and display
its folder tree and configuration-platform matrix. Nothing is written.`,
		Example: `  gosln show
  gosln display build/Product.subsln --sets
  gosln show --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), console, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&opts.Sets, "sets", false, "Also list the named sets of the build")

	return cmd
}

func runShow(ctx context.Context, console *output.Console, args []string, opts *ShowOptions) error {
	if opts.Format != "text" && opts.Format != "json" {
		return exitErrorf(ExitFatal, "unknown format %q (want text or json)", opts.Format)
	}

	start := time.Now()
	path, err := resolveConfiguration(args)
	if err != nil {
		return err
	}

	_, result, err := buildConfiguration(ctx, fsys.NewOSFileSystem(), path)
	if err != nil {
		return err
	}
	s := result.Solution

	if opts.Format == "json" {
		var sets map[string][]string
		if opts.Sets {
			sets = result.Sets()
		}
		if err := output.WriteJSON(console.Out(), output.NewSolutionOutput(s, sets, result.Issues, start)); err != nil {
			return withCode(ExitWriteFailure, err)
		}
	} else {
		console.Issues(result.Issues)
		console.Print(output.SolutionTree(s))

		var matrix []string
		for _, cp := range s.ConfigurationPlatforms() {
			matrix = append(matrix, cp.FullName())
		}
		console.Println()
		console.Header("Configurations")
		console.Println("  " + strings.Join(matrix, ", "))

		if opts.Sets {
			printSets(console, result.Sets())
		}
	}

	if result.Issues.HasErrors() {
		return exitErrorf(ExitBuildFailure, "the build reported %d errors", len(result.Issues.Errors()))
	}
	return nil
}

func printSets(console *output.Console, sets map[string][]string) {
	ids := make([]string, 0, len(sets))
	for id := range sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	console.Println()
	console.Header("Sets")
	for _, id := range ids {
		console.Printf("  %s (%d)\n", id, len(sets[id]))
		for _, path := range sets[id] {
			console.Detail("    %s", path)
		}
	}
}

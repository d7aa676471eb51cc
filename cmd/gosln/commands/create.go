package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/solution"
)

// CreateOptions holds options for the create command
type CreateOptions struct {
	Name  string
	Force bool
}

// NewCreateCommand creates the create command
func NewCreateCommand(console *output.Console) *cobra.Command {
	opts := &CreateOptions{}

	cmd := &cobra.Command{
		Use:   "create [CONFIG_FILE | DIRECTORY]",
		Short: "Create a starter configuration file",
		Long: `Write a starter .subsln configuration file. Given a directory, or nothing,
the file is named after the directory (or --name).`,
		Example: `  gosln create
  gosln create build/Product.subsln
  gosln create --name Product --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(console, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Solution name (default: file or directory name)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

func runCreate(console *output.Console, args []string, opts *CreateOptions) error {
	path, err := createTarget(args, opts.Name)
	if err != nil {
		return err
	}

	files := fsys.NewOSFileSystem()
	if files.Exists(path) && !opts.Force {
		return exitErrorf(ExitWriteFailure, "%s already exists; use --force to overwrite it", path)
	}

	name := opts.Name
	if name == "" {
		name = solution.FileNameWithoutExtension(path)
	}
	if err := files.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return withCode(ExitWriteFailure, err)
	}
	if err := files.WriteFile(path, config.Starter(name), 0o644); err != nil {
		return withCode(ExitWriteFailure, err)
	}

	console.Success("Created %s", path)
	return nil
}

// createTarget resolves the path of the configuration file to create.
func createTarget(args []string, name string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", withCode(ExitFatal, err)
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		if name == "" {
			name = filepath.Base(abs)
		}
		return filepath.Join(abs, name+config.ConfigurationExtension), nil
	}
	if !strings.EqualFold(filepath.Ext(abs), config.ConfigurationExtension) {
		abs += config.ConfigurationExtension
	}
	return abs, nil
}

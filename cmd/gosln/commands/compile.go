package commands

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/willibrandon/gosln/builder"
	"github.com/willibrandon/gosln/cmd/gosln/cli"
	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/convert"
	"github.com/willibrandon/gosln/solution/raw"
)

// resolveConfiguration finds the configuration file named by args: a .subsln
// file, a directory holding exactly one, or the working directory when args
// is empty.
func resolveConfiguration(args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	path, err := config.Locate(fsys.NewOSFileSystem(), target)
	var ambiguous *config.AmbiguousError
	switch {
	case err == nil:
		return path, nil
	case errors.As(err, &ambiguous):
		return "", withCode(ExitFatal, err)
	case errors.Is(err, config.ErrNoConfiguration), errors.Is(err, fs.ErrNotExist):
		return "", withCode(ExitFileNotFound, err)
	}
	return "", withCode(ExitReadFailure, err)
}

// newBuilder creates a builder over the OS filesystem configured by the
// current settings.
func newBuilder(files fsys.FileSystem) *builder.Builder {
	settings := cli.CurrentSettings()
	return builder.New(files,
		builder.WithLogger(cli.Logger()),
		builder.WithConcurrency(settings.Concurrency),
		builder.WithGlobOptions(fsys.GlobOptions{RespectGitignore: settings.RespectGitignore}),
	)
}

// buildConfiguration loads and builds the configuration at path.
func buildConfiguration(ctx context.Context, files fsys.FileSystem, path string) (*config.Document, *builder.Result, error) {
	doc, err := config.Load(files, path)
	if err != nil {
		return nil, nil, classify(err)
	}
	result, err := newBuilder(files).Build(ctx, doc)
	if err != nil {
		return nil, nil, classify(err)
	}
	return doc, result, nil
}

// compilation is a built solution diffed against its solution file.
type compilation struct {
	Result *builder.Result

	// SolutionPath is where the solution file lives
	SolutionPath string

	// Existed reports whether the solution file was on disk
	Existed bool

	// Document is the solution file content updated to the built solution
	Document *raw.Document
	Changes  []solution.Change

	// UpdateIssues were found in the existing solution file
	UpdateIssues solution.Issues

	// Newline is the line terminator to write the document with
	Newline string
}

// UpToDate reports whether the solution file needs no write.
func (c *compilation) UpToDate() bool {
	return c.Existed && len(c.Changes) == 0
}

// compile builds the configuration at path and applies the result to the
// existing solution file, or to a new document when there is none.
func compile(ctx context.Context, files fsys.FileSystem, path string) (*compilation, error) {
	doc, result, err := buildConfiguration(ctx, files, path)
	if err != nil {
		return nil, err
	}

	c := &compilation{Result: result, SolutionPath: doc.SolutionPath()}

	existing, err := files.ReadFile(c.SolutionPath)
	switch {
	case err == nil:
		c.Existed = true
		c.Document, err = raw.Read(bytes.NewReader(existing))
		if err != nil {
			var formatErr *raw.FormatError
			if errors.As(err, &formatErr) {
				formatErr.FilePath = c.SolutionPath
			}
			return nil, withCode(ExitReadFailure, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		c.Document = raw.NewDocument()
	default:
		return nil, withCode(ExitReadFailure, err)
	}
	c.Newline = cli.CurrentSettings().Newline(existing)

	converter := convert.New(convert.WithLogger(cli.Logger()))
	c.Changes, c.UpdateIssues = converter.Update(ctx, c.Document, result.Solution)
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	return c, nil
}

// write renders the updated document to the solution file.
func (c *compilation) write(files fsys.FileSystem) error {
	var buf bytes.Buffer
	if err := raw.Write(&buf, c.Document, raw.WithNewline(c.Newline)); err != nil {
		return withCode(ExitWriteFailure, err)
	}
	if err := files.MkdirAll(filepath.Dir(c.SolutionPath), 0o755); err != nil {
		return withCode(ExitWriteFailure, err)
	}
	if err := files.WriteFile(c.SolutionPath, buf.Bytes(), 0o644); err != nil {
		return withCode(ExitWriteFailure, err)
	}
	return nil
}

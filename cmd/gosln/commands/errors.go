package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution/raw"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitNotValidated = 10

	ExitFatal        = 100
	ExitParseError   = 101
	ExitFileNotFound = 102

	ExitReadFailure      = 200
	ExitWriteFailure     = 201
	ExitBuildFailure     = 202
	ExitInterpretFailure = 203
	ExitUpdateFailure    = 204

	// ExitInterrupted is 128 + SIGINT
	ExitInterrupted = 130
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErrorf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

func withCode(code int, err error) error {
	var exit *ExitError
	if errors.As(err, &exit) {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode returns the process exit code for the result of a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return ExitFatal
}

// classify assigns an exit code to an error raised while loading or
// building a configuration.
func classify(err error) error {
	var parseErr *config.ParseError
	var readErr *project.ReadError
	var formatErr *raw.FormatError
	switch {
	case errors.Is(err, context.Canceled):
		return withCode(ExitInterrupted, err)
	case errors.As(err, &parseErr):
		return withCode(ExitParseError, err)
	case errors.As(err, &readErr), errors.As(err, &formatErr):
		return withCode(ExitReadFailure, err)
	case errors.Is(err, fs.ErrNotExist):
		return withCode(ExitFileNotFound, err)
	}
	return withCode(ExitInterpretFailure, err)
}

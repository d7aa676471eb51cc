package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/willibrandon/gosln/solution"
)

// Verbosity controls how much the console writes.
type Verbosity int

const (
	// VerbosityQuiet writes errors only
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal adds warnings, changes and results
	VerbosityNormal
	// VerbosityDetailed adds per-item details
	VerbosityDetailed
	// VerbosityDiagnostic adds debug output
	VerbosityDiagnostic
)

// ParseVerbosity maps a CLI verbosity name to a console verbosity.
func ParseVerbosity(name string) (Verbosity, error) {
	switch strings.ToLower(name) {
	case "q", "quiet":
		return VerbosityQuiet, nil
	case "m", "minimal", "n", "normal", "":
		return VerbosityNormal, nil
	case "d", "detailed":
		return VerbosityDetailed, nil
	case "diag", "diagnostic":
		return VerbosityDiagnostic, nil
	}
	return VerbosityNormal, fmt.Errorf("unknown verbosity %q", name)
}

// Console writes command output. Results go to out; errors go to err.
// It is safe for concurrent use.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	err       io.Writer
	verbosity Verbosity
	colors    bool
	palette   *palette
}

// NewConsole creates a console. Colors start enabled only when out is a
// color-capable terminal.
func NewConsole(out, err io.Writer, verbosity Verbosity) *Console {
	f, _ := out.(*os.File)
	enabled, _ := ColorsEnabled(ColorAuto, f)

	c := &Console{out: out, err: err, verbosity: verbosity, palette: newPalette()}
	c.SetColors(enabled)
	return c
}

// DefaultConsole creates a console on stdout and stderr at normal verbosity.
func DefaultConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr, VerbosityNormal)
}

func (c *Console) Out() io.Writer    { return c.out }
func (c *Console) ErrOut() io.Writer { return c.err }

func (c *Console) SetVerbosity(v Verbosity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbosity = v
}

func (c *Console) Verbosity() Verbosity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbosity
}

// SetColors switches styling on or off for this console only.
func (c *Console) SetColors(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors = enabled
	c.palette.enable(enabled)
}

// Print, Println and Printf write to out regardless of verbosity.
func (c *Console) Print(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, a...)
}

func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) Success(format string, a ...any) {
	c.line(VerbosityNormal, c.out, c.palette.success, "", format, a...)
}

// Error is written at every verbosity.
func (c *Console) Error(format string, a ...any) {
	c.line(VerbosityQuiet, c.err, c.palette.err, "Error: ", format, a...)
}

func (c *Console) Warning(format string, a ...any) {
	c.line(VerbosityNormal, c.out, c.palette.warning, "Warning: ", format, a...)
}

func (c *Console) Info(format string, a ...any) {
	c.line(VerbosityNormal, c.out, c.palette.info, "", format, a...)
}

func (c *Console) Header(format string, a ...any) {
	c.line(VerbosityNormal, c.out, c.palette.header, "", format, a...)
}

func (c *Console) Detail(format string, a ...any) {
	c.line(VerbosityDetailed, c.out, nil, "", format, a...)
}

func (c *Console) Debug(format string, a ...any) {
	c.line(VerbosityDiagnostic, c.out, c.palette.debug, "[DEBUG] ", format, a...)
}

// Issues writes each issue as an error or a warning, in order.
func (c *Console) Issues(issues solution.Issues) {
	for _, issue := range issues {
		if issue.Level == solution.IssueError {
			c.Error("%s", issue.Message)
		} else {
			c.Warning("%s", issue.Message)
		}
	}
}

// Changes writes one indented line per change, styled by change type.
func (c *Console) Changes(changes []solution.Change) {
	for _, change := range changes {
		c.line(VerbosityNormal, c.out, c.palette.change(change.Type), "  ", "%s", change)
	}
}

func (c *Console) line(level Verbosity, w io.Writer, style *color.Color, prefix, format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verbosity < level {
		return
	}
	text := prefix + fmt.Sprintf(format, a...)
	if c.colors && style != nil {
		text = style.Sprint(text)
	}
	fmt.Fprintln(w, text)
}

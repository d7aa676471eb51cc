// Package output renders gosln results on the console: styled messages,
// change lists, solution trees and JSON documents.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/willibrandon/gosln/solution"
)

// Color modes accepted by the --color flag.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorsEnabled resolves a color mode for output written to f. Auto enables
// colors on a capable terminal unless NO_COLOR is set.
func ColorsEnabled(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(mode) {
	case ColorAlways:
		return true, nil
	case ColorNever:
		return false, nil
	case ColorAuto, "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		if termEnv := os.Getenv("TERM"); termEnv == "" || termEnv == "dumb" {
			return false, nil
		}
		return f != nil && term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
}

// palette holds the styles of one console. Each console owns its colors so
// that switching them off does not touch the global color.NoColor.
type palette struct {
	success *color.Color
	err     *color.Color
	warning *color.Color
	info    *color.Color
	debug   *color.Color
	header  *color.Color
	changes map[solution.ChangeType]*color.Color
}

func newPalette() *palette {
	return &palette{
		success: color.New(color.FgGreen),
		err:     color.New(color.FgRed),
		warning: color.New(color.FgYellow),
		info:    color.New(color.FgCyan),
		debug:   color.New(color.FgWhite),
		header:  color.New(color.Bold, color.FgWhite),
		changes: map[solution.ChangeType]*color.Color{
			solution.ChangeAdd:    color.New(color.FgGreen),
			solution.ChangeRemove: color.New(color.FgRed),
			solution.ChangeEdit:   color.New(color.FgYellow),
			solution.ChangeMove:   color.New(color.FgCyan),
		},
	}
}

func (p *palette) all() []*color.Color {
	colors := []*color.Color{p.success, p.err, p.warning, p.info, p.debug, p.header}
	for _, c := range p.changes {
		colors = append(colors, c)
	}
	return colors
}

func (p *palette) enable(on bool) {
	for _, c := range p.all() {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// change returns the style of a change line.
func (p *palette) change(t solution.ChangeType) *color.Color {
	if c, ok := p.changes[t]; ok {
		return c
	}
	return p.info
}

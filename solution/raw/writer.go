package raw

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// WriteOption configures Write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	newline string
}

// WithNewline sets the line terminator. The default is CRLF, as written by
// Visual Studio.
func WithNewline(newline string) WriteOption {
	return func(c *writeConfig) {
		c.newline = newline
	}
}

// Write serializes doc.
func Write(w io.Writer, doc *Document, opts ...WriteOption) error {
	cfg := writeConfig{newline: "\r\n"}
	for _, opt := range opts {
		opt(&cfg)
	}

	bw := bufio.NewWriter(w)
	out := &lineWriter{w: bw, newline: cfg.newline}

	if doc.BOM {
		out.raw(string(utf8BOM))
	}
	for range doc.LeadingBlankLines {
		out.line("")
	}
	out.line(prefixFormatVersion + doc.FormatVersion)
	out.line(prefixVisualStudioMajorVersion + doc.VisualStudioMajorVersion)
	out.line(prefixVisualStudioVersion + doc.VisualStudioVersion)
	out.line(prefixMinimumVisualStudioVersion + doc.MinimumVisualStudioVersion)

	for _, p := range doc.Projects {
		out.line(`Project("` + p.typeGUIDText() + `") = "` + p.Name + `", "` + p.Path + `", "` + p.ID + `"`)
		for _, s := range p.Sections {
			writeSection(out, "ProjectSection", s)
		}
		out.line("EndProject")
	}

	if doc.global || len(doc.GlobalSections) > 0 {
		out.line("Global")
		for _, s := range doc.GlobalSections {
			writeSection(out, "GlobalSection", s)
		}
		out.line("EndGlobal")
	}

	if out.err != nil {
		return out.err
	}
	return bw.Flush()
}

// WriteFile writes doc to path, creating the parent directory if needed.
func WriteFile(path string, doc *Document, opts ...WriteOption) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, doc, opts...); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeSection(out *lineWriter, block string, s *Section) {
	header := "\t" + block + "(" + s.Name + ")"
	if s.Order != "" {
		header += " = " + s.Order
	}
	out.line(header)
	for _, p := range s.pairs {
		key, value := p.Key, p.Value
		if p.KeyQuoted {
			key = `"` + key + `"`
		}
		if p.Quoted {
			value = `"` + value + `"`
		}
		out.line("\t\t" + key + " = " + value)
	}
	out.line("\tEnd" + block)
}

type lineWriter struct {
	w       *bufio.Writer
	newline string
	err     error
}

func (lw *lineWriter) raw(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = lw.w.WriteString(s)
}

func (lw *lineWriter) line(s string) {
	lw.raw(s)
	lw.raw(lw.newline)
}

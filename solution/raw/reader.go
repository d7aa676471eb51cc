package raw

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header line prefixes, in the order they must appear.
const (
	prefixFormatVersion              = "Microsoft Visual Studio Solution File, Format Version "
	prefixVisualStudioMajorVersion   = "# Visual Studio Version "
	prefixVisualStudioVersion        = "VisualStudioVersion = "
	prefixMinimumVisualStudioVersion = "MinimumVisualStudioVersion = "
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatError reports text that does not follow the solution file grammar.
type FormatError struct {
	// FilePath is the path of the document, empty when reading a stream
	FilePath string

	// Line is the 1-based line number where the error occurred
	Line int

	// Message describes what went wrong
	Message string
}

// Error implements the error interface
func (e *FormatError) Error() string {
	name := e.FilePath
	if name == "" {
		name = "solution"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", name, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

// ReadFile reads the solution file at path.
func ReadFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := Read(file)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.FilePath = path
		}
		return nil, err
	}
	return doc, nil
}

// Read parses a solution document.
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	doc := &Document{}

	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		doc.BOM = true
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	lr := &lineReader{scanner: bufio.NewScanner(br)}
	lr.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := readHeader(lr, doc); err != nil {
		return nil, err
	}

	for {
		line, ok, err := lr.nextNonEmpty()
		if err != nil {
			return nil, err
		}
		if !ok {
			return doc, nil
		}

		h, err := parseBlockHeader(line)
		if err != nil {
			return nil, lr.errorf("%v", err)
		}

		switch h.name {
		case "Project":
			p, err := readProject(lr, h)
			if err != nil {
				return nil, err
			}
			doc.Projects = append(doc.Projects, p)
		case "Global":
			sections, err := readSections(lr, "Global", "GlobalSection")
			if err != nil {
				return nil, err
			}
			doc.GlobalSections = append(doc.GlobalSections, sections...)
			doc.global = true
		default:
			return nil, lr.errorf("unexpected block %q", h.name)
		}
	}
}

func readHeader(lr *lineReader, doc *Document) error {
	fields := []struct {
		prefix string
		target *string
	}{
		{prefixFormatVersion, &doc.FormatVersion},
		{prefixVisualStudioMajorVersion, &doc.VisualStudioMajorVersion},
		{prefixVisualStudioVersion, &doc.VisualStudioVersion},
		{prefixMinimumVisualStudioVersion, &doc.MinimumVisualStudioVersion},
	}

	for i, field := range fields {
		line, ok, err := lr.nextNonEmpty()
		if err != nil {
			return err
		}
		if i == 0 {
			doc.LeadingBlankLines = lr.skipped
		}
		if !ok {
			return lr.errorf("unexpected end of file, expected %q", strings.TrimSpace(field.prefix))
		}
		if !strings.HasPrefix(line, field.prefix) {
			return lr.errorf("expected line starting with %q", strings.TrimSpace(field.prefix))
		}
		*field.target = strings.TrimSpace(strings.TrimPrefix(line, field.prefix))
	}
	return nil
}

func readProject(lr *lineReader, h blockHeader) (*Project, error) {
	if len(h.args) != 3 {
		return nil, lr.errorf("project block expects 3 arguments, got %d", len(h.args))
	}
	typeGUID, err := ParseGUID(h.parameter)
	if err != nil {
		return nil, lr.errorf("invalid project type GUID %q", h.parameter)
	}

	p := &Project{
		TypeGUID: typeGUID,
		Name:     h.args[0],
		Path:     h.args[1],
		ID:       h.args[2],
		typeText: h.parameter,
	}
	p.Sections, err = readSections(lr, "Project", "ProjectSection")
	if err != nil {
		return nil, err
	}
	return p, nil
}

// readSections reads nested sections until the End<block> terminator.
func readSections(lr *lineReader, block, sectionBlock string) ([]*Section, error) {
	var sections []*Section
	for {
		line, ok, err := lr.nextNonEmpty()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, lr.errorf("unexpected end of file, expected End%s", block)
		}
		if line == "End"+block {
			return sections, nil
		}

		h, err := parseBlockHeader(line)
		if err != nil {
			return nil, lr.errorf("%v", err)
		}
		if h.name != sectionBlock {
			return nil, lr.errorf("unexpected block %q in %s", h.name, block)
		}

		order := ""
		if len(h.args) > 0 {
			order = h.args[0]
		}
		s := NewSection(h.parameter, order)
		if err := readPairs(lr, s, "End"+sectionBlock); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
}

func readPairs(lr *lineReader, s *Section, terminator string) error {
	for {
		line, ok, err := lr.nextNonEmpty()
		if err != nil {
			return err
		}
		if !ok {
			return lr.errorf("unexpected end of file, expected %s", terminator)
		}
		if line == terminator {
			return nil
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return lr.errorf("expected key = value pair")
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		s.addPair(Pair{
			Key:       trimQuotes(key),
			Value:     trimQuotes(value),
			Quoted:    isQuoted(value),
			KeyQuoted: isQuoted(key),
		})
	}
}

type blockHeader struct {
	name      string
	parameter string
	args      []string
}

// parseBlockHeader splits `Name(parameter) = arg, arg` where the parameter and
// the arguments are optional.
func parseBlockHeader(line string) (blockHeader, error) {
	var h blockHeader

	rest := line
	switch i := strings.IndexAny(rest, "(="); {
	case i < 0:
		h.name = strings.TrimSpace(rest)
		rest = ""
	case rest[i] == '(':
		end := strings.IndexByte(rest[i:], ')')
		if end < 0 {
			return h, fmt.Errorf("unbalanced parenthesis in %q", line)
		}
		h.name = strings.TrimSpace(rest[:i])
		h.parameter = trimQuotes(strings.TrimSpace(rest[i+1 : i+end]))
		rest = rest[i+end+1:]
	default:
		h.name = strings.TrimSpace(rest[:i])
		rest = rest[i:]
	}

	rest = strings.TrimSpace(rest)
	if rest != "" {
		if !strings.HasPrefix(rest, "=") {
			return h, fmt.Errorf("malformed block header %q", line)
		}
		args, err := splitArgs(rest[1:])
		if err != nil {
			return h, fmt.Errorf("%v in %q", err, line)
		}
		h.args = args
	}

	if h.name == "" || strings.ContainsAny(h.name, " \t\"") {
		return h, fmt.Errorf("malformed block header %q", line)
	}
	return h, nil
}

// splitArgs splits comma-separated block arguments. Commas inside double
// quotes belong to the argument.
func splitArgs(text string) ([]string, error) {
	var args []string
	inQuotes := false
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				args = append(args, trimQuotes(strings.TrimSpace(text[start:i])))
				start = i + 1
			}
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated quote")
	}
	return append(args, trimQuotes(strings.TrimSpace(text[start:]))), nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func trimQuotes(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

type lineReader struct {
	scanner *bufio.Scanner
	line    int

	// skipped counts the blank lines passed by the last nextNonEmpty
	skipped int
}

// nextNonEmpty returns the next non-blank line, trimmed.
func (lr *lineReader) nextNonEmpty() (string, bool, error) {
	lr.skipped = 0
	for lr.scanner.Scan() {
		lr.line++
		line := strings.TrimSpace(lr.scanner.Text())
		if line != "" {
			return line, true, nil
		}
		lr.skipped++
	}
	return "", false, lr.scanner.Err()
}

func (lr *lineReader) errorf(format string, args ...any) *FormatError {
	return &FormatError{Line: lr.line, Message: fmt.Sprintf(format, args...)}
}

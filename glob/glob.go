// Package glob implements the narrow wildcard dialect used to select files and
// projects: "*" matches a run of non-separator characters, "**" matches any
// sequence including separators, and either "/" or "\" matches a separator.
// Every other character is matched literally.
package glob

import (
	"regexp"
	"strings"
)

// Complete normalizes a user supplied pattern into a full glob.
//
// An empty pattern selects every file with the default extension below the
// base directory, a pattern ending with a separator selects the files with the
// default extension directly in that directory, and a pattern ending with "**"
// selects them in the whole subtree. An empty defaultExtension means any file.
func Complete(pattern, defaultExtension string) string {
	name := "*"
	if ext := strings.TrimPrefix(defaultExtension, "."); ext != "" {
		name = "*." + ext
	}

	switch {
	case pattern == "":
		return "**/" + name
	case isSeparator(pattern[len(pattern)-1]):
		return pattern + name
	case strings.HasSuffix(pattern, "**"):
		return pattern + "/" + name
	}
	return pattern
}

// Matcher is a compiled glob pattern.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Compile translates a glob pattern into a Matcher.
func Compile(pattern string, caseSensitive bool) *Matcher {
	var sb strings.Builder
	if !caseSensitive {
		sb.WriteString("(?i)")
	}
	sb.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			i++
			if i+1 < len(pattern) && isSeparator(pattern[i+1]) {
				// "**/" also matches zero directories
				i++
				sb.WriteString(`(?:.*[/\\])?`)
			} else {
				sb.WriteString(`.*`)
			}
		case c == '*':
			sb.WriteString(`[^/\\]*`)
		case isSeparator(c):
			sb.WriteString(`[/\\]`)
		default:
			sb.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	sb.WriteString("$")

	return &Matcher{
		pattern: pattern,
		re:      regexp.MustCompile(sb.String()),
	}
}

// Match reports whether path matches the pattern.
func (m *Matcher) Match(path string) bool {
	return m.re.MatchString(path)
}

// String returns the source pattern.
func (m *Matcher) String() string {
	return m.pattern
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// StaticPrefix returns the leading directory segments of pattern that contain
// no wildcard, joined with "/". It is the directory a glob enumeration can
// start from.
func StaticPrefix(pattern string) string {
	segments := SplitPath(pattern)
	if len(segments) == 0 {
		return ""
	}

	var prefix []string
	// the last segment is the file name part, never a directory
	for _, segment := range segments[:len(segments)-1] {
		if strings.Contains(segment, "*") {
			break
		}
		prefix = append(prefix, segment)
	}
	return strings.Join(prefix, "/")
}

// SplitPath splits a path on both separator kinds, dropping empty segments.
func SplitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

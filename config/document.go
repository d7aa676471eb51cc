package config

import (
	"path/filepath"
	"strings"
)

// Document is a parsed solution configuration file.
type Document struct {
	// Path is the absolute path of the configuration file
	Path string

	// SolutionName is the file name of the generated solution, without extension
	SolutionName string

	// OutputDirectory is the absolute directory the solution is written to
	OutputDirectory string

	CollapseFoldersWithUniqueSubFolder bool
	CollapseFoldersWithUniqueItem      bool

	// Matrix is nil when the configuration-platform matrix is derived from
	// the projects
	Matrix *Matrix

	// Root is the content of the solution root folder
	Root []Node
}

// Dir returns the directory globs are resolved against.
func (d *Document) Dir() string {
	return filepath.Dir(d.Path)
}

// SolutionPath returns the path of the generated solution file.
func (d *Document) SolutionPath() string {
	return filepath.Join(d.OutputDirectory, d.SolutionName+".sln")
}

// DefaultPlatform is the platform of a matrix declaring configurations only.
const DefaultPlatform = "Any CPU"

// Matrix declares the solution configurations and platforms. The solution
// gets the cross product, configurations outermost.
type Matrix struct {
	Configurations []NamedMatch
	Platforms      []NamedMatch
}

// NamedMatch is a solution-side name and the project-side name fragments it
// matches. Without fragments the name itself is the fragment.
type NamedMatch struct {
	Name  string
	Match []string
}

// Fragments returns the match fragments of m.
func (m NamedMatch) Fragments() []string {
	if len(m.Match) > 0 {
		return m.Match
	}
	return []string{m.Name}
}

func defaultSolutionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

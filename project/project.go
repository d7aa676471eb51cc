// Package project reads MSBuild project files into the metadata the solution
// compiler needs: configurations, platforms, project references and shared
// item imports.
package project

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/willibrandon/gosln/solution"
)

// Metadata describes one project file. Paths are absolute.
type Metadata struct {
	Path string
	Type solution.ProjectType

	// Configurations and Platforms are the project-side names, in declared order
	Configurations []string
	Platforms      []string

	// Dependencies are the referenced project files
	Dependencies []string

	// SharedImports are the shared item files (.projitems, .vcxitems) imported
	SharedImports []string

	CanBuild     bool
	CanDeploy    bool
	AlwaysDeploy bool
	NoPlatform   bool
}

// Copy returns a deep copy of m.
func (m *Metadata) Copy() *Metadata {
	c := *m
	c.Configurations = append([]string(nil), m.Configurations...)
	c.Platforms = append([]string(nil), m.Platforms...)
	c.Dependencies = append([]string(nil), m.Dependencies...)
	c.SharedImports = append([]string(nil), m.SharedImports...)
	return &c
}

// SolutionProject converts m into solution metadata whose paths are relative
// to solutionDir.
func (m *Metadata) SolutionProject(solutionDir string) *solution.Project {
	p := &solution.Project{
		Type:           m.Type,
		TypeGUID:       m.Type.GUID(),
		Configurations: append([]string(nil), m.Configurations...),
		Platforms:      append([]string(nil), m.Platforms...),
		CanBuild:       m.CanBuild,
		CanDeploy:      m.CanDeploy,
		AlwaysDeploy:   m.AlwaysDeploy,
		NoPlatform:     m.NoPlatform,
	}
	for _, dep := range m.Dependencies {
		p.Dependencies = append(p.Dependencies, solution.RelativePath(solutionDir, dep))
	}
	for _, imp := range m.SharedImports {
		p.SharedImports = append(p.SharedImports, solution.RelativePath(solutionDir, imp))
	}
	return p
}

// Reader reads project metadata. Implementations must be safe for concurrent
// use with distinct paths.
type Reader interface {
	Read(ctx context.Context, path string) (*Metadata, error)
}

// ReaderFunc adapts a function into a Reader.
type ReaderFunc func(ctx context.Context, path string) (*Metadata, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, path string) (*Metadata, error) {
	return f(ctx, path)
}

// ReadError reports a project that could not be read at all.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read project %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Key returns the cache key of a project path.
func Key(path string) string {
	return filepath.Clean(path)
}

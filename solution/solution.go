// Package solution provides the in-memory model of a Visual Studio solution:
// a tree of folders holding files and projects, and the configuration-platform
// build matrix binding every project to a build context.
package solution

import (
	"sort"
)

// Solution is the root aggregate of the model.
//
// Every file or project path belongs to at most one folder of the tree. The
// registry enforcing this is owned by the Solution and only mutated through
// Folder operations.
type Solution struct {
	// OutputDirectory is the directory the solution file is written to; every
	// path in the tree is relative to it
	OutputDirectory string

	// Name is the solution file name without extension
	Name string

	// Root is the top folder; it is never written as a solution folder
	Root *Folder

	configurationPlatforms []*ConfigurationPlatform
	registry               *pathRegistry
}

// New creates an empty solution.
func New(outputDirectory, name string, caseSensitive bool) *Solution {
	s := &Solution{
		OutputDirectory: outputDirectory,
		Name:            name,
		registry:        newPathRegistry(caseSensitive),
	}
	s.Root = newFolder(s, nil, "")
	return s
}

// CaseSensitive reports whether paths are compared case-sensitively.
func (s *Solution) CaseSensitive() bool {
	return s.registry.caseSensitive
}

// ConfigurationPlatforms returns the build matrix in declared order.
func (s *Solution) ConfigurationPlatforms() []*ConfigurationPlatform {
	return s.configurationPlatforms
}

// AddConfigurationPlatform appends cp to the matrix and resolves a context for
// every known project that has none yet.
func (s *Solution) AddConfigurationPlatform(cp *ConfigurationPlatform) {
	for path, project := range s.Projects() {
		if _, ok := cp.Context(path); !ok {
			cp.AddProject(path, project)
		}
	}
	s.configurationPlatforms = append(s.configurationPlatforms, cp)
}

// ConfigurationPlatform looks up a matrix entry by "Configuration|Platform".
func (s *Solution) ConfigurationPlatform(fullName string) (*ConfigurationPlatform, bool) {
	for _, cp := range s.configurationPlatforms {
		if cp.FullName() == fullName {
			return cp, true
		}
	}
	return nil, false
}

// ClearConfigurationPlatforms empties the matrix.
func (s *Solution) ClearConfigurationPlatforms() {
	s.configurationPlatforms = nil
}

// Projects returns every project of the tree by path.
func (s *Solution) Projects() map[string]*Project {
	projects := make(map[string]*Project)
	for _, entry := range s.registry.owners {
		if entry.project {
			projects[entry.path] = entry.folder.projects[entry.path]
		}
	}
	return projects
}

// ProjectPaths returns every project path of the tree, sorted.
func (s *Solution) ProjectPaths() []string {
	return s.registry.paths(true)
}

// FilePaths returns every file path of the tree, sorted.
func (s *Solution) FilePaths() []string {
	return s.registry.paths(false)
}

// FolderOf returns the folder owning path.
func (s *Solution) FolderOf(path string) (*Folder, bool) {
	entry, ok := s.registry.lookup(path)
	if !ok {
		return nil, false
	}
	return entry.folder, true
}

// Contains reports whether path is known to the solution.
func (s *Solution) Contains(path string) bool {
	_, ok := s.registry.lookup(path)
	return ok
}

// ChangeItemsRootDirectory re-roots every path of the tree, and of the
// matrix, from the current output directory to newDirectory.
func (s *Solution) ChangeItemsRootDirectory(newDirectory string) {
	oldDirectory := s.OutputDirectory
	if oldDirectory == newDirectory {
		return
	}

	s.registry.clear()
	s.Root.reRoot(oldDirectory, newDirectory)
	for _, cp := range s.configurationPlatforms {
		cp.reRoot(oldDirectory, newDirectory)
	}
	s.OutputDirectory = newDirectory
}

func (s *Solution) projectAdded(path string, project *Project) {
	for _, cp := range s.configurationPlatforms {
		cp.AddProject(path, project)
	}
}

func (s *Solution) projectRemoved(path string) {
	for _, cp := range s.configurationPlatforms {
		cp.RemoveContext(path)
	}
}

type registryEntry struct {
	folder  *Folder
	path    string
	project bool
}

type pathRegistry struct {
	caseSensitive bool
	owners        map[string]registryEntry
}

func newPathRegistry(caseSensitive bool) *pathRegistry {
	return &pathRegistry{
		caseSensitive: caseSensitive,
		owners:        make(map[string]registryEntry),
	}
}

func (r *pathRegistry) lookup(path string) (registryEntry, bool) {
	entry, ok := r.owners[PathKey(path, r.caseSensitive)]
	return entry, ok
}

func (r *pathRegistry) register(path string, folder *Folder, project bool) {
	r.owners[PathKey(path, r.caseSensitive)] = registryEntry{folder: folder, path: path, project: project}
}

func (r *pathRegistry) unregister(path string) {
	delete(r.owners, PathKey(path, r.caseSensitive))
}

func (r *pathRegistry) clear() {
	r.owners = make(map[string]registryEntry)
}

func (r *pathRegistry) paths(project bool) []string {
	var paths []string
	for _, entry := range r.owners {
		if entry.project == project {
			paths = append(paths, entry.path)
		}
	}
	sort.Strings(paths)
	return paths
}

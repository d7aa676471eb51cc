package solution

import (
	"sort"
)

// Folder is a node of the solution tree. Sub-folder names are unique among
// siblings. Folders are created on first reference and pruned when a removal
// leaves them empty.
type Folder struct {
	solution   *Solution
	parent     *Folder
	name       string
	files      map[string]struct{}
	projects   map[string]*Project
	subFolders map[string]*Folder
}

func newFolder(s *Solution, parent *Folder, name string) *Folder {
	return &Folder{
		solution:   s,
		parent:     parent,
		name:       name,
		files:      make(map[string]struct{}),
		projects:   make(map[string]*Project),
		subFolders: make(map[string]*Folder),
	}
}

// Name returns the folder name; the root folder has an empty name.
func (f *Folder) Name() string { return f.name }

// Parent returns the parent folder, nil for the root.
func (f *Folder) Parent() *Folder { return f.parent }

// Path returns the folder names from the root down to f.
func (f *Folder) Path() []string {
	if f.parent == nil {
		return nil
	}
	return append(f.parent.Path(), f.name)
}

// IsEmpty reports whether the folder holds no file, project or sub-folder.
func (f *Folder) IsEmpty() bool {
	return len(f.files) == 0 && len(f.projects) == 0 && len(f.subFolders) == 0
}

// ItemCount returns the number of files and projects directly in f.
func (f *Folder) ItemCount() int {
	return len(f.files) + len(f.projects)
}

// Files returns the file paths directly in f, sorted.
func (f *Folder) Files() []string {
	files := make([]string, 0, len(f.files))
	for path := range f.files {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// ProjectPaths returns the project paths directly in f, sorted.
func (f *Folder) ProjectPaths() []string {
	paths := make([]string, 0, len(f.projects))
	for path := range f.projects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Project returns the metadata of a project directly in f.
func (f *Folder) Project(path string) (*Project, bool) {
	p, ok := f.projects[path]
	return p, ok
}

// SubFolderNames returns the names of the sub-folders, sorted.
func (f *Folder) SubFolderNames() []string {
	names := make([]string, 0, len(f.subFolders))
	for name := range f.subFolders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubFolder returns the sub-folder called name.
func (f *Folder) SubFolder(name string) (*Folder, bool) {
	sub, ok := f.subFolders[name]
	return sub, ok
}

// GetOrAddSubFolder returns the sub-folder called name, creating it if needed.
func (f *Folder) GetOrAddSubFolder(name string) *Folder {
	if sub, ok := f.subFolders[name]; ok {
		return sub
	}
	sub := newFolder(f.solution, f, name)
	f.subFolders[name] = sub
	return sub
}

// GetOrAddFolderPath walks down names from f, creating missing folders.
func (f *Folder) GetOrAddFolderPath(names ...string) *Folder {
	folder := f
	for _, name := range names {
		folder = folder.GetOrAddSubFolder(name)
	}
	return folder
}

// AddFile adds a file to f. It returns false, leaving the tree untouched,
// when the path is already known and overwrite is false; with overwrite the
// previous owner loses the path.
func (f *Folder) AddFile(path string, overwrite bool) bool {
	previous, ok := f.evict(path, overwrite)
	if !ok {
		return false
	}
	f.files[path] = struct{}{}
	f.solution.registry.register(path, f, false)
	if previous != nil {
		previous.pruneIfEmpty()
	}
	return true
}

// AddProject adds a project to f with the same rules as AddFile. The project
// gets a context in every configuration-platform of the solution.
func (f *Folder) AddProject(path string, project *Project, overwrite bool) bool {
	previous, ok := f.evict(path, overwrite)
	if !ok {
		return false
	}
	f.projects[path] = project
	f.solution.registry.register(path, f, true)
	f.solution.projectAdded(path, project)
	if previous != nil {
		previous.pruneIfEmpty()
	}
	return true
}

// evict frees path for f. The previous owner is returned so that it can be
// pruned once f holds the path.
func (f *Folder) evict(path string, overwrite bool) (*Folder, bool) {
	entry, known := f.solution.registry.lookup(path)
	if !known {
		return nil, true
	}
	if !overwrite {
		return nil, false
	}
	entry.folder.removeLocal(entry.path, entry.project)
	return entry.folder, true
}

// RemoveFile removes a file from f and from the solution.
func (f *Folder) RemoveFile(path string) bool {
	if _, ok := f.files[path]; !ok {
		return false
	}
	f.removeLocal(path, false)
	f.pruneIfEmpty()
	return true
}

// RemoveProject removes a project from f and from the solution.
func (f *Folder) RemoveProject(path string) bool {
	if _, ok := f.projects[path]; !ok {
		return false
	}
	f.removeLocal(path, true)
	f.pruneIfEmpty()
	return true
}

func (f *Folder) removeLocal(path string, project bool) {
	f.solution.registry.unregister(path)
	if project {
		delete(f.projects, path)
		f.solution.projectRemoved(path)
	} else {
		delete(f.files, path)
	}
}

// RemoveSubFolder deletes a sub-folder and everything below it.
func (f *Folder) RemoveSubFolder(name string) bool {
	sub, ok := f.subFolders[name]
	if !ok {
		return false
	}
	sub.clear()
	delete(f.subFolders, name)
	return true
}

func (f *Folder) clear() {
	for path := range f.files {
		f.removeLocal(path, false)
	}
	for path := range f.projects {
		f.removeLocal(path, true)
	}
	for name, sub := range f.subFolders {
		sub.clear()
		delete(f.subFolders, name)
	}
}

// pruneIfEmpty detaches f and its newly empty ancestors. The root stays.
func (f *Folder) pruneIfEmpty() {
	for folder := f; folder.parent != nil && folder.IsEmpty(); folder = folder.parent {
		delete(folder.parent.subFolders, folder.name)
	}
}

// RemoveEmptySubFolders recursively deletes every sub-folder left empty.
func (f *Folder) RemoveEmptySubFolders() {
	for name, sub := range f.subFolders {
		sub.RemoveEmptySubFolders()
		if sub.IsEmpty() {
			delete(f.subFolders, name)
		}
	}
}

// CollapseSubFolder merges the content of the sub-folder called name into f
// and deletes it. Sub-folders with a clashing name are merged recursively.
func (f *Folder) CollapseSubFolder(name string) bool {
	sub, ok := f.subFolders[name]
	if !ok {
		return false
	}
	delete(f.subFolders, name)
	f.absorb(sub)
	return true
}

func (f *Folder) absorb(other *Folder) {
	for path := range other.files {
		f.files[path] = struct{}{}
		f.solution.registry.register(path, f, false)
	}
	for path, project := range other.projects {
		f.projects[path] = project
		f.solution.registry.register(path, f, true)
	}
	for name, sub := range other.subFolders {
		if existing, ok := f.subFolders[name]; ok {
			existing.absorb(sub)
			continue
		}
		sub.parent = f
		f.subFolders[name] = sub
	}
}

// FilterProjects removes, recursively, every project for which keep returns
// false, then deletes the folders left empty.
func (f *Folder) FilterProjects(keep func(path string, project *Project) bool) {
	for path, project := range f.projects {
		if !keep(path, project) {
			f.removeLocal(path, true)
		}
	}
	for name, sub := range f.subFolders {
		sub.FilterProjects(keep)
		if sub.IsEmpty() {
			delete(f.subFolders, name)
		}
	}
}

// FilterFiles removes, recursively, every file for which keep returns false,
// then deletes the folders left empty.
func (f *Folder) FilterFiles(keep func(path string) bool) {
	for path := range f.files {
		if !keep(path) {
			f.removeLocal(path, false)
		}
	}
	for name, sub := range f.subFolders {
		sub.FilterFiles(keep)
		if sub.IsEmpty() {
			delete(f.subFolders, name)
		}
	}
}

// AddFolderContent copies the files, projects and sub-folders of other, which
// may belong to another solution, into f. Paths rejected by the uniqueness
// rule are returned. Sub-folders that receive nothing are not kept.
func (f *Folder) AddFolderContent(other *Folder, overwrite bool) (rejected []string) {
	for _, path := range other.Files() {
		if !f.AddFile(path, overwrite) {
			rejected = append(rejected, path)
		}
	}
	for _, path := range other.ProjectPaths() {
		if !f.AddProject(path, other.projects[path].Copy(), overwrite) {
			rejected = append(rejected, path)
		}
	}
	for _, name := range other.SubFolderNames() {
		sub := f.GetOrAddSubFolder(name)
		rejected = append(rejected, sub.AddFolderContent(other.subFolders[name], overwrite)...)
		if sub.IsEmpty() {
			delete(f.subFolders, name)
		}
	}
	return rejected
}

// Walk visits f and every folder below it depth-first, sub-folders sorted by name.
func (f *Folder) Walk(visit func(folder *Folder)) {
	visit(f)
	for _, name := range f.SubFolderNames() {
		f.subFolders[name].Walk(visit)
	}
}

func (f *Folder) reRoot(oldDir, newDir string) {
	files := make(map[string]struct{}, len(f.files))
	for path := range f.files {
		rerooted := ReRoot(path, oldDir, newDir)
		files[rerooted] = struct{}{}
		f.solution.registry.register(rerooted, f, false)
	}
	f.files = files

	projects := make(map[string]*Project, len(f.projects))
	for path, project := range f.projects {
		rerooted := ReRoot(path, oldDir, newDir)
		project.reRoot(oldDir, newDir)
		projects[rerooted] = project
		f.solution.registry.register(rerooted, f, true)
	}
	f.projects = projects

	for _, sub := range f.subFolders {
		sub.reRoot(oldDir, newDir)
	}
}

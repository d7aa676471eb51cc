package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/glob"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

// state is the traversal state of one configuration build.
type state struct {
	b        *Builder
	doc      *config.Document
	chain    []string
	solution *solution.Solution

	// folders is the folder stack; the last entry is the current folder
	folders []*solution.Folder

	// added holds every project placed in the tree so far
	added *pathSet
	sets  map[string]*pathSet

	configurations []string
	platforms      []string

	issues solution.Issues
}

func newState(b *Builder, doc *config.Document, chain []string) *state {
	s := solution.New(doc.OutputDirectory, doc.SolutionName, b.fs.CaseSensitive())
	return &state{
		b:        b,
		doc:      doc,
		chain:    chain,
		solution: s,
		folders:  []*solution.Folder{s.Root},
		added:    newPathSet(s.CaseSensitive()),
		sets:     make(map[string]*pathSet),
	}
}

func (st *state) current() *solution.Folder {
	return st.folders[len(st.folders)-1]
}

func (st *state) caseSensitive() bool {
	return st.solution.CaseSensitive()
}

func (st *state) issuef(level solution.IssueLevel, n config.Node, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if r := n.Range(); r.Filename != "" {
		message = fmt.Sprintf("%s:%d: %s", filepath.Base(r.Filename), r.Start.Line, message)
	}
	st.issues = append(st.issues, solution.Issue{Level: level, Message: message})
}

// solutionPath converts an absolute path into a path of the solution tree.
func (st *state) solutionPath(abs string) string {
	return solution.RelativePath(st.solution.OutputDirectory, abs)
}

func (st *state) item(abs string) item {
	return item{path: abs, rel: solution.RelativePath(st.doc.Dir(), abs)}
}

func (st *state) visitAll(ctx context.Context, nodes []config.Node) error {
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.visit(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) visit(ctx context.Context, n config.Node) error {
	switch n := n.(type) {
	case *config.FolderNode:
		parent := st.current()
		sub := parent.GetOrAddSubFolder(n.Name)
		st.folders = append(st.folders, sub)
		err := st.visitAll(ctx, n.Content)
		st.folders = st.folders[:len(st.folders)-1]
		if sub.IsEmpty() {
			parent.RemoveSubFolder(n.Name)
		}
		return err
	case *config.FilesNode:
		return st.visitFiles(ctx, n)
	case *config.ProjectsNode:
		return st.visitProjects(ctx, n)
	case *config.SolutionsNode:
		return st.visitSolutions(ctx, n)
	case *config.DependenciesNode:
		return st.visitDependencies(ctx, n)
	case *config.DependentsNode:
		return st.visitDependents(ctx, n)
	}
	return fmt.Errorf("unsupported configuration node %T", n)
}

// checkSets reports the named sets referenced by n that do not exist yet.
// A node referencing an unknown set is ignored.
func (st *state) checkSets(n config.Node, ids ...string) bool {
	ok := true
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, known := st.sets[id]; !known {
			st.issuef(solution.IssueError, n, "%s references unknown set %q; ignored", config.Kind(n), id)
			ok = false
		}
	}
	return ok
}

// record adds the paths selected by a node to its named set.
func (st *state) record(id string, paths []string) {
	if id == "" {
		return
	}
	set, ok := st.sets[id]
	if !ok {
		set = newPathSet(st.caseSensitive())
		st.sets[id] = set
	}
	for _, p := range paths {
		set.add(p)
	}
}

func (st *state) observe(p *solution.Project) {
	for _, c := range p.Configurations {
		if !slices.Contains(st.configurations, c) {
			st.configurations = append(st.configurations, c)
		}
	}
	for _, pl := range p.Platforms {
		if !slices.Contains(st.platforms, pl) {
			st.platforms = append(st.platforms, pl)
		}
	}
}

// targetFolder returns the folder receiving abs: the current folder, or
// with createFolders the folders named after the directories of abs below
// base.
func (st *state) targetFolder(abs, base string, createFolders bool) *solution.Folder {
	folder := st.current()
	if !createFolders {
		return folder
	}
	return folder.GetOrAddFolderPath(solution.DirSegments(solution.RelativePath(base, abs))...)
}

// globBase returns the directory a completed pattern enumerates from.
func (st *state) globBase(pattern string) string {
	return solution.AbsolutePath(st.doc.Dir(), glob.StaticPrefix(solution.NormalizePath(pattern)))
}

func (st *state) visitFiles(ctx context.Context, n *config.FilesNode) error {
	if !st.checkSets(n, config.SetReferences(n.Where)...) {
		return nil
	}
	pattern := glob.Complete(n.Path, config.DefaultFileExtension)
	paths, err := st.b.glob(st.doc.Dir(), pattern)
	if err != nil {
		return err
	}

	filter := st.compileFilter(n.Where)
	if err := glob.Prepare(ctx, filter); err != nil {
		return err
	}

	base := st.globBase(pattern)
	var selected []string
	for _, abs := range paths {
		if !filter.Match(st.item(abs)) {
			continue
		}
		selected = append(selected, abs)
		path := st.solutionPath(abs)
		if !st.targetFolder(abs, base, n.CreateFolders).AddFile(path, n.Overwrite) {
			st.b.logger.Debug("File {Path} is already in the solution", path)
		}
	}
	st.record(n.ID, selected)

	st.b.logger.Debug("files {Pattern}: {Count} of {Total} matched", pattern, len(selected), len(paths))
	return nil
}

func (st *state) visitProjects(ctx context.Context, n *config.ProjectsNode) error {
	if !st.checkSets(n, config.SetReferences(n.Where)...) {
		return nil
	}
	pattern := glob.Complete(n.Path, config.DefaultProjectExtension)
	paths, err := st.b.glob(st.doc.Dir(), pattern)
	if err != nil {
		return err
	}

	selected, err := st.addProjects(ctx, paths, n.Inclusion, st.globBase(pattern))
	if err != nil {
		return err
	}
	st.record(n.ID, selected)

	st.b.logger.Debug("projects {Pattern}: {Count} of {Total} matched", pattern, len(selected), len(paths))
	return nil
}

// addProjects reads paths, filters them and adds the survivors to the tree.
// It returns the selected paths.
func (st *state) addProjects(ctx context.Context, paths []string, inc config.Inclusion, base string) ([]string, error) {
	metadata, err := st.b.readProjects(ctx, paths)
	if err != nil {
		return nil, err
	}

	filter := st.compileFilter(inc.Where)
	if err := glob.Prepare(ctx, filter); err != nil {
		return nil, err
	}

	var selected []string
	for i, abs := range paths {
		m := metadata[i]
		it := st.item(abs)
		it.project, it.typ = true, m.Type
		if !filter.Match(it) {
			continue
		}
		selected = append(selected, abs)
		st.addProject(st.targetFolder(abs, base, inc.CreateFolders), abs, m.SolutionProject(st.solution.OutputDirectory), inc.Overwrite)
	}
	return selected, nil
}

func (st *state) addProject(folder *solution.Folder, abs string, p *solution.Project, overwrite bool) {
	path := st.solutionPath(abs)
	if !folder.AddProject(path, p, overwrite) {
		st.b.logger.Debug("Project {Path} is already in the solution", path)
		return
	}
	st.added.add(abs)
	st.observe(p)
}

// target returns the set a Dependencies or Dependents node works from.
func (st *state) target(id string) *pathSet {
	if id == "" {
		return st.added
	}
	return st.sets[id]
}

func (st *state) visitDependencies(ctx context.Context, n *config.DependenciesNode) error {
	if !st.checkSets(n, append(config.SetReferences(n.Where), n.Target)...) {
		return nil
	}
	target := st.target(n.Target)
	roots := target.list()
	if err := st.b.graph.ResolveAll(ctx, roots); err != nil {
		return err
	}

	candidates := newPathSet(st.caseSensitive())
	for _, root := range roots {
		deps, err := st.b.graph.Dependencies(ctx, root)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if !target.has(dep) {
				candidates.add(dep)
			}
		}
	}

	selected, err := st.addProjects(ctx, candidates.sorted(), n.Inclusion, st.doc.Dir())
	if err != nil {
		return err
	}
	st.record(n.ID, selected)

	st.b.logger.Debug("dependencies of {Count} projects: {Selected} selected", len(roots), len(selected))
	return nil
}

func (st *state) visitDependents(ctx context.Context, n *config.DependentsNode) error {
	if !st.checkSets(n, append(config.SetReferences(n.Where), n.Target, n.Scope)...) {
		return nil
	}
	target := st.target(n.Target)

	scope, err := st.dependentsScope(n)
	if err != nil {
		return err
	}

	candidates := newPathSet(st.caseSensitive())
	for _, root := range target.list() {
		dependents, err := st.b.graph.Dependents(ctx, root, scope, false)
		if err != nil {
			return err
		}
		for _, d := range dependents {
			if !target.has(d) {
				candidates.add(d)
			}
		}
	}
	paths := candidates.sorted()

	if n.KeepOnlySatisfiedBeforeFilter {
		if paths, err = st.keepSatisfied(ctx, paths, target); err != nil {
			return err
		}
	}

	metadata, err := st.b.readProjects(ctx, paths)
	if err != nil {
		return err
	}
	filter := st.compileFilter(n.Where)
	if err := glob.Prepare(ctx, filter); err != nil {
		return err
	}
	var filtered []string
	for i, abs := range paths {
		it := st.item(abs)
		it.project, it.typ = true, metadata[i].Type
		if filter.Match(it) {
			filtered = append(filtered, abs)
		}
	}

	if n.KeepOnlySatisfiedAfterFilter {
		if filtered, err = st.keepSatisfied(ctx, filtered, target); err != nil {
			return err
		}
	}

	selected, err := st.addProjects(ctx, filtered, config.Inclusion{
		CreateFolders: n.CreateFolders,
		Overwrite:     n.Overwrite,
	}, st.doc.Dir())
	if err != nil {
		return err
	}
	st.record(n.ID, selected)

	st.b.logger.Debug("dependents of {Count} projects: {Selected} selected", target.len(), len(selected))
	return nil
}

func (st *state) dependentsScope(n *config.DependentsNode) ([]string, error) {
	if n.Scope != "" {
		return st.sets[n.Scope].list(), nil
	}
	return st.b.glob(st.doc.Dir(), glob.Complete(n.ScopePath, config.DefaultProjectExtension))
}

// keepSatisfied keeps the candidates whose dependencies are all included:
// in the target set, already in the tree, or candidates kept before them.
// Passes repeat until no more candidate can be proven satisfied.
func (st *state) keepSatisfied(ctx context.Context, candidates []string, target *pathSet) ([]string, error) {
	dependencies := make(map[string][]string, len(candidates))
	for _, c := range candidates {
		deps, err := st.b.graph.Dependencies(ctx, c)
		if err != nil {
			return nil, err
		}
		dependencies[c] = deps
	}

	kept := newPathSet(st.caseSensitive())
	included := func(p string) bool {
		return target.has(p) || st.added.has(p) || kept.has(p)
	}
	for progress := true; progress; {
		progress = false
		for _, c := range candidates {
			if kept.has(c) {
				continue
			}
			satisfied := true
			for _, dep := range dependencies[c] {
				if !included(dep) {
					satisfied = false
					break
				}
			}
			if satisfied {
				kept.add(c)
				progress = true
			}
		}
	}

	var result []string
	for _, c := range candidates {
		if kept.has(c) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (st *state) visitSolutions(ctx context.Context, n *config.SolutionsNode) error {
	refs := append(config.SetReferences(n.Where), config.SetReferences(n.WhereProjects)...)
	refs = append(refs, config.SetReferences(n.WhereFiles)...)
	if !st.checkSets(n, refs...) {
		return nil
	}

	extension := config.DefaultSolutionExtension
	if n.Sub {
		extension = config.DefaultSubSolutionExtension
	}
	pattern := glob.Complete(n.Path, extension)
	paths, err := st.b.glob(st.doc.Dir(), pattern)
	if err != nil {
		return err
	}
	if n.ReverseOrder {
		slices.Reverse(paths)
	}

	filter := st.compileFilter(n.Where)
	projectFilter := st.compileFilter(n.WhereProjects)
	fileFilter := st.compileFilter(n.WhereFiles)
	for _, f := range []glob.Filter[item]{filter, projectFilter, fileFilter} {
		if err := glob.Prepare(ctx, f); err != nil {
			return err
		}
	}

	for _, abs := range paths {
		if abs == st.doc.Path || !filter.Match(st.item(abs)) {
			continue
		}
		sub, err := st.load(ctx, n, abs)
		if err != nil {
			return err
		}
		if sub == nil {
			continue
		}
		st.merge(n, abs, sub, projectFilter, fileFilter)
	}
	return nil
}

// load builds the solution at abs: a configuration is built recursively, a
// solution file is read and ingested. It returns nil when the solution is
// skipped with an issue.
func (st *state) load(ctx context.Context, n *config.SolutionsNode, abs string) (*Result, error) {
	rel := solution.RelativePath(st.doc.Dir(), abs)

	if !strings.EqualFold(filepath.Ext(abs), "."+config.DefaultSubSolutionExtension) {
		data, err := st.b.fs.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read solution: %w", err)
		}
		doc, err := raw.Read(bytes.NewReader(data))
		if err != nil {
			var fe *raw.FormatError
			if errors.As(err, &fe) {
				fe.FilePath = abs
			}
			return nil, err
		}
		s, issues, err := st.b.converter.Ingest(ctx, doc, abs, st.caseSensitive())
		if err != nil {
			return nil, err
		}
		st.issues = append(st.issues, wrapIssues(rel, issues)...)
		if n.KeepOnly != "" {
			st.issuef(solution.IssueError, n, "keep_only %q needs a configuration, %s is a solution file", n.KeepOnly, rel)
			return nil, nil
		}
		return &Result{Solution: s}, nil
	}

	for _, outer := range st.chain {
		if project.Key(outer) == project.Key(abs) {
			st.issuef(solution.IssueError, n, "configuration %s includes itself", rel)
			return nil, nil
		}
	}
	doc, err := config.Load(st.b.fs, abs)
	if err != nil {
		return nil, err
	}
	result, err := st.b.build(ctx, doc, st.chain)
	if err != nil {
		return nil, err
	}
	st.issues = append(st.issues, wrapIssues(rel, result.Issues)...)

	if n.KeepOnly != "" {
		keep, ok := result.sets[n.KeepOnly]
		if !ok {
			st.issuef(solution.IssueError, n, "keep_only references set %q unknown to %s", n.KeepOnly, rel)
			return nil, nil
		}
		outputDir := result.Solution.OutputDirectory
		result.Solution.Root.FilterProjects(func(path string, _ *solution.Project) bool {
			return keep.has(solution.AbsolutePath(outputDir, path))
		})
	}
	return result, nil
}

// merge re-roots sub into this solution, filters it and adds its content to
// the current folder.
func (st *state) merge(n *config.SolutionsNode, abs string, sub *Result, projectFilter, fileFilter glob.Filter[item]) {
	s := sub.Solution
	s.ChangeItemsRootDirectory(st.solution.OutputDirectory)
	outputDir := st.solution.OutputDirectory

	s.Root.FilterProjects(func(path string, p *solution.Project) bool {
		it := st.item(solution.AbsolutePath(outputDir, path))
		it.project, it.typ = true, p.Type
		return projectFilter.Match(it)
	})
	s.Root.FilterFiles(func(path string) bool {
		return fileFilter.Match(st.item(solution.AbsolutePath(outputDir, path)))
	})

	var selected []string
	for _, path := range s.ProjectPaths() {
		selected = append(selected, solution.AbsolutePath(outputDir, path))
	}
	st.record(n.ID, selected)

	if n.Virtual {
		st.b.logger.Debug("Solution {Path} recorded {Count} projects virtually", abs, len(selected))
		return
	}

	folder := st.current()
	rootName := solution.FileNameWithoutExtension(abs)
	if n.CreateRootFolder {
		folder = folder.GetOrAddSubFolder(rootName)
	}
	rejected := folder.AddFolderContent(s.Root, n.Overwrite)
	for _, path := range rejected {
		st.b.logger.Debug("Item {Path} of {Solution} is already in the solution", path, abs)
	}
	if n.CreateRootFolder && folder.IsEmpty() {
		st.current().RemoveSubFolder(rootName)
	}

	projects := s.Projects()
	for _, path := range s.ProjectPaths() {
		if st.solution.Contains(path) {
			st.added.add(solution.AbsolutePath(outputDir, path))
			st.observe(projects[path])
		}
	}
}

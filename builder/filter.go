package builder

import (
	"context"
	"slices"
	"sort"

	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/glob"
	"github.com/willibrandon/gosln/solution"
)

// item is a candidate file or project presented to filters.
type item struct {
	// path is absolute; rel is relative to the configuration directory
	path string
	rel  string

	project bool
	typ     solution.ProjectType
}

func itemRel(it item) string { return it.rel }

// compileFilter turns a parsed filter expression into a predicate over
// items. A nil expression matches everything.
func (st *state) compileFilter(f config.Filter) glob.Filter[item] {
	switch f := f.(type) {
	case nil:
		return glob.True[item]()
	case *config.PathFilter:
		m := glob.Compile(f.Pattern, st.caseSensitive())
		return glob.Cast(glob.Func(f.String(), m.Match), itemRel)
	case *config.ProjectTypeFilter:
		return glob.Func(f.String(), func(it item) bool {
			return it.project && slices.Contains(f.Types, it.typ)
		})
	case *config.InSetFilter:
		set := st.sets[f.ID]
		return glob.Func(f.String(), func(it item) bool {
			return set != nil && set.has(it.path)
		})
	case *config.NotFilter:
		return glob.Not(st.compileFilter(f.Operand))
	case *config.AllFilter:
		return glob.All(st.compileTerms(f.Terms)...)
	case *config.AnyOfFilter:
		return glob.AnyOf(st.compileTerms(f.Terms)...)
	case *config.DependencyOfFilter:
		return &dependencyOfFilter{st: st, name: f.String(), pattern: f.Pattern}
	}
	return glob.True[item]()
}

func (st *state) compileTerms(terms []config.Filter) []glob.Filter[item] {
	filters := make([]glob.Filter[item], len(terms))
	for i, t := range terms {
		filters[i] = st.compileFilter(t)
	}
	return filters
}

// dependencyOfFilter matches the dependencies of the projects matched by a
// glob. The dependency sets are resolved by Prepare.
type dependencyOfFilter struct {
	st      *state
	name    string
	pattern string

	deps *pathSet
}

func (f *dependencyOfFilter) Prepare(ctx context.Context) error {
	roots, err := f.st.b.glob(f.st.doc.Dir(), glob.Complete(f.pattern, config.DefaultProjectExtension))
	if err != nil {
		return err
	}
	graph := f.st.b.graph
	if err := graph.ResolveAll(ctx, roots); err != nil {
		return err
	}

	f.deps = newPathSet(f.st.caseSensitive())
	for _, root := range roots {
		deps, err := graph.Dependencies(ctx, root)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			f.deps.add(dep)
		}
	}
	return nil
}

func (f *dependencyOfFilter) Match(it item) bool {
	return it.project && f.deps != nil && f.deps.has(it.path)
}

func (f *dependencyOfFilter) String() string {
	return f.name
}

// pathSet is an insertion-ordered set of absolute paths.
type pathSet struct {
	caseSensitive bool
	paths         []string
	index         map[string]struct{}
}

func newPathSet(caseSensitive bool) *pathSet {
	return &pathSet{caseSensitive: caseSensitive, index: make(map[string]struct{})}
}

func (s *pathSet) add(path string) bool {
	key := solution.PathKey(path, s.caseSensitive)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.paths = append(s.paths, path)
	return true
}

func (s *pathSet) has(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[solution.PathKey(path, s.caseSensitive)]
	return ok
}

func (s *pathSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.paths)
}

// list returns the paths in insertion order.
func (s *pathSet) list() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.paths...)
}

func (s *pathSet) sorted() []string {
	paths := s.list()
	sort.Strings(paths)
	return paths
}

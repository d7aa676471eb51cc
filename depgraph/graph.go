// Package depgraph computes transitive project dependencies and dependents
// over the project references returned by a project reader.
package depgraph

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/gosln/cache"
	"github.com/willibrandon/gosln/observability"
	"github.com/willibrandon/gosln/project"
)

// DefaultConcurrency bounds the number of scope projects resolved at once.
const DefaultConcurrency = 16

// Graph memoizes dependency closures by absolute project path. It is safe
// for concurrent use; concurrent requests for the same project share one
// computation.
type Graph struct {
	reader      project.Reader
	closures    *cache.OperationCache[string, []string]
	logger      observability.Logger
	concurrency int

	mu               sync.Mutex
	dependents       map[string]map[string]struct{}
	directDependents map[string]map[string]struct{}
	cycles           map[string]struct{}
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithConcurrency bounds concurrent scope resolution in Dependents.
func WithConcurrency(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// New creates a graph reading project references through reader. The reader
// should itself be cached (see project.Cache); the graph only memoizes
// closures.
func New(reader project.Reader, opts ...Option) *Graph {
	g := &Graph{
		reader:           reader,
		closures:         cache.NewOperationCache[string, []string](0),
		logger:           observability.NewNullLogger(),
		concurrency:      DefaultConcurrency,
		dependents:       make(map[string]map[string]struct{}),
		directDependents: make(map[string]map[string]struct{}),
		cycles:           make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dependencies returns the sorted transitive dependencies of the project at
// path. A project never appears in its own dependency set, even when its
// references form a cycle.
func (g *Graph) Dependencies(ctx context.Context, path string) ([]string, error) {
	key := project.Key(path)
	deps, shared, err := g.closures.GetOrStart(ctx, key, func(ctx context.Context) ([]string, error) {
		return g.resolve(ctx, key)
	})
	if shared {
		observability.CacheHitsTotal.WithLabelValues("dependencies").Inc()
	} else {
		observability.CacheMissesTotal.WithLabelValues("dependencies").Inc()
	}
	if err != nil {
		return nil, err
	}
	return append([]string(nil), deps...), nil
}

// resolve walks the reference graph breadth-first from root. Closures that
// are already known are merged without walking them again.
func (g *Graph) resolve(ctx context.Context, root string) (deps []string, err error) {
	ctx, span := observability.StartDependencyResolutionSpan(ctx, root)
	defer func() { observability.EndSpanWithError(span, err) }()

	direct, err := g.direct(ctx, root)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{root: {}}
	closure := make(map[string]struct{})
	cyclic := false
	queue := append([]string(nil), direct...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == root {
			cyclic = true
			continue
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		closure[current] = struct{}{}

		if known, ok := g.closures.Peek(current); ok {
			for _, dep := range known {
				if dep == root {
					cyclic = true
					continue
				}
				closure[dep] = struct{}{}
				visited[dep] = struct{}{}
			}
			continue
		}

		next, err := g.direct(ctx, current)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}

	deps = make([]string, 0, len(closure))
	for dep := range closure {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	g.record(root, direct, deps, cyclic)
	return deps, nil
}

func (g *Graph) direct(ctx context.Context, path string) ([]string, error) {
	m, err := g.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		refs = append(refs, project.Key(dep))
	}
	return refs, nil
}

func (g *Graph) record(root string, direct, deps []string, cyclic bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, dep := range deps {
		addEdge(g.dependents, dep, root)
	}
	for _, dep := range direct {
		if dep != root {
			addEdge(g.directDependents, dep, root)
		}
	}

	if cyclic {
		if _, known := g.cycles[root]; !known {
			g.cycles[root] = struct{}{}
			observability.DependencyCyclesTotal.Inc()
			g.logger.Warn("Project {Path} is part of a circular project reference", root)
		}
	}
}

// Dependents returns the sorted projects of scope that depend on target,
// transitively or, with directOnly, through a direct reference. Every scope
// project is resolved first, concurrently.
func (g *Graph) Dependents(ctx context.Context, target string, scope []string, directOnly bool) ([]string, error) {
	if err := g.ResolveAll(ctx, scope); err != nil {
		return nil, err
	}

	inScope := make(map[string]struct{}, len(scope))
	for _, p := range scope {
		inScope[project.Key(p)] = struct{}{}
	}

	g.mu.Lock()
	edges := g.dependents
	if directOnly {
		edges = g.directDependents
	}
	var result []string
	for dependent := range edges[project.Key(target)] {
		if _, ok := inScope[dependent]; ok {
			result = append(result, dependent)
		}
	}
	g.mu.Unlock()

	sort.Strings(result)
	return result, nil
}

// ResolveAll computes the dependencies of every path concurrently.
func (g *Graph) ResolveAll(ctx context.Context, paths []string) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, p := range paths {
		eg.Go(func() error {
			_, err := g.Dependencies(ctx, p)
			return err
		})
	}
	return eg.Wait()
}

// Cycles returns the sorted projects found to reference themselves,
// directly or through other projects.
func (g *Graph) Cycles() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	cycles := make([]string, 0, len(g.cycles))
	for p := range g.cycles {
		cycles = append(cycles, p)
	}
	sort.Strings(cycles)
	return cycles
}

func addEdge(edges map[string]map[string]struct{}, from, to string) {
	set, ok := edges[from]
	if !ok {
		set = make(map[string]struct{})
		edges[from] = set
	}
	set[to] = struct{}{}
}

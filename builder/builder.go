// Package builder interprets a solution configuration document into a
// solution model.
//
// Content nodes are visited in declaration order. Each node selects files or
// projects (through globs, the dependency graph or other solutions), filters
// them and adds them to the current folder. Project files are read in
// concurrent batches through a shared cache; everything else runs on the
// calling goroutine.
package builder

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/depgraph"
	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/observability"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/convert"
)

// DefaultConcurrency bounds the number of project files read at once.
const DefaultConcurrency = 16

// Builder builds solutions from configuration documents. A Builder keeps its
// project cache and dependency graph across builds, so nested and repeated
// builds read each project once.
type Builder struct {
	fs          fsys.FileSystem
	reader      *project.Cache
	graph       *depgraph.Graph
	converter   *convert.Converter
	logger      observability.Logger
	globOptions fsys.GlobOptions
	concurrency int
}

// Option configures a Builder.
type Option func(*options)

type options struct {
	reader      project.Reader
	logger      observability.Logger
	globOptions fsys.GlobOptions
	concurrency int
}

// WithProjectReader sets the reader of project files. The default reads
// MSBuild XML through the builder's filesystem.
func WithProjectReader(reader project.Reader) Option {
	return func(o *options) {
		o.reader = reader
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGlobOptions tunes file enumeration.
func WithGlobOptions(opts fsys.GlobOptions) Option {
	return func(o *options) {
		o.globOptions = opts
	}
}

// WithConcurrency bounds concurrent project reads.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// New creates a builder over fs.
func New(fs fsys.FileSystem, opts ...Option) *Builder {
	o := options{
		logger:      observability.NewNullLogger(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reader == nil {
		o.reader = project.NewXMLReader(fs)
	}

	reader := project.NewCache(o.reader, project.WithCacheLogger(o.logger))
	return &Builder{
		fs:     fs,
		reader: reader,
		graph: depgraph.New(reader,
			depgraph.WithLogger(o.logger),
			depgraph.WithConcurrency(o.concurrency),
		),
		converter: convert.New(
			convert.WithProjectReader(reader),
			convert.WithLogger(o.logger),
		),
		logger:      o.logger,
		globOptions: o.globOptions,
		concurrency: o.concurrency,
	}
}

// Graph returns the dependency graph shared by the builds of b.
func (b *Builder) Graph() *depgraph.Graph {
	return b.graph
}

// Result is the outcome of a build.
type Result struct {
	Solution *solution.Solution
	Issues   solution.Issues

	sets map[string]*pathSet
}

// Sets returns the named sets of the build, by id, as sorted paths relative
// to the solution directory.
func (r *Result) Sets() map[string][]string {
	sets := make(map[string][]string, len(r.sets))
	for id, set := range r.sets {
		paths := make([]string, 0, set.len())
		for _, p := range set.list() {
			paths = append(paths, solution.RelativePath(r.Solution.OutputDirectory, p))
		}
		sort.Strings(paths)
		sets[id] = paths
	}
	return sets
}

// BuildFile loads the configuration file at path and builds it.
func (b *Builder) BuildFile(ctx context.Context, path string) (*Result, error) {
	doc, err := config.Load(b.fs, path)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, doc)
}

// Build interprets doc. Problems in the configuration are reported as
// issues; project read failures and filesystem errors abort the build.
func (b *Builder) Build(ctx context.Context, doc *config.Document) (result *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartBuildSpan(ctx, doc.Path)
	defer func() {
		observability.EndSpanWithError(span, err)
		status := "success"
		if err != nil {
			status = "failure"
		}
		observability.BuildDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	b.logger.DebugContext(ctx, "Building solution {Name} from {Path}", doc.SolutionName, doc.Path)

	result, err = b.build(ctx, doc, nil)
	if err != nil {
		return nil, err
	}

	for _, issue := range result.Issues {
		observability.BuildIssuesTotal.WithLabelValues(issue.Level.String()).Inc()
		if issue.Level == solution.IssueError {
			b.logger.ErrorContext(ctx, "{Issue}", issue.Message)
		} else {
			b.logger.WarnContext(ctx, "{Issue}", issue.Message)
		}
	}
	observability.RecordResult(ctx, 0, len(result.Issues))
	b.logger.InfoContext(ctx, "Built solution {Name}: {ProjectCount} projects, {FileCount} files, {IssueCount} issues",
		doc.SolutionName, len(result.Solution.ProjectPaths()), len(result.Solution.FilePaths()), len(result.Issues))
	return result, nil
}

// build runs one configuration; chain lists the configurations being built
// around it, outermost first.
func (b *Builder) build(ctx context.Context, doc *config.Document, chain []string) (*Result, error) {
	st := newState(b, doc, append(slices.Clip(chain), doc.Path))

	// 1. Visit the content tree
	if err := st.visitAll(ctx, doc.Root); err != nil {
		return nil, err
	}

	// 2. Simplify the folder hierarchy
	st.solution.Root.RemoveEmptySubFolders()
	if doc.CollapseFoldersWithUniqueSubFolder {
		collapseUniqueSubFolders(st.solution.Root)
	}
	if doc.CollapseFoldersWithUniqueItem {
		collapseUniqueItems(st.solution.Root)
	}

	// 3. Build the configuration-platform matrix
	st.buildMatrix()

	return &Result{
		Solution: st.solution,
		Issues:   st.issues,
		sets:     st.sets,
	}, nil
}

// readProjects reads paths concurrently; results are in input order.
func (b *Builder) readProjects(ctx context.Context, paths []string) ([]*project.Metadata, error) {
	results := make([]*project.Metadata, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency)
	for i, path := range paths {
		eg.Go(func() error {
			m, err := b.reader.Read(ctx, path)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// glob enumerates the files of dir matching pattern, as absolute paths.
func (b *Builder) glob(dir, pattern string) ([]string, error) {
	matches, err := fsys.Glob(b.fs, dir, pattern, b.globOptions)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(matches))
	for i, rel := range matches {
		paths[i] = solution.AbsolutePath(dir, rel)
	}
	return paths, nil
}

func wrapIssues(source string, issues solution.Issues) solution.Issues {
	wrapped := make(solution.Issues, len(issues))
	for i, issue := range issues {
		wrapped[i] = solution.Issue{Level: issue.Level, Message: fmt.Sprintf("%s: %s", source, issue.Message)}
	}
	return wrapped
}

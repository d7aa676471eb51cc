package project

import (
	"context"
	"time"

	"github.com/willibrandon/gosln/cache"
	"github.com/willibrandon/gosln/observability"
)

// Cache wraps a Reader so that every project file is read once. Concurrent
// reads of the same path join the same in-flight read. Callers receive
// their own copy of the metadata.
type Cache struct {
	reader Reader
	reads  *cache.OperationCache[string, *Metadata]
	logger observability.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets the logger used for read diagnostics.
func WithCacheLogger(logger observability.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a cache over reader.
func NewCache(reader Reader, opts ...CacheOption) *Cache {
	c := &Cache{
		reader: reader,
		reads:  cache.NewOperationCache[string, *Metadata](0),
		logger: observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read implements Reader.
func (c *Cache) Read(ctx context.Context, path string) (*Metadata, error) {
	key := Key(path)
	m, shared, err := c.reads.GetOrStart(ctx, key, func(ctx context.Context) (*Metadata, error) {
		return c.read(ctx, key)
	})
	observability.RecordCacheHit(ctx, shared)
	if shared {
		observability.CacheHitsTotal.WithLabelValues("project").Inc()
	} else {
		observability.CacheMissesTotal.WithLabelValues("project").Inc()
	}
	if err != nil {
		return nil, err
	}
	return m.Copy(), nil
}

func (c *Cache) read(ctx context.Context, path string) (*Metadata, error) {
	ctx, span := observability.StartProjectReadSpan(ctx, path)
	start := time.Now()

	m, err := c.reader.Read(ctx, path)
	observability.ProjectReadDuration.Observe(time.Since(start).Seconds())
	observability.EndSpanWithError(span, err)

	if err != nil {
		observability.ProjectReadsTotal.WithLabelValues("failure").Inc()
		c.logger.WarnContext(ctx, "Failed to read project {Path}: {Error}", path, err)
		return nil, err
	}

	observability.ProjectReadsTotal.WithLabelValues("success").Inc()
	c.logger.DebugContext(ctx, "Read project {Path} ({Type}, {ConfigurationCount} configurations, {DependencyCount} references)",
		path, m.Type, len(m.Configurations), len(m.Dependencies))
	return m, nil
}

// Invalidate forgets the cached read of path.
func (c *Cache) Invalidate(path string) {
	c.reads.Forget(Key(path))
}

// Clear forgets every cached read.
func (c *Cache) Clear() {
	c.reads.Clear()
}

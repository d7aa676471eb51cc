package glob

import (
	"context"
	"strings"
)

// Filter is a predicate over items of type T with a readable form for logs.
type Filter[T any] interface {
	Match(item T) bool
	String() string
}

// Preparer is implemented by filters that need a preparation phase, such as a
// directory scan or a graph resolution, before Match can be called.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Prepare runs the preparation phase of f if it has one.
func Prepare[T any](ctx context.Context, f Filter[T]) error {
	if p, ok := f.(Preparer); ok {
		return p.Prepare(ctx)
	}
	return nil
}

// Func adapts a named predicate into a Filter.
func Func[T any](name string, fn func(T) bool) Filter[T] {
	return &funcFilter[T]{name: name, fn: fn}
}

type funcFilter[T any] struct {
	name string
	fn   func(T) bool
}

func (f *funcFilter[T]) Match(item T) bool { return f.fn(item) }
func (f *funcFilter[T]) String() string    { return f.name }

// True returns a filter matching everything.
func True[T any]() Filter[T] {
	return Func("true", func(T) bool { return true })
}

// Not inverts f.
func Not[T any](f Filter[T]) Filter[T] {
	return &notFilter[T]{inner: f}
}

type notFilter[T any] struct {
	inner Filter[T]
}

func (f *notFilter[T]) Match(item T) bool { return !f.inner.Match(item) }
func (f *notFilter[T]) String() string    { return "not " + f.inner.String() }

func (f *notFilter[T]) Prepare(ctx context.Context) error {
	return Prepare(ctx, f.inner)
}

// All matches items matched by every filter. An empty list matches everything.
func All[T any](filters ...Filter[T]) Filter[T] {
	if len(filters) == 1 {
		return filters[0]
	}
	return &listFilter[T]{filters: filters, all: true}
}

// AnyOf matches items matched by at least one filter. An empty list matches
// nothing.
func AnyOf[T any](filters ...Filter[T]) Filter[T] {
	if len(filters) == 1 {
		return filters[0]
	}
	return &listFilter[T]{filters: filters}
}

type listFilter[T any] struct {
	filters []Filter[T]
	all     bool
}

func (f *listFilter[T]) Match(item T) bool {
	for _, filter := range f.filters {
		if filter.Match(item) != f.all {
			return !f.all
		}
	}
	return f.all
}

func (f *listFilter[T]) String() string {
	op := " or "
	if f.all {
		op = " and "
	}
	parts := make([]string, len(f.filters))
	for i, filter := range f.filters {
		parts[i] = filter.String()
	}
	return "(" + strings.Join(parts, op) + ")"
}

func (f *listFilter[T]) Prepare(ctx context.Context) error {
	for _, filter := range f.filters {
		if err := Prepare(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}

// Cast reuses a filter over T against items of type U through a projection.
func Cast[T, U any](f Filter[T], project func(U) T) Filter[U] {
	return &castFilter[T, U]{inner: f, project: project}
}

type castFilter[T, U any] struct {
	inner   Filter[T]
	project func(U) T
}

func (f *castFilter[T, U]) Match(item U) bool { return f.inner.Match(f.project(item)) }
func (f *castFilter[T, U]) String() string    { return f.inner.String() }

func (f *castFilter[T, U]) Prepare(ctx context.Context) error {
	return Prepare(ctx, f.inner)
}

// PathEquals matches paths equal to path, ignoring the separator kind.
func PathEquals(path string, caseSensitive bool) Filter[string] {
	want := normalize(path)
	return Func("path = "+path, func(candidate string) bool {
		got := normalize(candidate)
		if caseSensitive {
			return got == want
		}
		return strings.EqualFold(got, want)
	})
}

func normalize(path string) string {
	return strings.Join(SplitPath(path), "/")
}

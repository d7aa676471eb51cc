package config

import (
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/willibrandon/gosln/solution"
)

// Filter is a parsed filter expression. The concrete types are
// *PathFilter, *ProjectTypeFilter, *InSetFilter, *NotFilter, *AllFilter,
// *AnyOfFilter and *DependencyOfFilter.
type Filter interface {
	String() string
	filter()
}

// PathFilter matches item paths against a glob.
type PathFilter struct {
	Pattern string
	Range   hcl.Range
}

// ProjectTypeFilter matches projects of the listed kinds.
type ProjectTypeFilter struct {
	Types []solution.ProjectType
	Range hcl.Range
}

// InSetFilter matches items of a named set.
type InSetFilter struct {
	ID    string
	Range hcl.Range
}

// NotFilter inverts its operand.
type NotFilter struct {
	Operand Filter
}

// AllFilter matches when every term matches.
type AllFilter struct {
	Terms []Filter
}

// AnyOfFilter matches when at least one term matches.
type AnyOfFilter struct {
	Terms []Filter
}

// DependencyOfFilter matches projects that are dependencies of any project
// matched by a glob.
type DependencyOfFilter struct {
	Pattern string
	Range   hcl.Range
}

func (f *PathFilter) String() string { return "path " + f.Pattern }

func (f *ProjectTypeFilter) String() string {
	names := make([]string, len(f.Types))
	for i, t := range f.Types {
		names[i] = t.String()
	}
	return "project_type " + strings.Join(names, "|")
}

func (f *InSetFilter) String() string        { return "in_set " + f.ID }
func (f *NotFilter) String() string          { return "not " + f.Operand.String() }
func (f *AllFilter) String() string          { return join(f.Terms, " and ") }
func (f *AnyOfFilter) String() string        { return join(f.Terms, " or ") }
func (f *DependencyOfFilter) String() string { return "is_dependency_of " + f.Pattern }

func (*PathFilter) filter()         {}
func (*ProjectTypeFilter) filter()  {}
func (*InSetFilter) filter()        {}
func (*NotFilter) filter()          {}
func (*AllFilter) filter()          {}
func (*AnyOfFilter) filter()        {}
func (*DependencyOfFilter) filter() {}

func join(terms []Filter, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// SetReferences returns the named sets a filter refers to.
func SetReferences(f Filter) []string {
	var ids []string
	var visit func(Filter)
	visit = func(f Filter) {
		switch f := f.(type) {
		case *InSetFilter:
			ids = append(ids, f.ID)
		case *NotFilter:
			visit(f.Operand)
		case *AllFilter:
			for _, t := range f.Terms {
				visit(t)
			}
		case *AnyOfFilter:
			for _, t := range f.Terms {
				visit(t)
			}
		}
	}
	if f != nil {
		visit(f)
	}
	return ids
}

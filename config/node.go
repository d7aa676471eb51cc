// Package config parses declarative solution configuration files (.subsln)
// written in HCL into a tree of content nodes.
package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Node is one content entry of a folder. The concrete types are
// *FolderNode, *FilesNode, *ProjectsNode, *SolutionsNode,
// *DependenciesNode and *DependentsNode.
type Node interface {
	// Range is the location of the block declaring the node
	Range() hcl.Range
	node()
}

// Default glob extensions by node kind.
const (
	DefaultProjectExtension     = "*proj"
	DefaultFileExtension        = ""
	DefaultSolutionExtension    = "sln"
	DefaultSubSolutionExtension = "subsln"
)

// Inclusion holds the attributes shared by nodes that add items to the
// current folder.
type Inclusion struct {
	// Where filters the candidate items; nil keeps everything
	Where Filter

	// CreateFolders places each item under folders named after its directories
	CreateFolders bool

	// Overwrite moves items already placed elsewhere in the solution
	Overwrite bool

	// ID names the set of items added by the node
	ID string
}

// FolderNode declares a solution folder.
type FolderNode struct {
	Name    string
	Content []Node

	DeclRange hcl.Range
}

// FilesNode adds files matched by a glob as solution items.
type FilesNode struct {
	Path string
	Inclusion

	DeclRange hcl.Range
}

// ProjectsNode adds project files matched by a glob.
type ProjectsNode struct {
	Path string
	Inclusion

	DeclRange hcl.Range
}

// SolutionsNode merges existing .sln files, or nested .subsln
// configurations when Sub is set.
type SolutionsNode struct {
	Path string
	Sub  bool

	// ReverseOrder merges matched solutions in reverse path order
	ReverseOrder bool

	// KeepOnly restricts the merged projects to a named set
	KeepOnly string

	WhereProjects Filter
	WhereFiles    Filter

	// CreateRootFolder nests the merged content under a folder named after
	// the solution file
	CreateRootFolder bool

	// Virtual only records the merged projects in named sets
	Virtual bool

	Inclusion

	DeclRange hcl.Range
}

// DependenciesNode adds the dependencies of a project set.
type DependenciesNode struct {
	// Target names the set whose dependencies are added; empty means every
	// project added so far
	Target string
	Inclusion

	DeclRange hcl.Range
}

// DependentsNode adds the projects depending on a project set.
type DependentsNode struct {
	// Target names the set whose dependents are added; empty means every
	// project added so far
	Target string

	// Scope names the set of candidate dependents; ScopePath is a glob of
	// candidate project files. Both empty means every project under the
	// configuration directory.
	Scope     string
	ScopePath string

	KeepOnlySatisfiedBeforeFilter bool
	KeepOnlySatisfiedAfterFilter  bool

	Inclusion

	DeclRange hcl.Range
}

func (n *FolderNode) Range() hcl.Range       { return n.DeclRange }
func (n *FilesNode) Range() hcl.Range        { return n.DeclRange }
func (n *ProjectsNode) Range() hcl.Range     { return n.DeclRange }
func (n *SolutionsNode) Range() hcl.Range    { return n.DeclRange }
func (n *DependenciesNode) Range() hcl.Range { return n.DeclRange }
func (n *DependentsNode) Range() hcl.Range   { return n.DeclRange }

func (*FolderNode) node()       {}
func (*FilesNode) node()        {}
func (*ProjectsNode) node()     {}
func (*SolutionsNode) node()    {}
func (*DependenciesNode) node() {}
func (*DependentsNode) node()   {}

// Kind returns the block type declaring n.
func Kind(n Node) string {
	switch n := n.(type) {
	case *FolderNode:
		return "folder"
	case *FilesNode:
		return "files"
	case *ProjectsNode:
		return "projects"
	case *SolutionsNode:
		if n.Sub {
			return "subsolutions"
		}
		return "solutions"
	case *DependenciesNode:
		return "dependencies"
	case *DependentsNode:
		return "dependents"
	}
	return "unknown"
}

// Walk visits nodes depth-first in declaration order.
func Walk(nodes []Node, visit func(Node)) {
	for _, n := range nodes {
		visit(n)
		if folder, ok := n.(*FolderNode); ok {
			Walk(folder.Content, visit)
		}
	}
}

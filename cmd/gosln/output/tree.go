package output

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"

	"github.com/willibrandon/gosln/solution"
)

// SolutionTree renders the folder hierarchy of s: sub-folders first, then
// projects with their kind, then files.
func SolutionTree(s *solution.Solution) string {
	root := gotree.New(s.Name + ".sln")
	addFolder(root, s.Root)
	return root.Print()
}

func addFolder(node gotree.Tree, f *solution.Folder) {
	for _, name := range f.SubFolderNames() {
		if sub, ok := f.SubFolder(name); ok {
			addFolder(node.Add(name+"/"), sub)
		}
	}
	for _, path := range f.ProjectPaths() {
		p, _ := f.Project(path)
		node.Add(fmt.Sprintf("%s [%s]", path, p.Type))
	}
	for _, path := range f.Files() {
		node.Add(path)
	}
}

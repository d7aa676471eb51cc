package builder

import (
	"github.com/willibrandon/gosln/config"
	"github.com/willibrandon/gosln/solution"
)

// collapseUniqueSubFolders merges, bottom-up, every sub-folder that is the
// only content of its parent into that parent.
func collapseUniqueSubFolders(f *solution.Folder) {
	for _, name := range f.SubFolderNames() {
		if sub, ok := f.SubFolder(name); ok {
			collapseUniqueSubFolders(sub)
		}
	}
	for f.ItemCount() == 0 {
		names := f.SubFolderNames()
		if len(names) != 1 {
			return
		}
		f.CollapseSubFolder(names[0])
	}
}

// collapseUniqueItems moves, bottom-up, the item of every sub-folder holding
// a single item and no sub-folder into the parent.
func collapseUniqueItems(f *solution.Folder) {
	for _, name := range f.SubFolderNames() {
		sub, ok := f.SubFolder(name)
		if !ok {
			continue
		}
		collapseUniqueItems(sub)
		if sub.ItemCount() == 1 && len(sub.SubFolderNames()) == 0 {
			f.CollapseSubFolder(name)
		}
	}
}

// buildMatrix adds the declared matrix, or one derived from the names
// observed on the projects, each entry matching exactly its own names.
func (st *state) buildMatrix() {
	if m := st.doc.Matrix; m != nil {
		for _, c := range m.Configurations {
			for _, p := range m.Platforms {
				st.solution.AddConfigurationPlatform(
					solution.NewConfigurationPlatform(c.Name, p.Name, c.Fragments(), p.Fragments()))
			}
		}
		return
	}

	platforms := st.platforms
	if len(platforms) == 0 {
		platforms = []string{config.DefaultPlatform}
	}
	for _, c := range st.configurations {
		for _, p := range platforms {
			st.solution.AddConfigurationPlatform(
				solution.NewConfigurationPlatform(c, p, []string{c}, []string{p}))
		}
	}
}

package convert

import (
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

// view is the semantic reading of a raw document: folder keys, project
// paths, file owners, contexts and shared imports, indexed by block ID.
type view struct {
	caseSensitive bool

	byID map[string]*raw.Project

	// parents maps a nested block ID to its parent block ID
	parents map[string]string

	// folders maps a folder key to its block; folderKeys is the reverse
	folders    map[string]*raw.Project
	folderKeys map[string]string

	// projects maps a path key to its block; projectPaths maps a block ID
	// to the normalized project path
	projects     map[string]*raw.Project
	projectPaths map[string]string

	// files maps a path key to the file and the folder key owning it
	files map[string]fileEntry

	matrix   []string
	contexts map[string]map[string]*contextEntry

	// shared maps a project block ID to its shared imports
	shared map[string][]sharedEntry

	issues solution.Issues
}

type fileEntry struct {
	path   string
	folder string
}

type contextEntry struct {
	active string
	build  bool
	deploy bool
}

type sharedEntry struct {
	path string
	code string
}

func newView(doc *raw.Document, caseSensitive bool) *view {
	v := &view{
		caseSensitive: caseSensitive,
		byID:          make(map[string]*raw.Project),
		parents:       make(map[string]string),
		folders:       make(map[string]*raw.Project),
		folderKeys:    make(map[string]string),
		projects:      make(map[string]*raw.Project),
		projectPaths:  make(map[string]string),
		files:         make(map[string]fileEntry),
		contexts:      make(map[string]map[string]*contextEntry),
		shared:        make(map[string][]sharedEntry),
	}

	for _, block := range doc.Projects {
		if _, err := raw.ParseGUID(block.ID); err != nil {
			v.issues = append(v.issues, solution.Errorf("project %q has an invalid GUID %q", block.Name, block.ID))
			continue
		}
		id := idKey(block.ID)
		if _, dup := v.byID[id]; dup {
			v.issues = append(v.issues, solution.Errorf("GUID %s is used by more than one project", block.ID))
			continue
		}
		v.byID[id] = block
	}

	v.readNesting(doc)
	v.readBlocks(doc)
	v.readMatrix(doc)
	v.readShared(doc)
	return v
}

func (v *view) key(path string) string {
	return solution.PathKey(path, v.caseSensitive)
}

func (v *view) readNesting(doc *raw.Document) {
	section, ok := doc.GlobalSection(raw.SectionNestedProjects)
	if !ok {
		return
	}
	for _, pair := range section.Pairs() {
		child, parent := idKey(pair.Key), idKey(pair.Value)
		if _, err := raw.ParseGUID(child); err != nil {
			v.issues = append(v.issues, solution.Errorf("NestedProjects has an invalid GUID %q", pair.Key))
			continue
		}
		if _, err := raw.ParseGUID(parent); err != nil {
			v.issues = append(v.issues, solution.Errorf("NestedProjects has an invalid GUID %q", pair.Value))
			continue
		}
		if _, ok := v.byID[child]; !ok {
			v.issues = append(v.issues, solution.Errorf("NestedProjects references unknown project %s", pair.Key))
			continue
		}
		parentBlock, ok := v.byID[parent]
		if !ok {
			v.issues = append(v.issues, solution.Errorf("NestedProjects references unknown folder %s", pair.Value))
			continue
		}
		if parentBlock.TypeGUID != solution.ProjectTypeFolder.GUID() {
			v.issues = append(v.issues, solution.Errorf("project %q is nested in %q, which is not a folder", v.byID[child].Name, parentBlock.Name))
			continue
		}
		v.parents[child] = parent
	}
}

// folderKeyOf returns the key of the folder nesting block id, "" for root.
func (v *view) folderKeyOf(id string) string {
	parent, ok := v.parents[id]
	if !ok {
		return ""
	}
	if key, ok := v.folderKeys[parent]; ok {
		return key
	}
	return ""
}

func (v *view) readBlocks(doc *raw.Document) {
	folderGUID := solution.ProjectTypeFolder.GUID()

	// folder keys first, so that items can be attached to them
	for _, block := range doc.Projects {
		id := idKey(block.ID)
		if v.byID[id] != block || block.TypeGUID != folderGUID {
			continue
		}
		key, ok := v.resolveFolderKey(id)
		if !ok {
			v.issues = append(v.issues, solution.Errorf("folder %q is nested in itself", block.Name))
			delete(v.parents, id)
			key = block.Name
		}
		if _, dup := v.folders[key]; dup {
			v.issues = append(v.issues, solution.Warningf("folder %q is declared more than once", key))
			continue
		}
		v.folders[key] = block
		v.folderKeys[id] = key
	}

	for _, block := range doc.Projects {
		id := idKey(block.ID)
		if v.byID[id] != block {
			continue
		}

		if block.TypeGUID == folderGUID {
			key, ok := v.folderKeys[id]
			if !ok {
				continue
			}
			if items, ok := block.Section(raw.SectionSolutionItems); ok {
				for _, pair := range items.Pairs() {
					path := solution.NormalizePath(pair.Key)
					if path == "" {
						continue
					}
					v.files[v.key(path)] = fileEntry{path: path, folder: key}
				}
			}
			continue
		}

		path := solution.NormalizePath(block.Path)
		pk := v.key(path)
		if _, dup := v.projects[pk]; dup {
			v.issues = append(v.issues, solution.Warningf("project %s is declared more than once", path))
			continue
		}
		v.projects[pk] = block
		v.projectPaths[id] = path
	}
}

// resolveFolderKey walks the parents of a folder block; it fails on cycles.
func (v *view) resolveFolderKey(id string) (string, bool) {
	var names []string
	seen := make(map[string]bool)
	for current := id; current != ""; current = v.parents[current] {
		if seen[current] {
			return "", false
		}
		seen[current] = true
		names = append([]string{v.byID[current].Name}, names...)
	}
	return folderKey(names), true
}

func (v *view) readMatrix(doc *raw.Document) {
	if section, ok := doc.GlobalSection(raw.SectionSolutionConfigurationPlatforms); ok {
		for _, pair := range section.Pairs() {
			v.matrix = append(v.matrix, pair.Key)
		}
	}

	section, ok := doc.GlobalSection(raw.SectionProjectConfigurationPlatforms)
	if !ok {
		return
	}
	for _, pair := range section.Pairs() {
		id, cp, suffix, ok := parseContextKey(pair.Key)
		if !ok {
			continue
		}
		id = idKey(id)
		if _, known := v.byID[id]; !known {
			v.issues = append(v.issues, solution.Errorf("ProjectConfigurationPlatforms references unknown project %s", id))
			continue
		}

		contexts, ok := v.contexts[id]
		if !ok {
			contexts = make(map[string]*contextEntry)
			v.contexts[id] = contexts
		}
		entry, ok := contexts[cp]
		if !ok {
			entry = &contextEntry{}
			contexts[cp] = entry
		}
		switch suffix {
		case suffixActiveCfg:
			entry.active = pair.Value
		case suffixBuild:
			entry.build = true
		case suffixDeploy:
			entry.deploy = true
		}
	}
}

func (v *view) readShared(doc *raw.Document) {
	section, ok := doc.GlobalSection(raw.SectionSharedMSBuildProjectFiles)
	if !ok {
		return
	}
	for _, pair := range section.Pairs() {
		path, id, ok := parseSharedKey(pair.Key)
		if !ok {
			v.issues = append(v.issues, solution.Warningf("SharedMSBuildProjectFiles has a malformed entry %q", pair.Key))
			continue
		}
		id = idKey(id)
		if _, known := v.byID[id]; !known {
			v.issues = append(v.issues, solution.Errorf("SharedMSBuildProjectFiles references unknown project %s", id))
			continue
		}
		v.shared[id] = append(v.shared[id], sharedEntry{path: path, code: pair.Value})
	}
}

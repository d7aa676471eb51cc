package convert

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/willibrandon/gosln/observability"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

// rootFolderName names the solution root in change targets.
const rootFolderName = "<root>"

// Generate writes s into a new document.
func (c *Converter) Generate(s *solution.Solution) (*raw.Document, solution.Issues) {
	doc := raw.NewDocument()
	u := c.newUpdater(doc, s)
	u.apply()
	return doc, u.issues
}

// Update patches doc in place so that it describes target, keeping the
// GUIDs of projects and folders that are still present. It returns the
// sorted semantic changes and the problems found in doc.
func (c *Converter) Update(ctx context.Context, doc *raw.Document, target *solution.Solution) ([]solution.Change, solution.Issues) {
	ctx, span := observability.StartSolutionUpdateSpan(ctx, filepath.Join(target.OutputDirectory, target.Name+".sln"))
	defer span.End()

	u := c.newUpdater(doc, target)
	u.apply()
	solution.SortChanges(u.changes)

	for _, change := range u.changes {
		observability.SolutionChangesTotal.WithLabelValues(change.Type.String(), change.ObjectType.String()).Inc()
		c.logger.DebugContext(ctx, "{Change}", change.String())
	}
	for _, issue := range u.issues {
		observability.BuildIssuesTotal.WithLabelValues(issue.Level.String()).Inc()
	}
	observability.RecordResult(ctx, len(u.changes), len(u.issues))
	c.logger.InfoContext(ctx, "Solution {Name} updated with {ChangeCount} changes", target.Name, len(u.changes))
	return u.changes, u.issues
}

type updater struct {
	c      *Converter
	doc    *raw.Document
	target *solution.Solution
	old    *view

	changes []solution.Change
	issues  solution.Issues

	// folderOrder and folderBlocks hold the target folders by key
	folderOrder  []string
	folderBlocks map[string]*raw.Project

	// projectOrder and projectBlocks hold the target projects by path
	projectOrder  []string
	projectBlocks map[string]*raw.Project
	projectFolder map[string]string
	projects      map[string]*solution.Project

	// matched holds the IDs of project blocks already present in the document
	matched map[string]bool
}

func (c *Converter) newUpdater(doc *raw.Document, target *solution.Solution) *updater {
	old := newView(doc, target.CaseSensitive())
	return &updater{
		c:             c,
		doc:           doc,
		target:        target,
		old:           old,
		issues:        append(solution.Issues(nil), old.issues...),
		folderBlocks:  make(map[string]*raw.Project),
		projectBlocks: make(map[string]*raw.Project),
		projectFolder: make(map[string]string),
		projects:      make(map[string]*solution.Project),
		matched:       make(map[string]bool),
	}
}

func (u *updater) change(changeType solution.ChangeType, objectType solution.ObjectType, name string) {
	u.changes = append(u.changes, solution.NewChange(changeType, objectType, name))
}

func (u *updater) targeted(changeType solution.ChangeType, objectType solution.ObjectType, name string, targetType solution.ObjectType, targetName string) {
	u.changes = append(u.changes, solution.NewTargetedChange(changeType, objectType, name, targetType, targetName))
}

func (u *updater) apply() {
	u.updateFolders()
	u.updateProjects()
	u.updateNesting()
	u.updateFiles()
	u.updateMatrix()
	u.updateContexts()
	u.updateShared()
	u.updateProperties()
}

func displayFolder(key string) string {
	if key == "" {
		return rootFolderName
	}
	return key
}

func (u *updater) updateFolders() {
	// a root folder named like the root items block shares it
	if len(u.target.Root.Files()) > 0 {
		u.folderOrder = append(u.folderOrder, RootItemsFolder)
	}
	u.target.Root.Walk(func(f *solution.Folder) {
		if f.Parent() == nil {
			return
		}
		key := folderKey(f.Path())
		if key == RootItemsFolder && len(u.target.Root.Files()) > 0 {
			return
		}
		u.folderOrder = append(u.folderOrder, key)
	})

	folderGUID := solution.ProjectTypeFolder.GUID()
	for _, key := range u.folderOrder {
		if block, ok := u.old.folders[key]; ok {
			u.folderBlocks[key] = block
			continue
		}
		name := folderName(key)
		block := raw.NewProject(folderGUID, name, name, u.c.newGUID())
		u.doc.AddProject(block)
		u.folderBlocks[key] = block
		u.change(solution.ChangeAdd, solution.ObjectFolder, key)
	}

	for key, block := range u.old.folders {
		if _, ok := u.folderBlocks[key]; ok {
			continue
		}
		u.doc.RemoveProject(block.ID)
		u.change(solution.ChangeRemove, solution.ObjectFolder, key)
	}
}

func (u *updater) updateProjects() {
	u.target.Root.Walk(func(f *solution.Folder) {
		key := folderKey(f.Path())
		for _, path := range f.ProjectPaths() {
			p, _ := f.Project(path)
			u.projectOrder = append(u.projectOrder, path)
			u.projectFolder[path] = key
			u.projects[path] = p
		}
	})

	for _, path := range u.projectOrder {
		p := u.projects[path]
		folder := u.projectFolder[path]
		typeID := p.TypeID()

		block, ok := u.old.projects[u.old.key(path)]
		if !ok {
			block = raw.NewProject(typeID, solution.FileNameWithoutExtension(path), solution.ToSolutionPath(path), u.c.newGUID())
			u.doc.AddProject(block)
			u.projectBlocks[path] = block
			u.change(solution.ChangeAdd, solution.ObjectProject, path)
			continue
		}

		id := idKey(block.ID)
		u.matched[id] = true
		u.projectBlocks[path] = block

		if previous := u.old.folderKeyOf(id); previous != folder {
			u.targeted(solution.ChangeMove, solution.ObjectProject, path, solution.ObjectFolder, displayFolder(folder))
		}
		edited := false
		if typeID != uuid.Nil && block.TypeGUID != typeID {
			block.TypeGUID = typeID
			edited = true
		}
		if solution.NormalizePath(block.Path) != path {
			block.Path = solution.ToSolutionPath(path)
			block.Name = solution.FileNameWithoutExtension(path)
			edited = true
		}
		if edited {
			u.change(solution.ChangeEdit, solution.ObjectProject, path)
		}
	}

	for _, block := range u.old.projects {
		id := idKey(block.ID)
		if u.matched[id] {
			continue
		}
		u.doc.RemoveProject(block.ID)
		u.change(solution.ChangeRemove, solution.ObjectProject, u.old.projectPaths[id])
	}
}

// syncSection rewrites section to hold exactly the wanted pairs. Pairs
// already present keep their position, missing ones are appended in order.
// canonical maps a pair key to its identity; an empty identity keeps the
// pair as is.
func syncSection(section *raw.Section, keys []string, values map[string]string, canonical func(key string) string) {
	wantKey := make(map[string]string, len(keys))
	for _, k := range keys {
		wantKey[canonical(k)] = k
	}

	seen := make(map[string]bool)
	section.RemoveWhere(func(p raw.Pair) bool {
		id := canonical(p.Key)
		if id == "" {
			return false
		}
		if _, want := wantKey[id]; !want || seen[id] {
			return true
		}
		seen[id] = true
		return false
	})

	for _, p := range append([]raw.Pair(nil), section.Pairs()...) {
		id := canonical(p.Key)
		if id == "" {
			continue
		}
		if value := values[wantKey[id]]; p.Value != value {
			section.Set(p.Key, value)
		}
	}

	for _, k := range keys {
		if !seen[canonical(k)] {
			section.Add(k, values[k])
		}
	}
}

// syncGlobalSection applies syncSection to a global section, creating it
// when pairs are wanted and removing it when none are.
func (u *updater) syncGlobalSection(name, order string, keys []string, values map[string]string, canonical func(string) string) {
	if len(keys) == 0 {
		if section, ok := u.doc.GlobalSection(name); ok {
			section.RemoveWhere(func(p raw.Pair) bool { return canonical(p.Key) != "" })
			if section.Len() == 0 {
				u.doc.RemoveGlobalSection(name)
			}
		}
		return
	}
	syncSection(ensureGlobalSection(u.doc, name, order), keys, values, canonical)
}

func (u *updater) updateNesting() {
	var keys []string
	values := make(map[string]string)
	nest := func(child, parent *raw.Project) {
		keys = append(keys, child.ID)
		values[child.ID] = parent.ID
	}

	for _, key := range u.folderOrder {
		if parent := parentKey(key); parent != "" {
			nest(u.folderBlocks[key], u.folderBlocks[parent])
		}
	}
	for _, path := range u.projectOrder {
		if folder := u.projectFolder[path]; folder != "" {
			nest(u.projectBlocks[path], u.folderBlocks[folder])
		}
	}

	u.syncGlobalSection(raw.SectionNestedProjects, raw.OrderPreSolution, keys, values, idKey)
}

func (u *updater) updateFiles() {
	type placement struct {
		path   string
		folder string
	}
	var wanted []placement
	u.target.Root.Walk(func(f *solution.Folder) {
		folder := folderKey(f.Path())
		if f.Parent() == nil {
			folder = RootItemsFolder
		}
		for _, path := range f.Files() {
			wanted = append(wanted, placement{path: path, folder: folder})
		}
	})

	byFolder := make(map[string][]string)
	wantedKeys := make(map[string]bool)
	for _, w := range wanted {
		key := u.old.key(w.path)
		wantedKeys[key] = true
		byFolder[w.folder] = append(byFolder[w.folder], w.path)

		previous, ok := u.old.files[key]
		switch {
		case !ok:
			u.change(solution.ChangeAdd, solution.ObjectFile, w.path)
		case previous.folder != w.folder:
			u.targeted(solution.ChangeMove, solution.ObjectFile, w.path, solution.ObjectFolder, w.folder)
		}
	}
	for key, previous := range u.old.files {
		if !wantedKeys[key] {
			u.change(solution.ChangeRemove, solution.ObjectFile, previous.path)
		}
	}

	canonical := func(k string) string { return u.old.key(solution.NormalizePath(k)) }
	for _, key := range u.folderOrder {
		block := u.folderBlocks[key]
		files := byFolder[key]
		sort.Strings(files)

		if len(files) == 0 {
			block.RemoveSection(raw.SectionSolutionItems)
			continue
		}
		keys := make([]string, len(files))
		values := make(map[string]string, len(files))
		for i, f := range files {
			keys[i] = solution.ToSolutionPath(f)
			values[keys[i]] = keys[i]
		}
		syncSection(block.GetOrAddSection(raw.SectionSolutionItems, raw.OrderPreProject), keys, values, canonical)
	}
}

func (u *updater) updateMatrix() {
	oldMatrix := make(map[string]bool, len(u.old.matrix))
	for _, name := range u.old.matrix {
		oldMatrix[name] = true
	}

	var keys []string
	values := make(map[string]string)
	for _, cp := range u.target.ConfigurationPlatforms() {
		name := cp.FullName()
		keys = append(keys, name)
		values[name] = name
		if !oldMatrix[name] {
			u.change(solution.ChangeAdd, solution.ObjectConfigurationPlatform, name)
		}
		delete(oldMatrix, name)
	}
	for name := range oldMatrix {
		u.change(solution.ChangeRemove, solution.ObjectConfigurationPlatform, name)
	}

	u.syncGlobalSection(raw.SectionSolutionConfigurationPlatforms, raw.OrderPreSolution, keys, values, func(k string) string { return k })
}

func (u *updater) updateContexts() {
	oldMatrix := make(map[string]bool, len(u.old.matrix))
	for _, name := range u.old.matrix {
		oldMatrix[name] = true
	}

	var keys []string
	values := make(map[string]string)
	add := func(block *raw.Project, cp, suffix, value string) {
		key := block.ID + "." + cp + "." + suffix
		keys = append(keys, key)
		values[key] = value
	}

	for _, path := range u.projectOrder {
		block := u.projectBlocks[path]
		id := idKey(block.ID)
		for _, cp := range u.target.ConfigurationPlatforms() {
			name := cp.FullName()
			ctx, ok := cp.Context(path)
			if ok {
				active := ctx.FullName()
				add(block, name, suffixActiveCfg, active)
				if ctx.Build {
					add(block, name, suffixBuild, active)
				}
				if ctx.Deploy {
					add(block, name, suffixDeploy, active)
				}
			}

			if !u.matched[id] || !oldMatrix[name] {
				continue
			}
			previous := u.old.contexts[id][name]
			switch {
			case !ok && previous != nil && previous.active != "":
				u.targeted(solution.ChangeRemove, solution.ObjectProjectContext, path, solution.ObjectConfigurationPlatform, name)
			case !ok:
			case previous == nil || previous.active == "":
				u.targeted(solution.ChangeAdd, solution.ObjectProjectContext, path, solution.ObjectConfigurationPlatform, name)
			case previous.active != ctx.FullName():
				u.targeted(solution.ChangeMove, solution.ObjectProjectContext, path+" ("+name+")", solution.ObjectProjectContext, ctx.FullName())
			case previous.build != ctx.Build || previous.deploy != ctx.Deploy:
				u.targeted(solution.ChangeEdit, solution.ObjectProjectContext, path, solution.ObjectConfigurationPlatform, name)
			}
		}
	}

	kept := u.keptProjectIDs()
	canonical := func(k string) string {
		id, cp, suffix, ok := parseContextKey(k)
		if !ok {
			// unknown suffixes stay while their project does
			prefix, _, _ := cutDot(k)
			if kept[idKey(prefix)] {
				return ""
			}
			return "\x00" + k
		}
		return idKey(id) + "." + cp + "." + suffix
	}
	u.syncGlobalSection(raw.SectionProjectConfigurationPlatforms, raw.OrderPostSolution, keys, values, canonical)
}

func (u *updater) keptProjectIDs() map[string]bool {
	kept := make(map[string]bool, len(u.projectBlocks))
	for _, block := range u.projectBlocks {
		kept[idKey(block.ID)] = true
	}
	return kept
}

func cutDot(key string) (before, after string, found bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}

func (u *updater) updateShared() {
	var keys []string
	values := make(map[string]string)

	for _, path := range u.projectOrder {
		p := u.projects[path]
		block := u.projectBlocks[path]
		id := idKey(block.ID)
		code := sharedImportCode(path)

		wanted := make(map[string]string)
		for _, imp := range p.SharedImports {
			if !supportedSharedImport(imp) {
				u.issues = append(u.issues, solution.Warningf("project %s imports unsupported shared items %s", path, imp))
				continue
			}
			key := sharedKey(imp, block.ID)
			if _, dup := values[key]; dup {
				continue
			}
			keys = append(keys, key)
			values[key] = code
			wanted[u.old.key(imp)] = imp
		}

		if !u.matched[id] {
			continue
		}
		previous := make(map[string]sharedEntry)
		for _, entry := range u.old.shared[id] {
			previous[u.old.key(entry.path)] = entry
		}
		for key, imp := range wanted {
			entry, ok := previous[key]
			switch {
			case !ok:
				u.targeted(solution.ChangeAdd, solution.ObjectSharedProject, imp, solution.ObjectProject, path)
			case entry.code != code:
				u.targeted(solution.ChangeEdit, solution.ObjectSharedProject, imp, solution.ObjectProject, path)
			}
		}
		for key, entry := range previous {
			if _, ok := wanted[key]; !ok {
				u.targeted(solution.ChangeRemove, solution.ObjectSharedProject, entry.path, solution.ObjectProject, path)
			}
		}
	}

	canonical := func(k string) string {
		path, id, ok := parseSharedKey(k)
		if !ok {
			return ""
		}
		return u.old.key(path) + "*" + idKey(id)
	}
	u.syncGlobalSection(raw.SectionSharedMSBuildProjectFiles, raw.OrderPreSolution, keys, values, canonical)
}

func (u *updater) updateProperties() {
	properties := ensureGlobalSection(u.doc, raw.SectionSolutionProperties, raw.OrderPreSolution)
	if _, ok := properties.Get("HideSolutionNode"); !ok {
		properties.Add("HideSolutionNode", "FALSE")
	}

	globals := ensureGlobalSection(u.doc, raw.SectionExtensibilityGlobals, raw.OrderPostSolution)
	if _, ok := globals.Get("SolutionGuid"); !ok {
		globals.Add("SolutionGuid", raw.FormatGUID(u.c.newGUID()))
	}
}

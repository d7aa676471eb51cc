package convert

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

// Ingest rebuilds a solution model from doc, the content of the solution
// file at solutionPath. Problems in the document are returned as issues and
// the offending entries skipped. With a project reader, project metadata is
// read from the project files; projects that cannot be read fall back to
// what the document records, with a warning.
func (c *Converter) Ingest(ctx context.Context, doc *raw.Document, solutionPath string, caseSensitive bool) (*solution.Solution, solution.Issues, error) {
	dir := filepath.Dir(solutionPath)
	name := solution.FileNameWithoutExtension(solutionPath)
	v := newView(doc, caseSensitive)
	issues := append(solution.Issues(nil), v.issues...)
	s := solution.New(dir, name, caseSensitive)

	keys := make([]string, 0, len(v.folders))
	for key := range v.folders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key != RootItemsFolder {
			s.Root.GetOrAddFolderPath(strings.Split(key, "/")...)
		}
	}

	fileKeys := make([]string, 0, len(v.files))
	for key := range v.files {
		fileKeys = append(fileKeys, key)
	}
	sort.Strings(fileKeys)
	for _, key := range fileKeys {
		entry := v.files[key]
		folder := s.Root
		if entry.folder != RootItemsFolder {
			folder = s.Root.GetOrAddFolderPath(strings.Split(entry.folder, "/")...)
		}
		folder.AddFile(entry.path, false)
	}

	for _, block := range doc.Projects {
		id := idKey(block.ID)
		path, ok := v.projectPaths[id]
		if !ok || v.byID[id] != block {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, issues, err
		}

		p, issue := c.ingestProject(ctx, v, block, dir, path)
		if issue != nil {
			issues = append(issues, *issue)
		}

		folder := s.Root
		if key := v.folderKeyOf(id); key != "" {
			folder = s.Root.GetOrAddFolderPath(strings.Split(key, "/")...)
		}
		if !folder.AddProject(path, p, false) {
			issues = append(issues, solution.Warningf("project %s is declared more than once", path))
		}
	}

	for _, name := range v.matrix {
		configuration, platform := splitConfigurationPlatform(name)
		cp := solution.NewConfigurationPlatform(configuration, platform, nil, nil)
		for id, path := range v.projectPaths {
			entry := v.contexts[id][name]
			if entry == nil || entry.active == "" || !s.Contains(path) {
				continue
			}
			projectConfiguration, projectPlatform := splitConfigurationPlatform(entry.active)
			cp.SetContext(path, &solution.ProjectContext{
				ConfigurationName: projectConfiguration,
				PlatformName:      projectPlatform,
				Build:             entry.build,
				Deploy:            entry.deploy,
			})
		}
		s.AddConfigurationPlatform(cp)
	}

	c.logger.DebugContext(ctx, "Ingested solution {Path}: {ProjectCount} projects, {IssueCount} issues",
		solutionPath, len(v.projectPaths), len(issues))
	return s, issues, nil
}

func (c *Converter) ingestProject(ctx context.Context, v *view, block *raw.Project, dir, path string) (*solution.Project, *solution.Issue) {
	if c.reader != nil {
		m, err := c.reader.Read(ctx, solution.AbsolutePath(dir, path))
		if err == nil {
			return m.SolutionProject(dir), nil
		}
		issue := solution.Warningf("project %s could not be read, using the solution file data: %v", path, err)
		return recordedProject(v, block), &issue
	}
	return recordedProject(v, block), nil
}

// recordedProject derives project metadata from the document alone.
func recordedProject(v *view, block *raw.Project) *solution.Project {
	id := idKey(block.ID)
	t := solution.ProjectTypeFromGUID(block.TypeGUID)
	p := &solution.Project{
		Type:     t,
		TypeGUID: block.TypeGUID,
		CanBuild: t != solution.ProjectTypeShared,
	}

	for _, name := range v.matrix {
		entry := v.contexts[id][name]
		if entry == nil || entry.active == "" {
			continue
		}
		configuration, platform := splitConfigurationPlatform(entry.active)
		p.Configurations = appendUnique(p.Configurations, configuration)
		if platform != "" {
			p.Platforms = appendUnique(p.Platforms, platform)
		}
		if entry.deploy {
			p.CanDeploy = true
		}
	}

	for _, entry := range v.shared[id] {
		p.SharedImports = append(p.SharedImports, entry.path)
	}
	return p
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

package solution

import (
	"sort"
	"strings"
	"unicode"
)

// ProjectContext is a project's resolved build context under one
// configuration-platform.
type ProjectContext struct {
	// ConfigurationName is the project-side configuration
	ConfigurationName string

	// PlatformName is the project-side platform, empty when the project
	// declares none
	PlatformName string

	Build  bool
	Deploy bool
}

// FullName returns "Configuration|Platform", or the configuration alone when
// the context has no platform.
func (c *ProjectContext) FullName() string {
	if c.PlatformName == "" {
		return c.ConfigurationName
	}
	return c.ConfigurationName + "|" + c.PlatformName
}

// ConfigurationPlatform is one entry of the solution build matrix.
type ConfigurationPlatform struct {
	ConfigurationName string
	PlatformName      string

	// ConfigurationMatches are the fragments searched in project configuration names
	ConfigurationMatches []string

	// PlatformMatches are the fragments searched in project platform names
	PlatformMatches []string

	contexts map[string]*ProjectContext
}

// NewConfigurationPlatform creates a matrix entry. Empty match lists default
// to the entry's own name with whitespace removed, so "Any CPU" matches the
// project platform "AnyCPU".
func NewConfigurationPlatform(configuration, platform string, configurationMatches, platformMatches []string) *ConfigurationPlatform {
	if len(configurationMatches) == 0 {
		configurationMatches = []string{stripSpaces(configuration)}
	}
	if len(platformMatches) == 0 {
		platformMatches = []string{stripSpaces(platform)}
	}
	return &ConfigurationPlatform{
		ConfigurationName:    configuration,
		PlatformName:         platform,
		ConfigurationMatches: configurationMatches,
		PlatformMatches:      platformMatches,
		contexts:             make(map[string]*ProjectContext),
	}
}

// FullName returns "Configuration|Platform".
func (cp *ConfigurationPlatform) FullName() string {
	return cp.ConfigurationName + "|" + cp.PlatformName
}

// Context returns the context of the project at path.
func (cp *ConfigurationPlatform) Context(path string) (*ProjectContext, bool) {
	ctx, ok := cp.contexts[path]
	return ctx, ok
}

// SetContext sets the context of the project at path explicitly.
func (cp *ConfigurationPlatform) SetContext(path string, ctx *ProjectContext) {
	cp.contexts[path] = ctx
}

// RemoveContext drops the context of the project at path.
func (cp *ConfigurationPlatform) RemoveContext(path string) {
	delete(cp.contexts, path)
}

// ProjectPaths returns the paths having a context, sorted.
func (cp *ConfigurationPlatform) ProjectPaths() []string {
	paths := make([]string, 0, len(cp.contexts))
	for path := range cp.contexts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// AddProject resolves and stores the context of project. Projects without
// any configuration get no context.
func (cp *ConfigurationPlatform) AddProject(path string, project *Project) {
	ctx := ResolveContext(project, cp.ConfigurationMatches, cp.PlatformMatches)
	if ctx == nil {
		return
	}
	cp.contexts[path] = ctx
}

// ResolveContext binds a project to a configuration-platform by matching its
// configuration and platform names against the given fragments.
//
// The first fragment found in a project name wins, in fragment order then
// project name order. Comparison ignores case and whitespace, so "Any CPU"
// and "AnyCPU" are the same platform. Without a match the project's
// first name is used and the context is not a complete match: build and
// deploy are forced off unless the project always deploys.
func ResolveContext(project *Project, configurationMatches, platformMatches []string) *ProjectContext {
	if len(project.Configurations) == 0 {
		return nil
	}

	configuration, configurationFound := firstMatch(project.Configurations, configurationMatches)

	platform, platformFound := "", true
	switch {
	case len(project.Platforms) == 0:
	case project.NoPlatform:
		platform = project.Platforms[0]
	default:
		platform, platformFound = firstMatch(project.Platforms, platformMatches)
	}

	complete := configurationFound && platformFound
	return &ProjectContext{
		ConfigurationName: configuration,
		PlatformName:      platform,
		Build:             project.CanBuild && complete,
		Deploy:            project.AlwaysDeploy || (project.CanDeploy && complete),
	}
}

func firstMatch(names, fragments []string) (string, bool) {
	for _, fragment := range fragments {
		fragment = strings.ToLower(stripSpaces(fragment))
		for _, name := range names {
			if strings.Contains(strings.ToLower(stripSpaces(name)), fragment) {
				return name, true
			}
		}
	}
	return names[0], false
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func (cp *ConfigurationPlatform) reRoot(oldDir, newDir string) {
	contexts := make(map[string]*ProjectContext, len(cp.contexts))
	for path, ctx := range cp.contexts {
		contexts[ReRoot(path, oldDir, newDir)] = ctx
	}
	cp.contexts = contexts
}

package project

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/solution"
)

// Default names assumed when a project file declares none.
var (
	DefaultConfigurations = []string{"Debug", "Release"}
	DefaultPlatforms      = []string{"Any CPU"}
)

// conditionPattern extracts both sides of '$(Configuration)|$(Platform)' == 'Debug|AnyCPU'.
var conditionPattern = regexp.MustCompile(`'([^']*)'\s*==\s*'([^']*)'`)

// XMLReader reads MSBuild project files with encoding/xml. Properties are
// taken as declared; no MSBuild evaluation takes place.
type XMLReader struct {
	fs fsys.FileSystem
}

// NewXMLReader creates a reader over fs.
func NewXMLReader(fs fsys.FileSystem) *XMLReader {
	return &XMLReader{fs: fs}
}

// Read implements Reader.
func (r *XMLReader) Read(ctx context.Context, path string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	var root RootElement
	if err := xml.Unmarshal(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), &root); err != nil {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("failed to parse project XML: %w", err)}
	}

	return Parse(path, &root), nil
}

// Parse derives metadata from a parsed project file located at path.
func Parse(path string, root *RootElement) *Metadata {
	dir := filepath.Dir(path)
	m := &Metadata{
		Path: path,
		Type: projectType(path, root),
	}

	switch m.Type {
	case solution.ProjectTypeShared:
		// shared projects are never built on their own
	case solution.ProjectTypeCpp:
		m.Configurations, m.Platforms = cppConfigurations(root)
		m.CanBuild = true
	default:
		if root.IsSDKStyle() {
			m.Configurations, m.Platforms = sdkConfigurations(root)
		} else {
			m.Configurations, m.Platforms = legacyConfigurations(root)
		}
		m.Platforms = dotnetPlatforms(m.Platforms)
		m.CanBuild = true
	}

	switch m.Type {
	case solution.ProjectTypeWAP:
		m.CanDeploy = true
		m.AlwaysDeploy = true
	case solution.ProjectTypeSQL:
		m.CanDeploy = true
	case solution.ProjectTypePython, solution.ProjectTypeNodeJS:
		m.NoPlatform = true
	}

	for _, ig := range root.ItemGroups {
		for _, ref := range ig.ProjectReferences {
			if ref.Include == "" {
				continue
			}
			m.Dependencies = appendUnique(m.Dependencies, resolve(dir, ref.Include))
		}
	}

	for _, imp := range root.AllImports() {
		if strings.EqualFold(imp.Label, "Shared") && imp.Project != "" {
			m.SharedImports = appendUnique(m.SharedImports, resolve(dir, imp.Project))
		}
	}
	return m
}

func projectType(path string, root *RootElement) solution.ProjectType {
	t := solution.ProjectTypeFromPath(path)
	if root.IsSDKStyle() {
		return t
	}
	switch t {
	case solution.ProjectTypeCSharpSDK:
		return solution.ProjectTypeCSharp
	case solution.ProjectTypeVisualBasicSDK:
		return solution.ProjectTypeVisualBasic
	case solution.ProjectTypeFSharpSDK:
		return solution.ProjectTypeFSharp
	}
	return t
}

func sdkConfigurations(root *RootElement) ([]string, []string) {
	var configurations, platforms []string
	for _, pg := range root.PropertyGroups {
		if pg.Condition != "" {
			continue
		}
		if pg.Configurations != "" {
			configurations = splitList(pg.Configurations)
		}
		if pg.Platforms != "" {
			platforms = splitList(pg.Platforms)
		}
	}
	if len(configurations) == 0 {
		configurations = DefaultConfigurations
	}
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return append([]string(nil), configurations...), append([]string(nil), platforms...)
}

// legacyConfigurations collects the names used in property group conditions.
func legacyConfigurations(root *RootElement) ([]string, []string) {
	var configurations, platforms []string
	for _, pg := range root.PropertyGroups {
		configuration, platform := parseCondition(pg.Condition)
		if configuration != "" {
			configurations = appendUnique(configurations, configuration)
		}
		if platform != "" {
			platforms = appendUnique(platforms, platform)
		}
	}

	if len(configurations) == 0 {
		for _, pg := range root.PropertyGroups {
			if pg.Configuration != "" {
				configurations = appendUnique(configurations, pg.Configuration)
			}
			if pg.Platform != "" {
				platforms = appendUnique(platforms, pg.Platform)
			}
		}
	}

	if len(configurations) == 0 {
		configurations = append([]string(nil), DefaultConfigurations...)
	}
	if len(platforms) == 0 {
		platforms = append([]string(nil), DefaultPlatforms...)
	}
	return configurations, platforms
}

func cppConfigurations(root *RootElement) ([]string, []string) {
	var configurations, platforms []string
	for _, ig := range root.ItemGroups {
		for _, pc := range ig.ProjectConfigurations {
			configuration, platform := pc.Configuration, pc.Platform
			if configuration == "" || platform == "" {
				configuration, platform, _ = strings.Cut(pc.Include, "|")
			}
			if configuration != "" {
				configurations = appendUnique(configurations, configuration)
			}
			if platform != "" {
				platforms = appendUnique(platforms, platform)
			}
		}
	}
	if len(configurations) == 0 {
		return legacyConfigurations(root)
	}
	return configurations, platforms
}

// parseCondition reads a '$(Configuration)|$(Platform)' == 'Debug|AnyCPU' condition.
func parseCondition(condition string) (configuration, platform string) {
	match := conditionPattern.FindStringSubmatch(condition)
	if match == nil {
		return "", ""
	}

	keys := strings.Split(match[1], "|")
	values := strings.Split(match[2], "|")
	for i, key := range keys {
		if i >= len(values) {
			break
		}
		switch strings.TrimSpace(key) {
		case "$(Configuration)":
			configuration = strings.TrimSpace(values[i])
		case "$(Platform)":
			platform = strings.TrimSpace(values[i])
		}
	}
	return configuration, platform
}

// dotnetPlatforms spells AnyCPU the way solution files do.
func dotnetPlatforms(platforms []string) []string {
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if strings.EqualFold(p, "AnyCPU") {
			p = "Any CPU"
		}
		out = appendUnique(out, p)
	}
	return out
}

func resolve(dir, include string) string {
	for _, macro := range []string{"$(MSBuildThisFileDirectory)", "$(MSBuildProjectDirectory)"} {
		include = strings.TrimPrefix(include, macro)
	}
	include = strings.TrimLeft(strings.ReplaceAll(include, "\\", "/"), "/")
	return filepath.Clean(filepath.Join(dir, filepath.FromSlash(include)))
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			items = appendUnique(items, item)
		}
	}
	return items
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

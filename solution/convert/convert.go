// Package convert maps a solution model to the raw .sln document and back.
//
// Generate writes a model into a fresh document, Ingest rebuilds a model
// from a document, and Update patches an existing document in place so that
// it describes a target model, reporting every semantic change. Generate is
// an Update of an empty document, so a generated document updated with the
// same model reports no change.
package convert

import (
	"strings"

	"github.com/google/uuid"

	"github.com/willibrandon/gosln/observability"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

// RootItemsFolder is the folder block holding the files of the solution root.
const RootItemsFolder = "Solution Items"

// ProjectConfigurationPlatforms key suffixes.
const (
	suffixActiveCfg = "ActiveCfg"
	suffixBuild     = "Build.0"
	suffixDeploy    = "Deploy.0"
)

const sharedItemsImports = "SharedItemsImports"

// Canonical order of the global sections written for new documents.
var globalSectionOrder = []string{
	raw.SectionSharedMSBuildProjectFiles,
	raw.SectionSolutionConfigurationPlatforms,
	raw.SectionProjectConfigurationPlatforms,
	raw.SectionSolutionProperties,
	raw.SectionNestedProjects,
	raw.SectionExtensibilityGlobals,
}

// Converter converts between solution models and raw documents.
type Converter struct {
	newGUID func() uuid.UUID
	reader  project.Reader
	logger  observability.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithGUIDGenerator sets the function minting project and folder GUIDs.
func WithGUIDGenerator(gen func() uuid.UUID) Option {
	return func(c *Converter) {
		c.newGUID = gen
	}
}

// WithProjectReader sets the reader Ingest uses to load live project
// metadata. Without one, ingested projects carry what the document says.
func WithProjectReader(reader project.Reader) Option {
	return func(c *Converter) {
		c.reader = reader
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// New creates a converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		newGUID: uuid.New,
		logger:  observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SequentialGUIDs returns a generator minting 00000000-0000-0000-0000-000000000001,
// then ...0002, and so on. Output generated with it is stable.
func SequentialGUIDs() func() uuid.UUID {
	var n uint64
	return func() uuid.UUID {
		n++
		var id uuid.UUID
		for i := 0; i < 8; i++ {
			id[15-i] = byte(n >> (8 * i))
		}
		return id
	}
}

// folderKey identifies a folder by its names from the root.
func folderKey(names []string) string {
	return strings.Join(names, "/")
}

func folderName(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func parentKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return ""
}

func idKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// sharedImportCode is the SharedItemsImports value for project.
func sharedImportCode(path string) string {
	switch solution.ProjectTypeFromPath(path) {
	case solution.ProjectTypeShared:
		return "13"
	case solution.ProjectTypeCpp:
		return "9"
	}
	return "4"
}

func supportedSharedImport(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".projitems") || strings.HasSuffix(lower, ".vcxitems")
}

// parseContextKey splits "{ID}.Configuration|Platform.Suffix".
func parseContextKey(key string) (id, configurationPlatform, suffix string, ok bool) {
	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return "", "", "", false
	}
	rest := key[dot+1:]
	for _, s := range []string{suffixActiveCfg, suffixBuild, suffixDeploy} {
		if strings.HasSuffix(rest, "."+s) {
			return key[:dot], strings.TrimSuffix(rest, "."+s), s, true
		}
	}
	return "", "", "", false
}

// parseSharedKey splits "path*{ID}*SharedItemsImports".
func parseSharedKey(key string) (path, id string, ok bool) {
	parts := strings.Split(key, "*")
	if len(parts) != 3 || parts[2] != sharedItemsImports {
		return "", "", false
	}
	return solution.NormalizePath(parts[0]), parts[1], true
}

func sharedKey(path, id string) string {
	return solution.ToSolutionPath(path) + "*" + id + "*" + sharedItemsImports
}

func splitConfigurationPlatform(name string) (configuration, platform string) {
	configuration, platform, _ = strings.Cut(name, "|")
	return configuration, platform
}

// ensureGlobalSection returns the section called name, inserting it at its
// canonical position when missing.
func ensureGlobalSection(doc *raw.Document, name, order string) *raw.Section {
	if s, ok := doc.GlobalSection(name); ok {
		return s
	}
	s := doc.GetOrAddGlobalSection(name, order)
	rank := sectionRank(name)
	sections := doc.GlobalSections[:len(doc.GlobalSections)-1]
	at := len(sections)
	for i, other := range sections {
		if sectionRank(other.Name) > rank {
			at = i
			break
		}
	}
	doc.GlobalSections = append(sections[:at], append([]*raw.Section{s}, sections[at:]...)...)
	return s
}

func sectionRank(name string) int {
	for i, n := range globalSectionOrder {
		if n == name {
			return i
		}
	}
	return len(globalSectionOrder)
}

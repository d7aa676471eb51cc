// Package raw reads and writes the Visual Studio solution (.sln) text format.
//
// A Document mirrors the file structure, block by block and line by line, so
// that a document read and written back without modification reproduces the
// original text. The semantic view of a solution lives in package solution;
// package convert bridges the two.
package raw

import (
	"strings"

	"github.com/google/uuid"
)

// Well-known section names and orders.
const (
	SectionSolutionItems                  = "SolutionItems"
	SectionProjectDependencies            = "ProjectDependencies"
	SectionSharedMSBuildProjectFiles      = "SharedMSBuildProjectFiles"
	SectionSolutionConfigurationPlatforms = "SolutionConfigurationPlatforms"
	SectionProjectConfigurationPlatforms  = "ProjectConfigurationPlatforms"
	SectionSolutionProperties             = "SolutionProperties"
	SectionNestedProjects                 = "NestedProjects"
	SectionExtensibilityGlobals           = "ExtensibilityGlobals"

	OrderPreProject   = "preProject"
	OrderPostProject  = "postProject"
	OrderPreSolution  = "preSolution"
	OrderPostSolution = "postSolution"
)

// Default header values written for new documents.
const (
	DefaultFormatVersion              = "12.00"
	DefaultVisualStudioMajorVersion   = "17"
	DefaultVisualStudioVersion        = "17.0.31903.59"
	DefaultMinimumVisualStudioVersion = "10.0.40219.1"
)

// Document is the format-level model of a .sln file.
type Document struct {
	// BOM records whether the file started with a UTF-8 byte order mark
	BOM bool

	// LeadingBlankLines is the number of blank lines before the format
	// version line. Visual Studio writes one.
	LeadingBlankLines int

	FormatVersion              string
	VisualStudioMajorVersion   string
	VisualStudioVersion        string
	MinimumVisualStudioVersion string

	Projects       []*Project
	GlobalSections []*Section

	global bool
}

// NewDocument creates an empty document with default headers.
func NewDocument() *Document {
	return &Document{
		BOM:                        true,
		LeadingBlankLines:          1,
		FormatVersion:              DefaultFormatVersion,
		VisualStudioMajorVersion:   DefaultVisualStudioMajorVersion,
		VisualStudioVersion:        DefaultVisualStudioVersion,
		MinimumVisualStudioVersion: DefaultMinimumVisualStudioVersion,
		global:                     true,
	}
}

// Project returns the project block whose ID matches id, ignoring case.
func (d *Document) Project(id string) (*Project, bool) {
	for _, p := range d.Projects {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return nil, false
}

// AddProject appends a project block.
func (d *Document) AddProject(p *Project) {
	d.Projects = append(d.Projects, p)
}

// RemoveProject deletes the project block with the given ID.
func (d *Document) RemoveProject(id string) bool {
	for i, p := range d.Projects {
		if strings.EqualFold(p.ID, id) {
			d.Projects = append(d.Projects[:i], d.Projects[i+1:]...)
			return true
		}
	}
	return false
}

// GlobalSection returns the global section called name.
func (d *Document) GlobalSection(name string) (*Section, bool) {
	return findSection(d.GlobalSections, name)
}

// GetOrAddGlobalSection returns the global section called name, appending an
// empty one with the given order if missing.
func (d *Document) GetOrAddGlobalSection(name, order string) *Section {
	if s, ok := d.GlobalSection(name); ok {
		return s
	}
	s := NewSection(name, order)
	d.GlobalSections = append(d.GlobalSections, s)
	d.global = true
	return s
}

// RemoveGlobalSection deletes the global section called name.
func (d *Document) RemoveGlobalSection(name string) bool {
	var removed bool
	d.GlobalSections, removed = removeSection(d.GlobalSections, name)
	return removed
}

// Project is a Project("{type}") = "name", "path", "{id}" block.
type Project struct {
	TypeGUID uuid.UUID
	Name     string
	Path     string

	// ID is the project GUID text as written, braces included
	ID string

	Sections []*Section

	// typeText is the type GUID as read; it is written back while it still
	// denotes TypeGUID.
	typeText string
}

// typeGUIDText returns the type GUID as it appears in the block header.
func (p *Project) typeGUIDText() string {
	if p.typeText != "" {
		if id, err := ParseGUID(p.typeText); err == nil && id == p.TypeGUID {
			return p.typeText
		}
	}
	return FormatGUID(p.TypeGUID)
}

// NewProject creates a project block with a braced upper-case ID.
func NewProject(typeGUID uuid.UUID, name, path string, id uuid.UUID) *Project {
	return &Project{
		TypeGUID: typeGUID,
		Name:     name,
		Path:     path,
		ID:       FormatGUID(id),
	}
}

// Section returns the project section called name.
func (p *Project) Section(name string) (*Section, bool) {
	return findSection(p.Sections, name)
}

// GetOrAddSection returns the project section called name, appending an
// empty one with the given order if missing.
func (p *Project) GetOrAddSection(name, order string) *Section {
	if s, ok := p.Section(name); ok {
		return s
	}
	s := NewSection(name, order)
	p.Sections = append(p.Sections, s)
	return s
}

// RemoveSection deletes the project section called name.
func (p *Project) RemoveSection(name string) bool {
	var removed bool
	p.Sections, removed = removeSection(p.Sections, name)
	return removed
}

// Section is a named list of key = value pairs. Pairs keep their order and
// duplicates; lookups see the last value written for a key.
type Section struct {
	Name  string
	Order string

	pairs  []Pair
	values map[string]string
}

// Pair is one key = value line of a section.
type Pair struct {
	Key   string
	Value string

	// Quoted records that the value was written between double quotes
	Quoted bool

	// KeyQuoted records that the key was written between double quotes
	KeyQuoted bool
}

// NewSection creates an empty section.
func NewSection(name, order string) *Section {
	return &Section{Name: name, Order: order, values: make(map[string]string)}
}

// Pairs returns the pairs in file order.
func (s *Section) Pairs() []Pair {
	return s.pairs
}

// Len returns the number of pairs.
func (s *Section) Len() int {
	return len(s.pairs)
}

// Get returns the last value written for key.
func (s *Section) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Add appends a pair, keeping any previous pair with the same key.
func (s *Section) Add(key, value string) {
	s.addPair(Pair{Key: key, Value: value})
}

func (s *Section) addPair(p Pair) {
	s.pairs = append(s.pairs, p)
	s.values[p.Key] = p.Value
}

// Set replaces the value of the first pair with key and drops the others, or
// appends a new pair.
func (s *Section) Set(key, value string) {
	index := -1
	kept := s.pairs[:0]
	for _, p := range s.pairs {
		if p.Key == key {
			if index >= 0 {
				continue
			}
			index = len(kept)
			p.Value = value
		}
		kept = append(kept, p)
	}
	s.pairs = kept
	if index < 0 {
		s.pairs = append(s.pairs, Pair{Key: key, Value: value})
	}
	s.values[key] = value
}

// Remove deletes every pair with key.
func (s *Section) Remove(key string) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	kept := s.pairs[:0]
	for _, p := range s.pairs {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	s.pairs = kept
	delete(s.values, key)
	return true
}

// RemoveWhere deletes every pair for which match returns true.
func (s *Section) RemoveWhere(match func(Pair) bool) int {
	kept := s.pairs[:0]
	removed := 0
	for _, p := range s.pairs {
		if match(p) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.pairs = kept
	s.reindex()
	return removed
}

// Clear removes every pair.
func (s *Section) Clear() {
	s.pairs = nil
	s.values = make(map[string]string)
}

// Equal reports whether both sections hold the same pairs in the same order.
func (s *Section) Equal(other *Section) bool {
	if s.Name != other.Name || s.Order != other.Order || len(s.pairs) != len(other.pairs) {
		return false
	}
	for i := range s.pairs {
		if s.pairs[i].Key != other.pairs[i].Key || s.pairs[i].Value != other.pairs[i].Value {
			return false
		}
	}
	return true
}

func (s *Section) reindex() {
	s.values = make(map[string]string, len(s.pairs))
	for _, p := range s.pairs {
		s.values[p.Key] = p.Value
	}
}

func findSection(sections []*Section, name string) (*Section, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

func removeSection(sections []*Section, name string) ([]*Section, bool) {
	for i, s := range sections {
		if s.Name == name {
			return append(sections[:i], sections[i+1:]...), true
		}
	}
	return sections, false
}

// FormatGUID writes a GUID the way solution files do: braced and upper-case.
func FormatGUID(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}

// ParseGUID parses a braced or bare GUID.
func ParseGUID(text string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "{"), "}"))
}

package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/solution"
)

// ParseError reports an invalid configuration file.
type ParseError struct {
	Path        string
	Diagnostics hcl.Diagnostics
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Path, e.Diagnostics.Error())
}

var documentSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "solution_name"}, {Name: "output_directory"},
		{Name: "collapse_folders_with_unique_subfolder"},
		{Name: "collapse_folders_with_unique_item"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "root"}, {Type: "configuration_platforms"},
	},
}

var contentSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "folder", LabelNames: []string{"name"}},
		{Type: "files"}, {Type: "projects"},
		{Type: "solutions"}, {Type: "subsolutions"},
		{Type: "dependencies"}, {Type: "dependents"},
	},
}

var inclusionAttributes = []hcl.AttributeSchema{
	{Name: "create_folders"}, {Name: "overwrite"}, {Name: "id"},
}

var globSchema = &hcl.BodySchema{
	Attributes: append([]hcl.AttributeSchema{{Name: "path"}}, inclusionAttributes...),
	Blocks:     []hcl.BlockHeaderSchema{{Type: "where"}},
}

var solutionsSchema = &hcl.BodySchema{
	Attributes: append([]hcl.AttributeSchema{
		{Name: "path"}, {Name: "reverse_order"}, {Name: "keep_only"},
		{Name: "create_root_folder"}, {Name: "virtual"},
	}, inclusionAttributes...),
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "where"}, {Type: "where_projects"}, {Type: "where_files"},
	},
}

var dependenciesSchema = &hcl.BodySchema{
	Attributes: append([]hcl.AttributeSchema{{Name: "target"}}, inclusionAttributes...),
	Blocks:     []hcl.BlockHeaderSchema{{Type: "where"}},
}

var dependentsSchema = &hcl.BodySchema{
	Attributes: append([]hcl.AttributeSchema{
		{Name: "target"}, {Name: "scope"}, {Name: "scope_path"},
		{Name: "keep_only_satisfied_before_filter"},
		{Name: "keep_only_satisfied_after_filter"},
	}, inclusionAttributes...),
	Blocks: []hcl.BlockHeaderSchema{{Type: "where"}},
}

var matrixSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "from_projects"}},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "configuration", LabelNames: []string{"name"}},
		{Type: "platform", LabelNames: []string{"name"}},
	},
}

var namedMatchSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "match"}},
}

var fileFilterSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "path"}, {Name: "in_set"}},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "not"}, {Type: "all"}, {Type: "any_of"},
	},
}

var projectFilterSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "path"}, {Name: "project_type"}, {Name: "in_set"}},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "not"}, {Type: "all"}, {Type: "any_of"}, {Type: "is_dependency_of"},
	},
}

var dependencyOfSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "path", Required: true}},
}

// Load reads and parses the configuration file at path.
func Load(fs fsys.FileSystem, path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration path: %w", err)
	}
	src, err := fs.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return Parse(src, abs)
}

// Parse parses configuration source. path must be absolute; relative paths
// in the document resolve against its directory.
func Parse(src []byte, path string) (*Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, &ParseError{Path: path, Diagnostics: diags}
	}

	p := &parser{}
	doc := p.document(file.Body, path)
	if p.diags.HasErrors() {
		return nil, &ParseError{Path: path, Diagnostics: p.diags}
	}
	return doc, nil
}

type parser struct {
	diags hcl.Diagnostics
}

func (p *parser) content(body hcl.Body, schema *hcl.BodySchema) *hcl.BodyContent {
	content, diags := body.Content(schema)
	p.diags = append(p.diags, diags...)
	return content
}

func (p *parser) decode(attrs hcl.Attributes, name string, target any) {
	if attr, ok := attrs[name]; ok {
		p.diags = append(p.diags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
	}
}

func (p *parser) errorf(subject *hcl.Range, summary, detail string, args ...any) {
	p.diags = append(p.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(detail, args...),
		Subject:  subject,
	})
}

// uniqueBlock returns the block of the given type, reporting duplicates.
func (p *parser) uniqueBlock(blocks hcl.Blocks, name string) *hcl.Block {
	var found *hcl.Block
	for _, block := range blocks {
		if block.Type != name {
			continue
		}
		if found != nil {
			p.errorf(&block.DefRange, "Duplicate \""+name+"\" block", "Only one %q block is allowed.", name)
			continue
		}
		found = block
	}
	return found
}

func (p *parser) document(body hcl.Body, path string) *Document {
	doc := &Document{
		Path:            path,
		SolutionName:    defaultSolutionName(path),
		OutputDirectory: filepath.Dir(path),
	}

	content := p.content(body, documentSchema)
	if content == nil {
		return doc
	}

	p.decode(content.Attributes, "solution_name", &doc.SolutionName)
	var output string
	p.decode(content.Attributes, "output_directory", &output)
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(filepath.Dir(path), filepath.FromSlash(output))
		}
		doc.OutputDirectory = filepath.Clean(output)
	}
	p.decode(content.Attributes, "collapse_folders_with_unique_subfolder", &doc.CollapseFoldersWithUniqueSubFolder)
	p.decode(content.Attributes, "collapse_folders_with_unique_item", &doc.CollapseFoldersWithUniqueItem)

	root := p.uniqueBlock(content.Blocks, "root")
	if root == nil {
		p.errorf(body.MissingItemRange().Ptr(), "Missing \"root\" block", "A solution configuration needs a root block describing the solution content.")
	} else {
		doc.Root = p.nodes(root.Body)
	}

	if matrix := p.uniqueBlock(content.Blocks, "configuration_platforms"); matrix != nil {
		doc.Matrix = p.matrix(matrix)
	}
	return doc
}

func (p *parser) nodes(body hcl.Body) []Node {
	content := p.content(body, contentSchema)
	if content == nil {
		return nil
	}

	var nodes []Node
	for _, block := range content.Blocks {
		if n := p.node(block); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (p *parser) node(block *hcl.Block) Node {
	switch block.Type {
	case "folder":
		if block.Labels[0] == "" {
			p.errorf(&block.LabelRanges[0], "Invalid folder name", "A folder name cannot be empty.")
		}
		return &FolderNode{Name: block.Labels[0], Content: p.nodes(block.Body), DeclRange: block.DefRange}

	case "files", "projects":
		content := p.content(block.Body, globSchema)
		if content == nil {
			return nil
		}
		var path string
		p.decode(content.Attributes, "path", &path)
		inclusion := p.inclusion(content, block.Type == "projects")
		if block.Type == "files" {
			return &FilesNode{Path: path, Inclusion: inclusion, DeclRange: block.DefRange}
		}
		return &ProjectsNode{Path: path, Inclusion: inclusion, DeclRange: block.DefRange}

	case "solutions", "subsolutions":
		content := p.content(block.Body, solutionsSchema)
		if content == nil {
			return nil
		}
		n := &SolutionsNode{Sub: block.Type == "subsolutions", DeclRange: block.DefRange}
		p.decode(content.Attributes, "path", &n.Path)
		p.decode(content.Attributes, "reverse_order", &n.ReverseOrder)
		p.decode(content.Attributes, "keep_only", &n.KeepOnly)
		p.decode(content.Attributes, "create_root_folder", &n.CreateRootFolder)
		p.decode(content.Attributes, "virtual", &n.Virtual)
		n.Inclusion = p.inclusion(content, false)
		if b := p.uniqueBlock(content.Blocks, "where_projects"); b != nil {
			n.WhereProjects = p.filter(b.Body, true)
		}
		if b := p.uniqueBlock(content.Blocks, "where_files"); b != nil {
			n.WhereFiles = p.filter(b.Body, false)
		}
		return n

	case "dependencies":
		content := p.content(block.Body, dependenciesSchema)
		if content == nil {
			return nil
		}
		n := &DependenciesNode{DeclRange: block.DefRange}
		p.decode(content.Attributes, "target", &n.Target)
		n.Inclusion = p.inclusion(content, true)
		return n

	case "dependents":
		content := p.content(block.Body, dependentsSchema)
		if content == nil {
			return nil
		}
		n := &DependentsNode{DeclRange: block.DefRange}
		p.decode(content.Attributes, "target", &n.Target)
		p.decode(content.Attributes, "scope", &n.Scope)
		p.decode(content.Attributes, "scope_path", &n.ScopePath)
		p.decode(content.Attributes, "keep_only_satisfied_before_filter", &n.KeepOnlySatisfiedBeforeFilter)
		p.decode(content.Attributes, "keep_only_satisfied_after_filter", &n.KeepOnlySatisfiedAfterFilter)
		n.Inclusion = p.inclusion(content, true)
		return n
	}
	return nil
}

// inclusion decodes the shared attributes and the where block. Solutions
// are filtered by path like files.
func (p *parser) inclusion(content *hcl.BodyContent, projects bool) Inclusion {
	var inc Inclusion
	p.decode(content.Attributes, "create_folders", &inc.CreateFolders)
	p.decode(content.Attributes, "overwrite", &inc.Overwrite)
	p.decode(content.Attributes, "id", &inc.ID)
	if where := p.uniqueBlock(content.Blocks, "where"); where != nil {
		inc.Where = p.filter(where.Body, projects)
	}
	return inc
}

func (p *parser) matrix(block *hcl.Block) *Matrix {
	content := p.content(block.Body, matrixSchema)
	if content == nil {
		return nil
	}

	var fromProjects bool
	p.decode(content.Attributes, "from_projects", &fromProjects)

	m := &Matrix{}
	for _, b := range content.Blocks {
		sub := p.content(b.Body, namedMatchSchema)
		named := NamedMatch{Name: b.Labels[0]}
		if sub != nil {
			p.decode(sub.Attributes, "match", &named.Match)
		}
		if b.Type == "configuration" {
			m.Configurations = append(m.Configurations, named)
		} else {
			m.Platforms = append(m.Platforms, named)
		}
	}

	if fromProjects {
		if len(m.Configurations) > 0 || len(m.Platforms) > 0 {
			p.errorf(&block.DefRange, "Conflicting matrix declaration", "from_projects cannot be combined with configuration or platform blocks.")
		}
		return nil
	}
	if len(m.Configurations) == 0 {
		p.errorf(&block.DefRange, "Missing configuration", "Declare at least one configuration block, or set from_projects = true.")
	}
	if len(m.Platforms) == 0 {
		m.Platforms = []NamedMatch{{Name: DefaultPlatform}}
	}
	return m
}

// filter parses a filter body; its terms are AND-ed.
func (p *parser) filter(body hcl.Body, projects bool) Filter {
	terms := p.terms(body, projects)
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	}
	return &AllFilter{Terms: terms}
}

type term struct {
	at     hcl.Pos
	filter Filter
}

func (p *parser) terms(body hcl.Body, projects bool) []Filter {
	schema := fileFilterSchema
	if projects {
		schema = projectFilterSchema
	}
	content := p.content(body, schema)
	if content == nil {
		return nil
	}

	var terms []term
	for name, attr := range content.Attributes {
		r := attr.Expr.Range()
		var f Filter
		switch name {
		case "path":
			var pattern string
			p.decode(content.Attributes, name, &pattern)
			f = &PathFilter{Pattern: pattern, Range: r}
		case "in_set":
			var id string
			p.decode(content.Attributes, name, &id)
			f = &InSetFilter{ID: id, Range: r}
		case "project_type":
			f = p.projectTypes(content.Attributes, r)
		}
		terms = append(terms, term{at: attr.Range.Start, filter: f})
	}

	for _, block := range content.Blocks {
		var f Filter
		switch block.Type {
		case "not":
			operand := p.filter(block.Body, projects)
			if operand == nil {
				p.errorf(&block.DefRange, "Empty filter", "A not block needs at least one term.")
				continue
			}
			f = &NotFilter{Operand: operand}
		case "all":
			f = &AllFilter{Terms: p.terms(block.Body, projects)}
		case "any_of":
			f = &AnyOfFilter{Terms: p.terms(block.Body, projects)}
		case "is_dependency_of":
			sub := p.content(block.Body, dependencyOfSchema)
			if sub == nil {
				continue
			}
			var pattern string
			p.decode(sub.Attributes, "path", &pattern)
			f = &DependencyOfFilter{Pattern: pattern, Range: block.DefRange}
		}
		terms = append(terms, term{at: block.DefRange.Start, filter: f})
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].at.Byte < terms[j].at.Byte })
	filters := make([]Filter, 0, len(terms))
	for _, t := range terms {
		if t.filter != nil {
			filters = append(filters, t.filter)
		}
	}
	return filters
}

func (p *parser) projectTypes(attrs hcl.Attributes, r hcl.Range) Filter {
	var names []string
	p.decode(attrs, "project_type", &names)

	f := &ProjectTypeFilter{Range: r}
	for _, name := range names {
		t, ok := solution.ParseProjectType(name)
		if !ok {
			p.errorf(&r, "Unknown project type", "%q is not a known project type.", name)
			continue
		}
		f.Types = append(f.Types, t)
	}
	return f
}

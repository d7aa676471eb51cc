package convert

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/raw"
)

func csproj(deps ...string) *solution.Project {
	return &solution.Project{
		Type:           solution.ProjectTypeCSharpSDK,
		Configurations: []string{"Debug", "Release"},
		Platforms:      []string{"Any CPU"},
		Dependencies:   deps,
		CanBuild:       true,
	}
}

// sampleSolution builds a solution with root files, nested folders, a
// shared project and a two-entry matrix.
func sampleSolution() *solution.Solution {
	s := solution.New("/repo", "Sample", true)
	s.AddConfigurationPlatform(solution.NewConfigurationPlatform("Debug", "Any CPU", nil, nil))
	s.AddConfigurationPlatform(solution.NewConfigurationPlatform("Release", "Any CPU", []string{"Rel"}, nil))

	s.Root.AddFile("README.md", false)
	s.Root.AddFile("build/common.props", false)

	src := s.Root.GetOrAddSubFolder("src")
	app := csproj("src/Core/Core.csproj")
	app.SharedImports = []string{"shared/Shared.projitems"}
	src.AddProject("src/App/App.csproj", app, false)
	src.AddProject("src/Core/Core.csproj", csproj(), false)
	src.GetOrAddSubFolder("docs").AddFile("src/docs/guide.md", false)

	s.Root.GetOrAddFolderPath("tests", "unit").AddProject("tests/Core.Tests/Core.Tests.csproj", csproj("src/Core/Core.csproj"), false)

	s.Root.GetOrAddSubFolder("shared").AddProject("shared/Shared.shproj", &solution.Project{
		Type:          solution.ProjectTypeShared,
		SharedImports: []string{"shared/Shared.projitems"},
	}, false)
	return s
}

func write(t *testing.T, doc *raw.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, raw.Write(&buf, doc, raw.WithNewline("\n")))
	return buf.String()
}

func reparse(t *testing.T, doc *raw.Document) *raw.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, raw.Write(&buf, doc))
	parsed, err := raw.Read(&buf)
	require.NoError(t, err)
	return parsed
}

func TestGenerate(t *testing.T) {
	c := New(WithGUIDGenerator(SequentialGUIDs()))
	doc, issues := c.Generate(sampleSolution())
	assert.Empty(t, issues)

	text := write(t, doc)
	require.True(t, strings.HasPrefix(text, "\ufeff"))
	text = strings.TrimPrefix(text, "\ufeff")
	snaps.MatchSnapshot(t, text)

	names := make([]string, len(doc.Projects))
	for i, p := range doc.Projects {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Solution Items", "shared", "src", "docs", "tests", "unit", "Shared", "App", "Core", "Core.Tests"}, names)

	items, ok := doc.Projects[0].Section(raw.SectionSolutionItems)
	require.True(t, ok)
	assert.Equal(t, []raw.Pair{
		{Key: `README.md`, Value: `README.md`},
		{Key: `build\common.props`, Value: `build\common.props`},
	}, items.Pairs())

	sections := make([]string, len(doc.GlobalSections))
	for i, s := range doc.GlobalSections {
		sections[i] = s.Name
	}
	assert.Equal(t, globalSectionOrder, sections)

	shared, _ := doc.GlobalSection(raw.SectionSharedMSBuildProjectFiles)
	sharedProject, _ := doc.Project("{00000000-0000-0000-0000-000000000007}")
	app, _ := doc.Project("{00000000-0000-0000-0000-000000000008}")
	require.NotNil(t, app)
	require.NotNil(t, sharedProject)
	v, ok := shared.Get(`shared\Shared.projitems*` + app.ID + `*SharedItemsImports`)
	assert.True(t, ok)
	assert.Equal(t, "4", v)
	v, ok = shared.Get(`shared\Shared.projitems*` + sharedProject.ID + `*SharedItemsImports`)
	assert.True(t, ok)
	assert.Equal(t, "13", v)

	contexts, _ := doc.GlobalSection(raw.SectionProjectConfigurationPlatforms)
	_, ok = contexts.Get(sharedProject.ID + ".Debug|Any CPU.ActiveCfg")
	assert.False(t, ok, "shared projects have no configuration")
	v, _ = contexts.Get(app.ID + ".Release|Any CPU.Build.0")
	assert.Equal(t, "Release|Any CPU", v)

	assert.Contains(t, text, "\t\t{00000000-0000-0000-0000-000000000004} = {00000000-0000-0000-0000-000000000003}\n")
}

func TestUpdate_Idempotent(t *testing.T) {
	c := New(WithGUIDGenerator(SequentialGUIDs()))
	s := sampleSolution()
	doc, _ := c.Generate(s)
	before := write(t, doc)

	changes, issues := c.Update(context.Background(), doc, s)
	assert.Empty(t, changes)
	assert.Empty(t, issues)
	assert.Equal(t, before, write(t, doc))

	parsed := reparse(t, doc)
	changes, _ = c.Update(context.Background(), parsed, sampleSolution())
	assert.Empty(t, changes)
	assert.Equal(t, before, write(t, parsed))
}

func TestUpdate_AddAndRemoveProject(t *testing.T) {
	c := New()
	doc, _ := c.Generate(sampleSolution())
	coreID := doc.Projects[8].ID

	target := sampleSolution()
	src, _ := target.Root.SubFolder("src")
	require.True(t, src.RemoveProject("src/App/App.csproj"))
	src.AddProject("src/Web/Web.csproj", csproj(), false)

	changes, issues := c.Update(context.Background(), doc, target)
	assert.Empty(t, issues)
	require.Len(t, changes, 2)
	assert.Equal(t, `Add Project "src/Web/Web.csproj"`, changes[0].String())
	assert.Equal(t, `Remove Project "src/App/App.csproj"`, changes[1].String())

	text := write(t, doc)
	assert.NotContains(t, text, "App.csproj")
	assert.Contains(t, text, `"Web", "src\Web\Web.csproj"`)
	core, ok := doc.Project(coreID)
	require.True(t, ok, "unchanged projects keep their GUID")
	assert.Equal(t, "Core", core.Name)

	changes, _ = c.Update(context.Background(), doc, target)
	assert.Empty(t, changes)
}

func TestUpdate_Changes(t *testing.T) {
	c := New()
	doc, _ := c.Generate(sampleSolution())

	target := sampleSolution()
	// move Core.Tests to the root
	unit := target.Root.GetOrAddFolderPath("tests", "unit")
	tests, _ := unit.Project("tests/Core.Tests/Core.Tests.csproj")
	target.Root.AddProject("tests/Core.Tests/Core.Tests.csproj", tests.Copy(), true)
	// drop a file, add another
	require.True(t, target.Root.RemoveFile("build/common.props"))
	target.Root.AddFile("LICENSE", false)
	// new matrix entry, and Core no longer builds in Release
	target.AddConfigurationPlatform(solution.NewConfigurationPlatform("Debug", "x64", nil, []string{"Any CPU"}))
	release, _ := target.ConfigurationPlatform("Release|Any CPU")
	ctx, _ := release.Context("src/Core/Core.csproj")
	ctx.Build = false
	// App stops importing the shared items
	src, _ := target.Root.SubFolder("src")
	app, _ := src.Project("src/App/App.csproj")
	app.SharedImports = nil

	changes, issues := c.Update(context.Background(), doc, target)
	assert.Empty(t, issues)

	var got []string
	for _, change := range changes {
		got = append(got, change.String())
	}
	assert.Equal(t, []string{
		`Add File "LICENSE"`,
		`Add ConfigurationPlatform "Debug|x64"`,
		`Remove File "build/common.props"`,
		`Remove Folder "tests"`,
		`Remove Folder "tests/unit"`,
		`Remove SharedProject "shared/Shared.projitems" from Project "src/App/App.csproj"`,
		`Edit ProjectContext "src/Core/Core.csproj" in ConfigurationPlatform "Release|Any CPU"`,
		`Move Project "tests/Core.Tests/Core.Tests.csproj" to Folder "<root>"`,
	}, got)

	changes, _ = c.Update(context.Background(), doc, target)
	assert.Empty(t, changes)

	text := write(t, doc)
	assert.Contains(t, text, "Debug|x64 = Debug|x64")
	assert.NotContains(t, text, `"tests"`)
}

func TestUpdate_ContextMove(t *testing.T) {
	c := New()
	doc, _ := c.Generate(sampleSolution())

	target := sampleSolution()
	debug, _ := target.ConfigurationPlatform("Debug|Any CPU")
	debug.SetContext("src/Core/Core.csproj", &solution.ProjectContext{ConfigurationName: "Release", PlatformName: "Any CPU", Build: true})

	changes, _ := c.Update(context.Background(), doc, target)
	require.Len(t, changes, 1)
	assert.Equal(t, `Move ProjectContext "src/Core/Core.csproj (Debug|Any CPU)" to ProjectContext "Release|Any CPU"`, changes[0].String())
}

func TestUpdate_UnsupportedSharedImport(t *testing.T) {
	s := solution.New("/repo", "S", true)
	p := csproj()
	p.SharedImports = []string{"shared/items.props"}
	s.Root.AddProject("a/a.csproj", p, false)

	doc, issues := New().Generate(s)
	require.Len(t, issues, 1)
	assert.Equal(t, solution.IssueWarning, issues[0].Level)
	_, ok := doc.GlobalSection(raw.SectionSharedMSBuildProjectFiles)
	assert.False(t, ok)
}

func TestUpdate_PreservesForeignContent(t *testing.T) {
	src := "\r\nMicrosoft Visual Studio Solution File, Format Version 12.00\r\n" +
		"# Visual Studio Version 16\r\n" +
		"VisualStudioVersion = 16.0.28701.123\r\n" +
		"MinimumVisualStudioVersion = 10.0.40219.1\r\n" +
		"Project(\"{9A19103F-16F7-4668-BE54-9A1E7A4F7556}\") = \"Core\", \"src\\Core\\Core.csproj\", \"{c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f}\"\r\n" +
		"\tProjectSection(WebsiteProperties) = preProject\r\n" +
		"\t\tDebug.AspNetCompiler.VirtualPath = \"/localhost_1234\"\r\n" +
		"\tEndProjectSection\r\n" +
		"EndProject\r\n" +
		"Global\r\n" +
		"\tGlobalSection(SolutionConfigurationPlatforms) = preSolution\r\n" +
		"\t\tDebug|Any CPU = Debug|Any CPU\r\n" +
		"\tEndGlobalSection\r\n" +
		"\tGlobalSection(ProjectConfigurationPlatforms) = postSolution\r\n" +
		"\t\t{c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f}.Debug|Any CPU.ActiveCfg = Debug|Any CPU\r\n" +
		"\t\t{c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f}.Debug|Any CPU.Build.0 = Debug|Any CPU\r\n" +
		"\tEndGlobalSection\r\n" +
		"\tGlobalSection(SolutionProperties) = preSolution\r\n" +
		"\t\tHideSolutionNode = FALSE\r\n" +
		"\tEndGlobalSection\r\n" +
		"\tGlobalSection(ExtensibilityGlobals) = postSolution\r\n" +
		"\t\tSolutionGuid = {9F8E7D6C-5B4A-4392-8170-6F5E4D3C2B1A}\r\n" +
		"\tEndGlobalSection\r\n" +
		"EndGlobal\r\n"

	doc, err := raw.Read(strings.NewReader(src))
	require.NoError(t, err)

	target := solution.New("/repo", "S", true)
	target.AddConfigurationPlatform(solution.NewConfigurationPlatform("Debug", "Any CPU", nil, nil))
	target.Root.AddProject("src/Core/Core.csproj", csproj(), false)

	changes, issues := New().Update(context.Background(), doc, target)
	assert.Empty(t, changes)
	assert.Empty(t, issues)

	var buf bytes.Buffer
	require.NoError(t, raw.Write(&buf, doc))
	assert.Equal(t, src, buf.String())
}

func TestView_Issues(t *testing.T) {
	doc := raw.NewDocument()
	folder := solution.ProjectTypeFolder.GUID()
	cs := solution.ProjectTypeCSharpSDK.GUID()
	doc.AddProject(&raw.Project{TypeGUID: folder, Name: "src", Path: "src", ID: "{00000000-0000-0000-0000-000000000001}"})
	doc.AddProject(&raw.Project{TypeGUID: cs, Name: "A", Path: `src\A\A.csproj`, ID: "{00000000-0000-0000-0000-000000000002}"})
	doc.AddProject(&raw.Project{TypeGUID: cs, Name: "Bad", Path: `Bad.csproj`, ID: "{not-a-guid}"})

	nested := doc.GetOrAddGlobalSection(raw.SectionNestedProjects, raw.OrderPreSolution)
	nested.Add("{00000000-0000-0000-0000-000000000002}", "{00000000-0000-0000-0000-000000000001}")
	nested.Add("{00000000-0000-0000-0000-000000000003}", "{00000000-0000-0000-0000-000000000001}")
	nested.Add("{00000000-0000-0000-0000-000000000001}", "garbage")

	contexts := doc.GetOrAddGlobalSection(raw.SectionProjectConfigurationPlatforms, raw.OrderPostSolution)
	contexts.Add("{00000000-0000-0000-0000-000000000009}.Debug|Any CPU.ActiveCfg", "Debug|Any CPU")

	v := newView(doc, true)
	var messages []string
	for _, issue := range v.issues {
		assert.Equal(t, solution.IssueError, issue.Level)
		messages = append(messages, issue.Message)
	}
	assert.Len(t, messages, 4)
	assert.Contains(t, messages[0], "invalid GUID")
	assert.Contains(t, messages[1], "unknown project")
	assert.Contains(t, messages[2], "invalid GUID")
	assert.Contains(t, messages[3], "ProjectConfigurationPlatforms references unknown project")

	assert.Equal(t, "src", v.folderKeyOf("{00000000-0000-0000-0000-000000000002}"))
	_, ok := v.projects["src/a/a.csproj"]
	assert.False(t, ok, "case-sensitive keys")
	_, ok = v.projects["src/A/A.csproj"]
	assert.True(t, ok)
}

func TestIngest(t *testing.T) {
	c := New()
	doc, _ := c.Generate(sampleSolution())
	parsed := reparse(t, doc)

	s, issues, err := c.Ingest(context.Background(), parsed, "/repo/Sample.sln", true)
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.Equal(t, "Sample", s.Name)
	assert.Equal(t, "/repo", s.OutputDirectory)
	assert.Equal(t, []string{"README.md", "build/common.props", "src/docs/guide.md"}, s.FilePaths())
	assert.Equal(t, []string{
		"shared/Shared.shproj",
		"src/App/App.csproj",
		"src/Core/Core.csproj",
		"tests/Core.Tests/Core.Tests.csproj",
	}, s.ProjectPaths())

	folder, ok := s.FolderOf("tests/Core.Tests/Core.Tests.csproj")
	require.True(t, ok)
	assert.Equal(t, []string{"tests", "unit"}, folder.Path())
	folder, _ = s.FolderOf("README.md")
	assert.Nil(t, folder.Parent())

	projects := s.Projects()
	app := projects["src/App/App.csproj"]
	assert.Equal(t, solution.ProjectTypeCSharpSDK, app.Type)
	assert.Equal(t, []string{"Debug", "Release"}, app.Configurations)
	assert.Equal(t, []string{"shared/Shared.projitems"}, app.SharedImports)
	assert.False(t, projects["shared/Shared.shproj"].CanBuild)

	require.Len(t, s.ConfigurationPlatforms(), 2)
	release := s.ConfigurationPlatforms()[1]
	ctx, ok := release.Context("src/Core/Core.csproj")
	require.True(t, ok)
	assert.Equal(t, "Release|Any CPU", ctx.FullName())
	assert.True(t, ctx.Build)

	// the ingested model describes the same document
	changes, _ := c.Update(context.Background(), parsed, s)
	assert.Empty(t, changes)
}

func TestIngest_ProjectReader(t *testing.T) {
	doc, _ := New().Generate(sampleSolution())

	reader := project.ReaderFunc(func(ctx context.Context, path string) (*project.Metadata, error) {
		if strings.HasSuffix(path, "Core.csproj") {
			return &project.Metadata{
				Path:           path,
				Type:           solution.ProjectTypeCSharpSDK,
				Configurations: []string{"Debug", "Release", "Profile"},
				Platforms:      []string{"Any CPU"},
				CanBuild:       true,
			}, nil
		}
		return nil, &project.ReadError{Path: path, Err: errors.New("missing")}
	})

	s, issues, err := New(WithProjectReader(reader)).Ingest(context.Background(), doc, "/repo/Sample.sln", true)
	require.NoError(t, err)
	assert.Len(t, issues, 3)
	for _, issue := range issues {
		assert.Equal(t, solution.IssueWarning, issue.Level)
	}
	assert.Equal(t, []string{"Debug", "Release", "Profile"}, s.Projects()["src/Core/Core.csproj"].Configurations)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = New(WithProjectReader(reader)).Ingest(ctx, doc, "/repo/Sample.sln", true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseContextKey(t *testing.T) {
	id, cp, suffix, ok := parseContextKey("{A}.Release|.NET 4.8.Build.0")
	require.True(t, ok)
	assert.Equal(t, "{A}", id)
	assert.Equal(t, "Release|.NET 4.8", cp)
	assert.Equal(t, suffixBuild, suffix)

	_, _, _, ok = parseContextKey("{A}.Debug|x64.Unknown")
	assert.False(t, ok)

	path, pid, ok := parseSharedKey(`shared\S.projitems*{B}*SharedItemsImports`)
	require.True(t, ok)
	assert.Equal(t, "shared/S.projitems", path)
	assert.Equal(t, "{B}", pid)
}

func TestSequentialGUIDs(t *testing.T) {
	gen := SequentialGUIDs()
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", gen().String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", gen().String())
}

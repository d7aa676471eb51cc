package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/project"
	"github.com/willibrandon/gosln/solution"
	"github.com/willibrandon/gosln/solution/convert"
)

func sdkProject(refs ...string) []byte {
	var sb strings.Builder
	sb.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n  <ItemGroup>\n")
	for _, ref := range refs {
		fmt.Fprintf(&sb, "    <ProjectReference Include=\"%s\" />\n", ref)
	}
	sb.WriteString("  </ItemGroup>\n</Project>\n")
	return []byte(sb.String())
}

// newRepo lays out a repository where App -> Data -> Core, App -> Core,
// Cli -> Core, and each test project references the project it tests.
func newRepo() *fsys.MockFileSystem {
	mfs := fsys.NewMockFileSystem()
	mfs.AddFile("/repo/README.md", []byte("# repo"))
	mfs.AddFile("/repo/docs/guide.md", []byte("guide"))
	mfs.AddFile("/repo/src/Core/Core.csproj", sdkProject())
	mfs.AddFile("/repo/src/Data/Data.csproj", sdkProject("../Core/Core.csproj"))
	mfs.AddFile("/repo/src/App/App.csproj", sdkProject("../Data/Data.csproj", "../Core/Core.csproj"))
	mfs.AddFile("/repo/src/Cli/Cli.csproj", sdkProject("../Core/Core.csproj"))
	mfs.AddFile("/repo/tests/Core.Tests/Core.Tests.csproj", sdkProject("../../src/Core/Core.csproj"))
	mfs.AddFile("/repo/tests/App.Tests/App.Tests.csproj", sdkProject("../../src/App/App.csproj"))
	return mfs
}

func addLibs(mfs *fsys.MockFileSystem) {
	mfs.AddFile("/repo/libs/Ext/Ext.csproj", sdkProject())
	mfs.AddFile("/repo/libs/Other/Other.csproj", sdkProject())
	mfs.AddFile("/repo/libs/notes.txt", []byte("notes"))
	mfs.AddFile("/repo/libs/libs.subsln", []byte(`
root {
  projects {
    path = "Ext/"
    id   = "ext"
  }
  projects { path = "Other/" }
  files { path = "notes.txt" }
}
`))
}

func build(t *testing.T, mfs *fsys.MockFileSystem, config string, opts ...Option) *Result {
	t.Helper()
	mfs.AddFile("/repo/main.subsln", []byte(config))
	result, err := New(mfs, opts...).BuildFile(context.Background(), "/repo/main.subsln")
	require.NoError(t, err)
	return result
}

func folderPath(t *testing.T, s *solution.Solution, path string) []string {
	t.Helper()
	folder, ok := s.FolderOf(path)
	require.True(t, ok, "%s is not in the solution", path)
	return folder.Path()
}

func matrixNames(s *solution.Solution) []string {
	var names []string
	for _, cp := range s.ConfigurationPlatforms() {
		names = append(names, cp.FullName())
	}
	return names
}

func TestBuild_ProjectsAndFiles(t *testing.T) {
	result := build(t, newRepo(), `
solution_name = "Repo"

root {
  files { path = "*.md" }

  folder "Docs" {
    files { path = "docs/" }
  }

  folder "src" {
    projects {
      path           = "src/**/"
      create_folders = true
    }
  }

  folder "Tests" {
    projects { path = "tests/**/" }
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)
	assert.Equal(t, "Repo", s.Name)
	assert.Equal(t, "/repo", s.OutputDirectory)

	assert.Equal(t, []string{"README.md", "docs/guide.md"}, s.FilePaths())
	assert.Equal(t, []string{
		"src/App/App.csproj",
		"src/Cli/Cli.csproj",
		"src/Core/Core.csproj",
		"src/Data/Data.csproj",
		"tests/App.Tests/App.Tests.csproj",
		"tests/Core.Tests/Core.Tests.csproj",
	}, s.ProjectPaths())

	assert.Empty(t, folderPath(t, s, "README.md"))
	assert.Equal(t, []string{"Docs"}, folderPath(t, s, "docs/guide.md"))
	assert.Equal(t, []string{"src", "App"}, folderPath(t, s, "src/App/App.csproj"))
	assert.Equal(t, []string{"Tests"}, folderPath(t, s, "tests/App.Tests/App.Tests.csproj"))

	assert.Equal(t, []string{"Debug|Any CPU", "Release|Any CPU"}, matrixNames(s))
	release, _ := s.ConfigurationPlatform("Release|Any CPU")
	ctx, ok := release.Context("src/Core/Core.csproj")
	require.True(t, ok)
	assert.Equal(t, "Release|Any CPU", ctx.FullName())
	assert.True(t, ctx.Build)

	app := s.Projects()["src/App/App.csproj"]
	assert.Equal(t, []string{"src/Data/Data.csproj", "src/Core/Core.csproj"}, app.Dependencies)
}

func TestBuild_CollapseAndOverwrite(t *testing.T) {
	result := build(t, newRepo(), `
collapse_folders_with_unique_subfolder = true
collapse_folders_with_unique_item      = true

root {
  folder "Code" {
    folder "src" {
      projects {
        path           = "src/**/"
        create_folders = true
      }
    }
  }

  folder "Core" {
    projects {
      path      = "src/Core/"
      overwrite = true
    }
    projects { path = "src/Cli/" }
    files { path = "*.md" }
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)

	// Code only held src, whose single-project folders were collapsed
	assert.Equal(t, []string{"Code"}, folderPath(t, s, "src/App/App.csproj"))
	assert.Equal(t, []string{"Code"}, folderPath(t, s, "src/Cli/Cli.csproj"))
	assert.Equal(t, []string{"Code"}, folderPath(t, s, "src/Data/Data.csproj"))
	// overwrite moved Core; Cli was already placed
	assert.Equal(t, []string{"Core"}, folderPath(t, s, "src/Core/Core.csproj"))
	assert.Equal(t, []string{"Core"}, folderPath(t, s, "README.md"))
}

func TestBuild_Dependencies(t *testing.T) {
	result := build(t, newRepo(), `
root {
  projects {
    path = "src/App/"
    id   = "app"
  }

  folder "Dependencies" {
    dependencies {
      target = "app"
      id     = "deps"
    }
  }

  folder "More" {
    projects { path = "tests/App.Tests/" }
    dependencies {}
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)

	assert.Empty(t, folderPath(t, s, "src/App/App.csproj"))
	assert.Equal(t, []string{"Dependencies"}, folderPath(t, s, "src/Core/Core.csproj"))
	assert.Equal(t, []string{"Dependencies"}, folderPath(t, s, "src/Data/Data.csproj"))
	assert.Equal(t, []string{"More"}, folderPath(t, s, "tests/App.Tests/App.Tests.csproj"))
	assert.Len(t, s.ProjectPaths(), 4)

	sets := result.Sets()
	assert.Equal(t, []string{"src/App/App.csproj"}, sets["app"])
	assert.Equal(t, []string{"src/Core/Core.csproj", "src/Data/Data.csproj"}, sets["deps"])
}

func TestBuild_Dependents(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    []string
	}{
		{
			name: "filter only",
			want: []string{
				"src/App/App.csproj",
				"src/Cli/Cli.csproj",
				"src/Core/Core.csproj",
				"tests/App.Tests/App.Tests.csproj",
				"tests/Core.Tests/Core.Tests.csproj",
			},
		},
		{
			name:    "satisfied before filter",
			options: "keep_only_satisfied_before_filter = true",
			want: []string{
				"src/App/App.csproj",
				"src/Cli/Cli.csproj",
				"src/Core/Core.csproj",
				"tests/App.Tests/App.Tests.csproj",
				"tests/Core.Tests/Core.Tests.csproj",
			},
		},
		{
			name:    "satisfied after filter",
			options: "keep_only_satisfied_after_filter = true",
			want: []string{
				"src/Cli/Cli.csproj",
				"src/Core/Core.csproj",
				"tests/Core.Tests/Core.Tests.csproj",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := build(t, newRepo(), `
root {
  projects {
    path = "src/Core/"
    id   = "core"
  }
  dependents {
    target = "core"
    `+tt.options+`
    where {
      not { path = "src/Data/**" }
    }
  }
}
`)
			assert.Empty(t, result.Issues)
			assert.Equal(t, tt.want, result.Solution.ProjectPaths())
		})
	}
}

func TestBuild_DependentsScope(t *testing.T) {
	result := build(t, newRepo(), `
root {
  projects { path = "src/Data/" }
  dependents { scope_path = "tests/**/" }
}
`)
	assert.Empty(t, result.Issues)
	assert.Equal(t, []string{"src/Data/Data.csproj", "tests/App.Tests/App.Tests.csproj"}, result.Solution.ProjectPaths())
}

func TestBuild_UnknownSet(t *testing.T) {
	result := build(t, newRepo(), `
root {
  projects { path = "src/Core/" }
  dependencies { target = "missing" }
  dependents {
    where { in_set = "missing" }
  }
}
`)
	require.Len(t, result.Issues, 2)
	for _, issue := range result.Issues {
		assert.Equal(t, solution.IssueError, issue.Level)
		assert.Contains(t, issue.Message, `unknown set "missing"`)
	}
	assert.True(t, result.Issues.HasErrors())
	assert.Equal(t, []string{"src/Core/Core.csproj"}, result.Solution.ProjectPaths())
}

func TestBuild_SubSolutions(t *testing.T) {
	mfs := newRepo()
	addLibs(mfs)

	result := build(t, mfs, `
root {
  subsolutions {
    path               = "libs/"
    create_root_folder = true
    id                 = "libs"
    where_projects {
      not { path = "**/Other/**" }
    }
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)
	assert.Equal(t, []string{"libs/Ext/Ext.csproj"}, s.ProjectPaths())
	assert.Equal(t, []string{"libs/notes.txt"}, s.FilePaths())
	assert.Equal(t, []string{"libs"}, folderPath(t, s, "libs/Ext/Ext.csproj"))
	assert.Equal(t, []string{"libs/Ext/Ext.csproj"}, result.Sets()["libs"])
	assert.Equal(t, []string{"Debug|Any CPU", "Release|Any CPU"}, matrixNames(s))
}

func TestBuild_EmptyFoldersAreDropped(t *testing.T) {
	mfs := newRepo()
	addLibs(mfs)

	result := build(t, mfs, `
root {
  projects { path = "libs/**/" }
  files { path = "libs/notes.txt" }

  folder "Empty" {
    projects { path = "nomatch/**" }
  }

  folder "Docs" {
    folder "Nothing" {}
    files { path = "docs/" }
  }

  subsolutions {
    path               = "libs/"
    create_root_folder = true
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)
	assert.Equal(t, []string{"Docs"}, s.Root.SubFolderNames())
	docs, ok := s.Root.SubFolder("Docs")
	require.True(t, ok)
	assert.Empty(t, docs.SubFolderNames())
	assert.Empty(t, folderPath(t, s, "libs/Ext/Ext.csproj"))

	doc, _ := convert.New().Generate(s)
	var names []string
	for _, p := range doc.Projects {
		names = append(names, p.Name)
	}
	assert.NotContains(t, names, "Empty")
	assert.NotContains(t, names, "libs")
	assert.Contains(t, names, "Docs")
}

func TestBuild_SubSolutionKeepOnly(t *testing.T) {
	mfs := newRepo()
	addLibs(mfs)

	result := build(t, mfs, `
root {
  subsolutions {
    path      = "libs/"
    keep_only = "ext"
  }
  subsolutions {
    path      = "libs/"
    keep_only = "nothing"
  }
}
`)
	s := result.Solution
	assert.Equal(t, []string{"libs/Ext/Ext.csproj"}, s.ProjectPaths())
	assert.Equal(t, []string{"libs/notes.txt"}, s.FilePaths())
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0].Message, `keep_only references set "nothing"`)
}

func TestBuild_VirtualSubSolution(t *testing.T) {
	mfs := newRepo()
	addLibs(mfs)

	result := build(t, mfs, `
root {
  subsolutions {
    path    = "libs/"
    virtual = true
    id      = "libs"
  }
  folder "Libraries" {
    projects {
      path = "**/"
      where {
        in_set = "libs"
      }
    }
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)
	assert.Empty(t, s.FilePaths())
	assert.Equal(t, []string{"libs/Ext/Ext.csproj", "libs/Other/Other.csproj"}, s.ProjectPaths())
	assert.Equal(t, []string{"Libraries"}, folderPath(t, s, "libs/Other/Other.csproj"))
}

func TestBuild_SubSolutionIncludingItself(t *testing.T) {
	mfs := newRepo()
	mfs.AddFile("/repo/sub/sub.subsln", []byte(`
root {
  subsolutions { path = "../" }
}
`))

	result := build(t, mfs, `
root {
  projects { path = "src/Core/" }
  subsolutions { path = "sub/" }
}
`)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, solution.IssueError, result.Issues[0].Level)
	assert.Contains(t, result.Issues[0].Message, "includes itself")
	assert.Equal(t, []string{"src/Core/Core.csproj"}, result.Solution.ProjectPaths())
}

const legacySolution = `Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio Version 17
VisualStudioVersion = 17.0.31903.59
MinimumVisualStudioVersion = 10.0.40219.1
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "lib", "lib", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "Lib", "Lib\Lib.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "Skip", "Skip\Skip.csproj", "{33333333-3333-3333-3333-333333333333}"
EndProject
Global
	GlobalSection(NestedProjects) = preSolution
		{22222222-2222-2222-2222-222222222222} = {11111111-1111-1111-1111-111111111111}
	EndGlobalSection
EndGlobal
`

func TestBuild_Solutions(t *testing.T) {
	mfs := newRepo()
	mfs.AddFile("/repo/legacy/Legacy.sln", []byte(legacySolution))
	mfs.AddFile("/repo/legacy/Lib/Lib.csproj", sdkProject())
	mfs.AddFile("/repo/legacy/Skip/Skip.csproj", sdkProject())

	result := build(t, mfs, `
root {
  solutions {
    path = "legacy/"
    where_projects {
      not { path = "**/Skip/**" }
    }
  }
}
`)
	s := result.Solution
	assert.Empty(t, result.Issues)
	assert.Equal(t, []string{"legacy/Lib/Lib.csproj"}, s.ProjectPaths())
	assert.Equal(t, []string{"lib"}, folderPath(t, s, "legacy/Lib/Lib.csproj"))
}

func TestBuild_ExplicitMatrix(t *testing.T) {
	result := build(t, newRepo(), `
root {
  projects { path = "src/Core/" }
}

configuration_platforms {
  configuration "Debug" {}
  configuration "Release" {
    match = ["Rel"]
  }
  platform "x64" {
    match = ["Any CPU"]
  }
}
`)
	s := result.Solution
	assert.Equal(t, []string{"Debug|x64", "Release|x64"}, matrixNames(s))

	cp, _ := s.ConfigurationPlatform("Release|x64")
	ctx, ok := cp.Context("src/Core/Core.csproj")
	require.True(t, ok)
	assert.Equal(t, "Release|Any CPU", ctx.FullName())
	assert.True(t, ctx.Build)
}

func TestBuild_ReadErrorPropagates(t *testing.T) {
	mfs := newRepo()
	mfs.AddFile("/repo/bad/Bad.csproj", []byte("<Project"))
	mfs.AddFile("/repo/main.subsln", []byte(`
root {
  projects { path = "bad/" }
}
`))

	_, err := New(mfs).BuildFile(context.Background(), "/repo/main.subsln")
	require.Error(t, err)
	var readErr *project.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "/repo/bad/Bad.csproj", readErr.Path)
}

func TestBuild_Canceled(t *testing.T) {
	mfs := newRepo()
	mfs.AddFile("/repo/main.subsln", []byte(`
root {
  projects {}
}
`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(mfs).BuildFile(ctx, "/repo/main.subsln")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_ReadsEachProjectOnce(t *testing.T) {
	mfs := newRepo()
	xml := project.NewXMLReader(mfs)

	var mu sync.Mutex
	reads := make(map[string]int)
	counting := project.ReaderFunc(func(ctx context.Context, path string) (*project.Metadata, error) {
		mu.Lock()
		reads[path]++
		mu.Unlock()
		return xml.Read(ctx, path)
	})

	result := build(t, mfs, `
root {
  projects { path = "src/App/" }
  dependencies {}
  dependents {}
  projects { path = "**/" }
}
`, WithProjectReader(counting), WithConcurrency(4))
	assert.Len(t, result.Solution.ProjectPaths(), 6)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, reads, 6)
	for path, n := range reads {
		assert.Equal(t, 1, n, path)
	}
}

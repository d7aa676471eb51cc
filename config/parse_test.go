package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/fsys"
	"github.com/willibrandon/gosln/solution"
)

var configPath = filepath.FromSlash("/repo/build/All.subsln")

func TestParse_Document(t *testing.T) {
	src := `
solution_name = "Everything"
output_directory = "../out"
collapse_folders_with_unique_subfolder = true

root {
  folder "Solution Items" {
    files {
      path = "*.md"
    }
  }

  projects {
    path           = "src/"
    create_folders = true
    id             = "src"

    where {
      not {
        path = "**/*Tests*"
      }
      project_type = ["csharp-sdk", "fsharp-sdk"]
    }
  }

  folder "Tests" {
    dependents {
      target                           = "src"
      scope_path                       = "tests/**"
      keep_only_satisfied_after_filter = true
    }
  }

  dependencies {
    overwrite = true
  }

  subsolutions {
    path               = "modules/**"
    create_root_folder = true
    keep_only          = "src"
    virtual            = true
    id                 = "modules"

    where_projects {
      is_dependency_of {
        path = "src/App/*.csproj"
      }
    }
  }
}

configuration_platforms {
  configuration "Debug" {}
  configuration "Release" {
    match = ["Rel", "Ship"]
  }
  platform "Any CPU" {}
  platform "x64" {}
}
`
	doc, err := Parse([]byte(src), configPath)
	require.NoError(t, err)

	assert.Equal(t, "Everything", doc.SolutionName)
	assert.Equal(t, filepath.FromSlash("/repo/out"), doc.OutputDirectory)
	assert.Equal(t, filepath.FromSlash("/repo/out/Everything.sln"), doc.SolutionPath())
	assert.Equal(t, filepath.FromSlash("/repo/build"), doc.Dir())
	assert.True(t, doc.CollapseFoldersWithUniqueSubFolder)
	assert.False(t, doc.CollapseFoldersWithUniqueItem)

	require.Len(t, doc.Root, 5)

	items, ok := doc.Root[0].(*FolderNode)
	require.True(t, ok)
	assert.Equal(t, "Solution Items", items.Name)
	require.Len(t, items.Content, 1)
	files, ok := items.Content[0].(*FilesNode)
	require.True(t, ok)
	assert.Equal(t, "*.md", files.Path)
	assert.Nil(t, files.Where)

	projects, ok := doc.Root[1].(*ProjectsNode)
	require.True(t, ok)
	assert.Equal(t, "src/", projects.Path)
	assert.True(t, projects.CreateFolders)
	assert.Equal(t, "src", projects.ID)
	assert.Equal(t, "(not path **/*Tests* and project_type csharp-sdk|fsharp-sdk)", projects.Where.String())

	tests := doc.Root[2].(*FolderNode)
	dependents, ok := tests.Content[0].(*DependentsNode)
	require.True(t, ok)
	assert.Equal(t, "src", dependents.Target)
	assert.Equal(t, "tests/**", dependents.ScopePath)
	assert.False(t, dependents.KeepOnlySatisfiedBeforeFilter)
	assert.True(t, dependents.KeepOnlySatisfiedAfterFilter)

	deps, ok := doc.Root[3].(*DependenciesNode)
	require.True(t, ok)
	assert.Empty(t, deps.Target)
	assert.True(t, deps.Overwrite)

	subs, ok := doc.Root[4].(*SolutionsNode)
	require.True(t, ok)
	assert.True(t, subs.Sub)
	assert.True(t, subs.CreateRootFolder)
	assert.True(t, subs.Virtual)
	assert.Equal(t, "src", subs.KeepOnly)
	assert.Equal(t, "modules", subs.ID)
	assert.Equal(t, "is_dependency_of src/App/*.csproj", subs.WhereProjects.String())
	assert.Nil(t, subs.WhereFiles)

	require.NotNil(t, doc.Matrix)
	require.Len(t, doc.Matrix.Configurations, 2)
	assert.Equal(t, []string{"Debug"}, doc.Matrix.Configurations[0].Fragments())
	assert.Equal(t, []string{"Rel", "Ship"}, doc.Matrix.Configurations[1].Fragments())
	assert.Equal(t, "x64", doc.Matrix.Platforms[1].Name)

	var kinds []string
	Walk(doc.Root, func(n Node) { kinds = append(kinds, Kind(n)) })
	assert.Equal(t, []string{"folder", "files", "projects", "folder", "dependents", "dependencies", "subsolutions"}, kinds)
}

func TestParse_Defaults(t *testing.T) {
	doc, err := Parse([]byte(`root {}`), configPath)
	require.NoError(t, err)

	assert.Equal(t, "All", doc.SolutionName)
	assert.Equal(t, filepath.FromSlash("/repo/build"), doc.OutputDirectory)
	assert.Nil(t, doc.Matrix)
	assert.Empty(t, doc.Root)
}

func TestParse_MatrixFromProjects(t *testing.T) {
	doc, err := Parse([]byte(`
root {}
configuration_platforms {
  from_projects = true
}`), configPath)
	require.NoError(t, err)
	assert.Nil(t, doc.Matrix)

	doc, err = Parse([]byte(`
root {}
configuration_platforms {
  configuration "Debug" {}
}`), configPath)
	require.NoError(t, err)
	require.NotNil(t, doc.Matrix)
	assert.Equal(t, []NamedMatch{{Name: DefaultPlatform}}, doc.Matrix.Platforms)
}

func TestParse_FilterComposition(t *testing.T) {
	doc, err := Parse([]byte(`
root {
  projects {
    where {
      any_of {
        path   = "a/**"
        in_set = "core"
      }
      all {
        path = "*.csproj"
        not {
          project_type = ["shared"]
        }
      }
    }
  }
}`), configPath)
	require.NoError(t, err)

	where := doc.Root[0].(*ProjectsNode).Where
	assert.Equal(t, "((path a/** or in_set core) and (path *.csproj and not project_type shared))", where.String())
	assert.Equal(t, []string{"core"}, SetReferences(where))

	all := where.(*AllFilter)
	notFilter := all.Terms[1].(*AllFilter).Terms[1].(*NotFilter)
	assert.Equal(t, []solution.ProjectType{solution.ProjectTypeShared}, notFilter.Operand.(*ProjectTypeFilter).Types)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"syntax", "root {", "Unclosed configuration block"},
		{"missing root", `solution_name = "x"`, "Missing \"root\" block"},
		{"duplicate root", "root {}\nroot {}", "Duplicate \"root\" block"},
		{"unknown block", "root {\n  widgets {}\n}", "Unsupported block type"},
		{"project filter on files", "root {\n  files {\n    where {\n      project_type = [\"csharp\"]\n    }\n  }\n}", "Unsupported argument"},
		{"unknown project type", "root {\n  projects {\n    where {\n      project_type = [\"cobol\"]\n    }\n  }\n}", "Unknown project type"},
		{"wrong attribute type", "root {\n  projects {\n    overwrite = \"maybe\"\n  }\n}", "Unsuitable value type"},
		{"empty not", "root {\n  projects {\n    where {\n      not {}\n    }\n  }\n}", "Empty filter"},
		{"conflicting matrix", "root {}\nconfiguration_platforms {\n  from_projects = true\n  configuration \"Debug\" {}\n}", "Conflicting matrix declaration"},
		{"missing dependency path", "root {\n  projects {\n    where {\n      is_dependency_of {}\n    }\n  }\n}", "Missing required argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), configPath)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, configPath, parseErr.Path)
			assert.True(t, parseErr.Diagnostics.HasErrors())
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad(t *testing.T) {
	mfs := fsys.NewMockFileSystem()
	mfs.AddFile(configPath, []byte("root {\n  projects {}\n}"))

	doc, err := Load(mfs, configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, doc.Path)
	require.Len(t, doc.Root, 1)

	_, err = Load(mfs, filepath.FromSlash("/repo/missing.subsln"))
	assert.Error(t, err)
}

func TestStarter(t *testing.T) {
	src := Starter("Demo")

	doc, err := Parse(src, configPath)
	require.NoError(t, err)
	assert.Equal(t, "Demo", doc.SolutionName)
	assert.True(t, doc.CollapseFoldersWithUniqueSubFolder)
	assert.Nil(t, doc.Matrix)
	require.Len(t, doc.Root, 3)

	projects := doc.Root[1].(*ProjectsNode)
	assert.Equal(t, "**/", projects.Path)
	assert.True(t, projects.CreateFolders)
	assert.Equal(t, "not path **/*Tests*/**", projects.Where.String())
}

package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/solution"
)

func sampleSolution() *solution.Solution {
	s := solution.New("/repo", "Repo", true)
	s.Root.AddFile("README.md", false)
	src := s.Root.GetOrAddSubFolder("src")
	src.AddProject("src/App/App.csproj", &solution.Project{
		Type:         solution.ProjectTypeCSharpSDK,
		Dependencies: []string{"src/Core/Core.csproj"},
	}, false)
	src.AddProject("src/Core/Core.csproj", &solution.Project{Type: solution.ProjectTypeCSharpSDK}, false)
	return s
}

func TestSolutionTree(t *testing.T) {
	rendered := SolutionTree(sampleSolution())
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "Repo.sln", lines[0])
	assert.Contains(t, lines[1], "src/")
	assert.Contains(t, lines[2], "src/App/App.csproj [csharp-sdk]")
	assert.Contains(t, lines[3], "src/Core/Core.csproj [csharp-sdk]")
	assert.Contains(t, lines[4], "README.md")
}

func TestNewSolutionOutput(t *testing.T) {
	s := sampleSolution()
	s.AddConfigurationPlatform(solution.NewConfigurationPlatform("Debug", "Any CPU", nil, nil))

	out := NewSolutionOutput(s, map[string][]string{"core": {"src/Core/Core.csproj"}},
		solution.Issues{solution.Warningf("careful")}, time.Now())

	assert.Equal(t, SchemaVersion, out.SchemaVersion)
	assert.Equal(t, "Repo", out.Name)
	require.Len(t, out.Projects, 2)
	assert.Equal(t, ProjectEntry{
		Path:         "src/App/App.csproj",
		Type:         "csharp-sdk",
		Folder:       "src",
		Dependencies: []string{"src/Core/Core.csproj"},
	}, out.Projects[0])
	assert.Equal(t, []FileEntry{{Path: "README.md"}}, out.Files)
	assert.Equal(t, []string{"Debug|Any CPU"}, out.ConfigurationPlatforms)
	assert.Equal(t, []IssueEntry{{Level: "Warning", Message: "careful"}}, out.Issues)
}

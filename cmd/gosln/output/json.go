package output

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/willibrandon/gosln/solution"
)

// SchemaVersion is the version of the JSON output documents.
const SchemaVersion = "1"

// SolutionOutput represents the JSON output of the show command
type SolutionOutput struct {
	SchemaVersion          string              `json:"schemaVersion"`
	Name                   string              `json:"name"`
	OutputDirectory        string              `json:"outputDirectory"`
	Projects               []ProjectEntry      `json:"projects"`
	Files                  []FileEntry         `json:"files"`
	ConfigurationPlatforms []string            `json:"configurationPlatforms"`
	Sets                   map[string][]string `json:"sets,omitempty"`
	Issues                 []IssueEntry        `json:"issues"`
	ElapsedMs              int64               `json:"elapsedMs"`
}

// ProjectEntry represents a project in JSON output
type ProjectEntry struct {
	Path         string   `json:"path"`
	Type         string   `json:"type"`
	Folder       string   `json:"folder,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// FileEntry represents a solution item in JSON output
type FileEntry struct {
	Path   string `json:"path"`
	Folder string `json:"folder,omitempty"`
}

// IssueEntry represents a build issue in JSON output
type IssueEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewSolutionOutput describes s, its named sets and the issues of its build.
func NewSolutionOutput(s *solution.Solution, sets map[string][]string, issues solution.Issues, start time.Time) *SolutionOutput {
	out := &SolutionOutput{
		SchemaVersion:          SchemaVersion,
		Name:                   s.Name,
		OutputDirectory:        s.OutputDirectory,
		Projects:               []ProjectEntry{},
		Files:                  []FileEntry{},
		ConfigurationPlatforms: []string{},
		Sets:                   sets,
		Issues:                 []IssueEntry{},
		ElapsedMs:              MeasureElapsed(start),
	}

	projects := s.Projects()
	for _, path := range s.ProjectPaths() {
		p := projects[path]
		out.Projects = append(out.Projects, ProjectEntry{
			Path:         path,
			Type:         p.Type.String(),
			Folder:       folderOf(s, path),
			Dependencies: p.Dependencies,
		})
	}
	for _, path := range s.FilePaths() {
		out.Files = append(out.Files, FileEntry{Path: path, Folder: folderOf(s, path)})
	}
	for _, cp := range s.ConfigurationPlatforms() {
		out.ConfigurationPlatforms = append(out.ConfigurationPlatforms, cp.FullName())
	}
	for _, issue := range issues {
		out.Issues = append(out.Issues, IssueEntry{Level: issue.Level.String(), Message: issue.Message})
	}
	return out
}

func folderOf(s *solution.Solution, path string) string {
	if f, ok := s.FolderOf(path); ok {
		return strings.Join(f.Path(), "/")
	}
	return ""
}

// WriteJSON writes a JSON object to the specified writer (typically stdout)
// When --format json is used, ALL JSON goes to stdout and ALL messages go to stderr
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// MeasureElapsed returns elapsed time in milliseconds since start
func MeasureElapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
